package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/radio-control/rdoctl/internal/chanspec"
)

// Load merges Default() + an optional YAML file at path (skipped if path is
// ""; a non-empty path that cannot be read is an error) + RDOCTL_*
// environment overrides, then
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies RDOCTL_* environment variables on top of
// whatever Default()/the config file already set, the same override shape
// as the teacher's RCC_TIMING_* handling in config.applyEnvOverrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RDOCTL_ROLE"); v != "" {
		cfg.Radio.Role = v
	}
	if v := os.Getenv("RDOCTL_NIC"); v != "" {
		cfg.Radio.NIC = v
	}
	if v := os.Getenv("RDOCTL_DWELL_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Radio.DwellSeconds = f
		}
	}
	if v := os.Getenv("RDOCTL_SPOOFED"); v != "" {
		cfg.Radio.Spoofed = v
	}
	if v := os.Getenv("RDOCTL_PAUSED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Radio.Paused = b
		}
	}
	if v := os.Getenv("RDOCTL_SCAN_START"); v != "" {
		if ch, err := parseChannelSpec(v); err == nil {
			cfg.Radio.ScanStart = &ch
		}
	}
	if v := os.Getenv("RDOCTL_ADDR"); v != "" {
		cfg.Diagnostics.Addr = v
	}
	if v := os.Getenv("RDOCTL_CONTROL_ADDR"); v != "" {
		cfg.ControlAddr = v
	}
	if v := os.Getenv("RDOCTL_AUDIT_DIR"); v != "" {
		cfg.AuditDir = v
	}
	if v := os.Getenv("RDOCTL_FRAME_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FrameReadTimeout = d
		}
	}
	if v := os.Getenv("RDOCTL_AUTH_ALGORITHM"); v != "" {
		cfg.Auth.Algorithm = v
	}
	if v := os.Getenv("RDOCTL_AUTH_SECRET_KEY"); v != "" {
		cfg.Auth.SecretKey = v
	}
}

// parseChannelSpec parses a "ch" or "ch:width" environment override into a
// chanspec.Channel. A bare number defaults to chanspec.NOHT.
func parseChannelSpec(s string) (chanspec.Channel, error) {
	var ch uint64
	var width string
	if n, _ := fmt.Sscanf(s, "%d:%s", &ch, &width); n == 2 {
		return chanspec.Channel{Ch: uint16(ch), Width: chanspec.Width(width)}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return chanspec.Channel{}, fmt.Errorf("config: invalid channel spec %q", s)
	}
	return chanspec.Channel{Ch: uint16(n), Width: chanspec.NOHT}, nil
}
