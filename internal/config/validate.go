package config

import (
	"fmt"
	"regexp"
)

var macRe = regexp.MustCompile(`^([0-9a-fA-F]{2}:){5}[0-9a-fA-F]{2}$`)

// Validate checks a fully merged Config for the invariants Setup (§4.1)
// assumes hold before it ever touches a NIC: required fields present, a
// non-empty scan list, a well-formed spoofed-MAC setting, and a consistent
// antenna block.
func Validate(cfg *Config) error {
	if cfg.Radio.Role == "" {
		return fmt.Errorf("config: radio.role is required")
	}
	if cfg.Radio.NIC == "" {
		return fmt.Errorf("config: radio.nic is required")
	}
	if cfg.Radio.DwellSeconds <= 0 {
		return fmt.Errorf("config: radio.dwell_seconds must be > 0")
	}
	if len(cfg.Radio.Scan) == 0 {
		return fmt.Errorf("config: radio.scan must list at least one channel")
	}
	if s := cfg.Radio.Spoofed; s != "" && s != "random" && !macRe.MatchString(s) {
		return fmt.Errorf("config: radio.spoofed must be \"\", \"random\", or a MAC address, got %q", s)
	}
	if cfg.Radio.Antennas.Num != len(cfg.Radio.Antennas.Elements) {
		return fmt.Errorf("config: radio.antennas.num (%d) must match len(elements) (%d)",
			cfg.Radio.Antennas.Num, len(cfg.Radio.Antennas.Elements))
	}
	if cfg.Diagnostics.Addr == "" {
		return fmt.Errorf("config: diagnostics.addr is required")
	}
	if cfg.ControlAddr == "" {
		return fmt.Errorf("config: control_addr is required")
	}
	if cfg.ControlPath == "" {
		return fmt.Errorf("config: control_path is required")
	}
	switch cfg.Auth.Algorithm {
	case "", "HS256", "RS256":
	default:
		return fmt.Errorf("config: auth.algorithm must be \"\", \"HS256\", or \"RS256\", got %q", cfg.Auth.Algorithm)
	}
	if cfg.Auth.Algorithm == "HS256" && cfg.Auth.SecretKey == "" {
		return fmt.Errorf("config: auth.secret_key is required for HS256")
	}
	return nil
}
