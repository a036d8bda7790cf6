// Package config loads and validates the Radio Controller's configuration:
// the radio dictionary (§6), the diagnostics HTTP surface (§14), and the
// bearer-auth settings guarding it. It follows the same
// defaults→file→env→validate pipeline as the teacher's config.Load, using
// gopkg.in/yaml.v3 for the on-disk form (§11).
package config

import (
	"time"

	"github.com/radio-control/rdoctl/internal/chanspec"
)

// RadioConfig is the recognised configuration dictionary a Radio Controller
// is constructed from (§6), as loaded from YAML.
type RadioConfig struct {
	Role         string             `yaml:"role"`
	NIC          string             `yaml:"nic"`
	DwellSeconds float64            `yaml:"dwell_seconds"`
	Scan         []chanspec.Channel `yaml:"scan"`
	Pass         []chanspec.Channel `yaml:"pass,omitempty"`
	ScanStart    *chanspec.Channel  `yaml:"scan_start,omitempty"`
	Paused       bool               `yaml:"paused"`
	Spoofed      string             `yaml:"spoofed,omitempty"`
	Antennas     chanspec.Antennas  `yaml:"antennas,omitempty"`
	Desc         string             `yaml:"desc,omitempty"`
}

// DiagnosticsConfig governs the read-only HTTP surface (§14).
type DiagnosticsConfig struct {
	Addr              string        `yaml:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HeartbeatJitter   time.Duration `yaml:"heartbeat_jitter"`
	EventBufferSize   int           `yaml:"event_buffer_size"`
}

// AuthConfig selects bearer-token verification for the diagnostics surface.
// Algorithm "" disables auth entirely (local/dev use).
type AuthConfig struct {
	Algorithm    string `yaml:"algorithm"`
	SecretKey    string `yaml:"secret_key,omitempty"`
	PublicKeyPEM string `yaml:"public_key_pem,omitempty"`
	JWKSURL      string `yaml:"jwks_url,omitempty"`
}

// Config is the top-level on-disk configuration document.
type Config struct {
	Radio       RadioConfig       `yaml:"radio"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Auth        AuthConfig        `yaml:"auth"`

	// ControlAddr is where this process listens for the Supervisor's
	// control-token websocket connection (§5, §6). Distinct from
	// Diagnostics.Addr, which serves the read-only HTTP surface (§14).
	ControlAddr string `yaml:"control_addr"`
	ControlPath string `yaml:"control_path"`

	AuditDir         string        `yaml:"audit_dir"`
	FrameReadTimeout time.Duration `yaml:"frame_read_timeout"`
}

// Default returns the baseline configuration before any file or env
// overrides are applied.
func Default() *Config {
	return &Config{
		Radio: RadioConfig{
			DwellSeconds: 5,
		},
		Diagnostics: DiagnosticsConfig{
			Addr:              ":8090",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			HeartbeatInterval: 15 * time.Second,
			HeartbeatJitter:   2 * time.Second,
			EventBufferSize:   50,
		},
		ControlAddr:      ":8091",
		ControlPath:      "/control",
		AuditDir:         "logs",
		FrameReadTimeout: 5 * time.Second,
	}
}
