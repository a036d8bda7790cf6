// Package controller implements the Radio Controller (§2, §4.1, §4.3): setup
// and teardown of the NIC, spawning and draining the Tuner, and
// multiplexing status events and captured frames between the Tuner, the RTO
// sink, and the Supervisor.
package controller

import "github.com/radio-control/rdoctl/internal/chanspec"

// Config is the recognised configuration dictionary (§6) a Radio Controller
// is constructed from.
type Config struct {
	Role string
	NIC  string

	// DwellSeconds is the constant per-slot dwell (§1 Non-goals: adaptive
	// per-slot dwell is out of scope; the DwellTable shape survives for a
	// future revision).
	DwellSeconds float64

	Scan      []chanspec.Channel
	Pass      []chanspec.Channel
	ScanStart *chanspec.Channel

	Paused bool

	// Spoofed is "" (no spoofing), "random", or a literal MAC address.
	Spoofed string

	Antennas chanspec.Antennas
	Desc     string
}
