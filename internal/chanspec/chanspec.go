// Package chanspec defines the channel, scan pattern, and antenna data model
// shared by the NIC facade, the Tuner, and the Radio Controller.
package chanspec

import "fmt"

// Width identifies a channel's bandwidth/sideband mode.
type Width string

// Supported channel widths. NOHT is the default for legacy 802.11b/g/a
// channels; the HT variants describe 802.11n/ac bonding.
const (
	NOHT      Width = "NOHT"
	HT20      Width = "HT20"
	HT20MINUS Width = "HT20MINUS"
	HT20PLUS  Width = "HT20PLUS"
	HT40MINUS Width = "HT40MINUS"
	HT40PLUS  Width = "HT40PLUS"
)

// Channel is a single tunable (channel number, width) pair. Comparison is
// structural: two Channels are equal iff both fields match.
type Channel struct {
	Ch    uint16 `yaml:"ch" json:"ch"`
	Width Width  `yaml:"width" json:"width"`
}

// String renders the "ch:width" wire form used in status/event payloads.
func (c Channel) String() string {
	return fmt.Sprintf("%d:%s", c.Ch, c.Width)
}

// Equal reports structural equality with another Channel.
func (c Channel) Equal(o Channel) bool {
	return c.Ch == o.Ch && c.Width == o.Width
}

// ScanPattern is the ordered, non-empty, deduplicated list of channels a
// Tuner walks cyclically. Index i advances modulo len(pattern).
type ScanPattern []Channel

// Contains reports whether ch appears anywhere in the pattern.
func (s ScanPattern) Contains(ch Channel) bool {
	for _, c := range s {
		if c.Equal(ch) {
			return true
		}
	}
	return false
}

// IndexOf returns the index of ch in the pattern, or -1 if absent.
func (s ScanPattern) IndexOf(ch Channel) int {
	for i, c := range s {
		if c.Equal(ch) {
			return i
		}
	}
	return -1
}

// DedupAndFilter returns a new ScanPattern containing only channels that are
// in supported and not in pass, preserving order and dropping duplicates.
func DedupAndFilter(scan []Channel, supported map[uint16]bool, pass ScanPattern) ScanPattern {
	seen := make(map[Channel]bool, len(scan))
	out := make(ScanPattern, 0, len(scan))
	for _, c := range scan {
		if seen[c] {
			continue
		}
		if !supported[c.Ch] {
			continue
		}
		if pass.Contains(c) {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// DwellTable is a duration-per-slot table parallel to a ScanPattern. The
// current implementation always fills it with one constant dwell; the
// parallel shape exists so a future revision can assign per-slot dwell
// without changing the Tuner's indexing.
type DwellTable []float64 // seconds

// NewConstantDwellTable returns a DwellTable of length n, every slot set to
// dwellSeconds.
func NewConstantDwellTable(n int, dwellSeconds float64) DwellTable {
	d := make(DwellTable, n)
	for i := range d {
		d[i] = dwellSeconds
	}
	return d
}

// Antenna describes one physical antenna element.
type Antenna struct {
	Type string  `yaml:"type" json:"type"`
	Gain float64 `yaml:"gain" json:"gain"` // dBi
	Loss float64 `yaml:"loss" json:"loss"` // dB
	X    float64 `yaml:"x" json:"x"`
	Y    float64 `yaml:"y" json:"y"`
	Z    float64 `yaml:"z" json:"z"`
}

// Antennas is the antenna descriptor: a count plus one entry per antenna.
// When Num == 0, Elements must be empty.
type Antennas struct {
	Num      int       `yaml:"num" json:"num"`
	Elements []Antenna `yaml:"elements" json:"elements"`
}

// RadioDescriptor is the read-only snapshot handed to the RTO sink on
// startup (§3, §4.1 step 10).
type RadioDescriptor struct {
	NIC        string    `json:"nic"`
	VNIC       string    `json:"vnic"`
	Phy        string    `json:"phy"`
	MAC        string    `json:"mac"`
	Role       string    `json:"role"`
	Spoofed    string    `json:"spoofed"`
	Driver     string    `json:"driver"`
	Chipset    string    `json:"chipset"`
	Standards  string    `json:"standards"`
	Channels   []Channel `json:"channels"`
	TxPowerDbm float64   `json:"txPowerDbm"`
	Desc       string    `json:"desc"`
	Antennas   Antennas  `json:"antennas"`
}
