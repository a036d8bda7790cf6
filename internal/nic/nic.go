package nic

import (
	"context"

	"github.com/radio-control/rdoctl/internal/chanspec"
)

// Iface describes one wireless interface as reported by the platform.
type Iface struct {
	Name string
	Addr string // hardware MAC address
	Phy  string
}

// Ops is the driver-level facade over platform netlink/ioctl primitives
// (§1 NICOps). It is implemented by execnic (subprocess-backed, mirrors the
// original wraith project's use of the `iw`/`ifconfig` command line tools),
// netlinknic (vishvananda/netlink-backed for the primitives that map
// cleanly onto RTNETLINK), and fakenic (in-memory, for tests).
type Ops interface {
	// ListWirelessIfaces returns the names of all wireless interfaces
	// currently visible on the platform.
	ListWirelessIfaces(ctx context.Context) ([]string, error)

	// GetPhyAndIfaces resolves the phy handle owning nic and every
	// interface currently attached to that phy.
	GetPhyAndIfaces(ctx context.Context, nic string) (phy string, ifaces []Iface, err error)

	// SupportedChannels returns the set of channel numbers phy can tune to.
	SupportedChannels(ctx context.Context, phy string) (map[uint16]bool, error)

	// AddVirtual creates a new virtual interface named name under phy in
	// the given mode ("monitor" or "managed").
	AddVirtual(ctx context.Context, phy, name, mode string) error

	// DeleteVirtual removes the named virtual interface.
	DeleteVirtual(ctx context.Context, name string) error

	// SetChannel tunes nic to the given channel/width.
	SetChannel(ctx context.Context, nic string, ch chanspec.Channel) error

	// SetLink brings nic up or down.
	SetLink(ctx context.Context, nic string, up bool) error

	// SetHWAddr sets nic's hardware address. An empty mac requests a
	// random address; SetHWAddr returns the address actually applied.
	SetHWAddr(ctx context.Context, nic, mac string) (applied string, err error)

	// ResetHWAddr restores nic's factory hardware address.
	ResetHWAddr(ctx context.Context, nic string) error

	// DriverOf returns the kernel driver module bound to nic.
	DriverOf(ctx context.Context, nic string) (string, error)

	// ChipsetOf returns the chipset family for the given driver.
	ChipsetOf(ctx context.Context, driver string) (string, error)

	// IWConfig reads a single iwconfig-style field (e.g. "Standards",
	// "Tx-Power") for nic.
	IWConfig(ctx context.Context, nic, field string) (string, error)
}
