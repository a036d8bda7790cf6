// Package netlinknic implements the parts of nic.Ops that map directly onto
// RTNETLINK using github.com/vishvananda/netlink, instead of shelling out.
// It covers link up/down, hardware address set/reset, and virtual interface
// delete; interface listing, virtual interface creation, channel tuning and
// phy queries are delegated to a nl80211-capable backend (execnic), the same split the
// original wraith project draws between ifconfig-style link state and
// iw-style radio state.
package netlinknic

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"

	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic"
)

// NL is a nic.Ops backend backed by RTNETLINK for link/address operations.
// Channel, phy, and driver queries that have no netlink representation are
// delegated to Radio, a nl80211-capable NICOps (normally execnic.Exec).
type NL struct {
	Radio nic.Ops
}

// New returns a netlink-backed Ops that delegates nl80211-only operations to
// radio.
func New(radio nic.Ops) *NL {
	return &NL{Radio: radio}
}

func (n *NL) ListWirelessIfaces(ctx context.Context) ([]string, error) {
	return n.Radio.ListWirelessIfaces(ctx)
}

func (n *NL) GetPhyAndIfaces(ctx context.Context, name string) (string, []nic.Iface, error) {
	return n.Radio.GetPhyAndIfaces(ctx, name)
}

func (n *NL) SupportedChannels(ctx context.Context, phy string) (map[uint16]bool, error) {
	return n.Radio.SupportedChannels(ctx, phy)
}

func (n *NL) AddVirtual(ctx context.Context, phy, name, mode string) error {
	return n.Radio.AddVirtual(ctx, phy, name, mode)
}

func (n *NL) DeleteVirtual(ctx context.Context, name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return nic.Normalize("delete_virtual", name, err)
	}
	if err := netlink.LinkDel(link); err != nil {
		return nic.Normalize("delete_virtual", name, err)
	}
	return nil
}

func (n *NL) SetChannel(ctx context.Context, name string, ch chanspec.Channel) error {
	return n.Radio.SetChannel(ctx, name, ch)
}

func (n *NL) SetLink(ctx context.Context, name string, up bool) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return nic.Normalize("set_link", name, err)
	}
	if up {
		err = netlink.LinkSetUp(link)
	} else {
		err = netlink.LinkSetDown(link)
	}
	if err != nil {
		return nic.Normalize("set_link", name, err)
	}
	return nil
}

func (n *NL) SetHWAddr(ctx context.Context, name, mac string) (string, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return "", nic.Normalize("set_hw_addr", name, err)
	}
	hw, err := parseOrRandomMAC(mac)
	if err != nil {
		return "", nic.Normalize("set_hw_addr", name, err)
	}
	// Address changes require the link to be down first on most drivers.
	wasUp := link.Attrs().Flags&netlink.FlagUp != 0
	if wasUp {
		if err := netlink.LinkSetDown(link); err != nil {
			return "", nic.Normalize("set_hw_addr", name, err)
		}
	}
	if err := netlink.LinkSetHardwareAddr(link, hw); err != nil {
		return "", nic.Normalize("set_hw_addr", name, err)
	}
	if wasUp {
		if err := netlink.LinkSetUp(link); err != nil {
			return "", nic.Normalize("set_hw_addr", name, err)
		}
	}
	return hw.String(), nil
}

func (n *NL) ResetHWAddr(ctx context.Context, name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return nic.Normalize("reset_hw_addr", name, err)
	}
	perm := link.Attrs().PermHWAddr
	if perm == nil {
		return nic.Normalize("reset_hw_addr", name, fmt.Errorf("not found: permanent address"))
	}
	// Address changes require the link to be down first on most drivers,
	// the same precondition SetHWAddr observes.
	wasUp := link.Attrs().Flags&netlink.FlagUp != 0
	if wasUp {
		if err := netlink.LinkSetDown(link); err != nil {
			return nic.Normalize("reset_hw_addr", name, err)
		}
	}
	if err := netlink.LinkSetHardwareAddr(link, perm); err != nil {
		return nic.Normalize("reset_hw_addr", name, err)
	}
	if wasUp {
		if err := netlink.LinkSetUp(link); err != nil {
			return nic.Normalize("reset_hw_addr", name, err)
		}
	}
	return nil
}

func (n *NL) DriverOf(ctx context.Context, name string) (string, error) {
	return n.Radio.DriverOf(ctx, name)
}

func (n *NL) ChipsetOf(ctx context.Context, driver string) (string, error) {
	return n.Radio.ChipsetOf(ctx, driver)
}

func (n *NL) IWConfig(ctx context.Context, name, field string) (string, error) {
	return n.Radio.IWConfig(ctx, name, field)
}

var _ nic.Ops = (*NL)(nil)
