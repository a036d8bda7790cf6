// Package fakenic provides a deterministic in-memory nic.Ops for tests,
// mirroring the teacher repo's internal/adapter/fake.FakeAdapter: configure
// behavior up front, then drive the Radio Controller's setup/teardown and
// Tuner loop against it without a real NIC.
package fakenic

import (
	"context"
	"fmt"
	"sync"

	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic"
)

// Fake is a fully in-memory NICOps backend.
type Fake struct {
	mu sync.Mutex

	WirelessIfaces []string
	Phy            string
	PhyIfaces      []nic.Iface
	Supported      map[uint16]bool
	Driver         string
	Chipset        string
	Standards      string
	TxPower        string

	// InvalidChannels causes SetChannel to fail with ErrInvalidArgument
	// for any of these channels — used to exercise §4.1 step 8 filtering.
	InvalidChannels map[uint16]bool

	virtuals map[string]string // name -> mode
	links    map[string]bool   // nic -> up
	hwaddrs  map[string]string
	factory  map[string]string
	current  map[string]chanspec.Channel
}

// New creates a Fake pre-populated with a single real NIC "wlan0" on phy0.
func New() *Fake {
	return &Fake{
		WirelessIfaces:  []string{"wlan0"},
		Phy:             "phy0",
		PhyIfaces:       []nic.Iface{{Name: "wlan0", Addr: "02:00:00:00:00:01", Phy: "phy0"}},
		Supported:       map[uint16]bool{1: true, 6: true, 11: true, 36: true, 40: true},
		Driver:          "ath9k",
		Chipset:         "Atheros",
		Standards:       "abgn",
		TxPower:         "20 dBm",
		InvalidChannels: map[uint16]bool{},
		virtuals:        make(map[string]string),
		links:           map[string]bool{"wlan0": true},
		hwaddrs:         map[string]string{"wlan0": "02:00:00:00:00:01"},
		factory:         map[string]string{"wlan0": "02:00:00:00:00:01"},
		current:         make(map[string]chanspec.Channel),
	}
}

func (f *Fake) ListWirelessIfaces(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.WirelessIfaces))
	copy(out, f.WirelessIfaces)
	for name := range f.virtuals {
		out = append(out, name)
	}
	return out, nil
}

func (f *Fake) GetPhyAndIfaces(ctx context.Context, n string) (string, []nic.Iface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n != "wlan0" {
		return "", nil, nic.Normalize("get_phy_and_ifaces", n, fmt.Errorf("not found"))
	}
	return f.Phy, f.PhyIfaces, nil
}

func (f *Fake) SupportedChannels(ctx context.Context, phy string) (map[uint16]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint16]bool, len(f.Supported))
	for k, v := range f.Supported {
		out[k] = v
	}
	return out, nil
}

func (f *Fake) AddVirtual(ctx context.Context, phy, name, mode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.virtuals[name] = mode
	f.links[name] = false
	return nil
}

func (f *Fake) DeleteVirtual(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.virtuals, name)
	delete(f.links, name)
	delete(f.current, name)
	return nil
}

func (f *Fake) SetChannel(ctx context.Context, n string, ch chanspec.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InvalidChannels[ch.Ch] {
		return nic.Normalize("set_channel", n, fmt.Errorf("invalid argument: channel %d", ch.Ch))
	}
	f.current[n] = ch
	return nil
}

func (f *Fake) SetLink(ctx context.Context, n string, up bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[n] = up
	return nil
}

func (f *Fake) SetHWAddr(ctx context.Context, n, mac string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mac == "" {
		mac = "06:00:00:00:00:99"
	}
	f.hwaddrs[n] = mac
	return mac, nil
}

func (f *Fake) ResetHWAddr(ctx context.Context, n string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if orig, ok := f.factory[n]; ok {
		f.hwaddrs[n] = orig
	}
	return nil
}

func (f *Fake) DriverOf(ctx context.Context, n string) (string, error) {
	return f.Driver, nil
}

func (f *Fake) ChipsetOf(ctx context.Context, driver string) (string, error) {
	return f.Chipset, nil
}

func (f *Fake) IWConfig(ctx context.Context, n, field string) (string, error) {
	switch field {
	case "Standards":
		return f.Standards, nil
	case "Tx-Power":
		return f.TxPower, nil
	default:
		return "", nil
	}
}

// CurrentChannel returns the channel most recently set on n, for assertions.
func (f *Fake) CurrentChannel(n string) (chanspec.Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.current[n]
	return c, ok
}

// IsUp reports whether n is currently administratively up.
func (f *Fake) IsUp(n string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links[n]
}

// HWAddr returns the hardware address currently assigned to n.
func (f *Fake) HWAddr(n string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hwaddrs[n]
}

// HasVirtual reports whether a virtual interface named name currently exists.
func (f *Fake) HasVirtual(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.virtuals[name]
	return ok
}

var _ nic.Ops = (*Fake)(nil)
