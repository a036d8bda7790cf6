// Package execnic implements nic.Ops by shelling out to the `iw`, `ip`,
// `iwconfig` and `ethtool` command-line tools, the same way the original wraith project's
// iw.py/iwtools.py wrap those binaries, and the same os/exec pattern the
// retrieval pack's wmap channel hopper (sniffer.ChannelHopper.hop) uses for
// `iw <iface> set channel <ch>`.
package execnic

import (
	"bufio"
	"context"
	"crypto/rand"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic"
)

// Exec is a nic.Ops backend that drives real Linux wireless interfaces via
// subprocesses. It requires `iw`, `ip`, `iwconfig` and `ethtool` on PATH.
type Exec struct {
	// run executes a command and returns combined stdout; overridable in
	// tests so the exec boundary itself can be stubbed without touching a
	// real NIC.
	run func(ctx context.Context, name string, args ...string) (string, error)
}

// New returns an Exec backend using os/exec directly.
func New() *Exec {
	return &Exec{run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

var devRe = regexp.MustCompile(`(?m)^phy#(\d+)`)
var ifaceRe = regexp.MustCompile(`(?m)^\s*Interface\s+(\S+)`)
var addrRe = regexp.MustCompile(`(?m)addr\s+([0-9a-fA-F:]{17})`)

func (e *Exec) ListWirelessIfaces(ctx context.Context) ([]string, error) {
	out, err := e.run(ctx, "iw", "dev")
	if err != nil {
		return nil, nic.Normalize("list_wireless_ifaces", "", err)
	}
	var names []string
	for _, m := range ifaceRe.FindAllStringSubmatch(out, -1) {
		names = append(names, m[1])
	}
	return names, nil
}

func (e *Exec) GetPhyAndIfaces(ctx context.Context, n string) (string, []nic.Iface, error) {
	out, err := e.run(ctx, "iw", "dev")
	if err != nil {
		return "", nil, nic.Normalize("get_phy_and_ifaces", n, err)
	}

	var phy string
	var ifaces []nic.Iface
	scanner := bufio.NewScanner(strings.NewReader(out))
	var curPhy, curIface, curAddr string
	flush := func() {
		if curIface == "" {
			return
		}
		ifaces = append(ifaces, nic.Iface{Name: curIface, Addr: curAddr, Phy: curPhy})
		if curIface == n {
			phy = curPhy
		}
		curIface, curAddr = "", ""
	}
	for scanner.Scan() {
		line := scanner.Text()
		if m := devRe.FindStringSubmatch(line); m != nil {
			flush()
			curPhy = "phy" + m[1]
			continue
		}
		if m := ifaceRe.FindStringSubmatch(line); m != nil {
			flush()
			curIface = m[1]
			continue
		}
		if m := addrRe.FindStringSubmatch(line); m != nil {
			curAddr = m[1]
		}
	}
	flush()

	if phy == "" {
		return "", nil, nic.Normalize("get_phy_and_ifaces", n, fmt.Errorf("not found: %s", n))
	}

	// Only return the interfaces that belong to n's phy.
	var onPhy []nic.Iface
	for _, i := range ifaces {
		if i.Phy == phy {
			onPhy = append(onPhy, i)
		}
	}
	return phy, onPhy, nil
}

var freqRe = regexp.MustCompile(`\*\s+(\d+)\s*MHz\s*\[(\d+)\]`)
var disabledRe = regexp.MustCompile(`\(disabled\)`)

func (e *Exec) SupportedChannels(ctx context.Context, phy string) (map[uint16]bool, error) {
	out, err := e.run(ctx, "iw", "phy", phy, "channels")
	if err != nil {
		return nil, nic.Normalize("supported_channels", phy, err)
	}
	supported := make(map[uint16]bool)
	for _, line := range strings.Split(out, "\n") {
		m := freqRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if disabledRe.MatchString(line) {
			continue
		}
		ch, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil {
			continue
		}
		supported[uint16(ch)] = true
	}
	return supported, nil
}

func (e *Exec) AddVirtual(ctx context.Context, phy, name, mode string) error {
	_, err := e.run(ctx, "iw", "phy", phy, "interface", "add", name, "type", mode)
	if err != nil {
		return nic.Normalize("add_virtual", name, err)
	}
	return nil
}

func (e *Exec) DeleteVirtual(ctx context.Context, name string) error {
	_, err := e.run(ctx, "iw", "dev", name, "del")
	if err != nil {
		return nic.Normalize("delete_virtual", name, err)
	}
	return nil
}

func (e *Exec) SetChannel(ctx context.Context, n string, ch chanspec.Channel) error {
	width := iwWidthArg(ch.Width)
	args := []string{"dev", n, "set", "channel", strconv.Itoa(int(ch.Ch))}
	if width != "" {
		args = append(args, width)
	}
	_, err := e.run(ctx, "iw", args...)
	if err != nil {
		return nic.Normalize("set_channel", n, err)
	}
	return nil
}

func iwWidthArg(w chanspec.Width) string {
	switch w {
	case chanspec.HT20:
		return "HT20"
	case chanspec.HT20MINUS:
		return "HT20-"
	case chanspec.HT20PLUS:
		return "HT20+"
	case chanspec.HT40MINUS:
		return "HT40-"
	case chanspec.HT40PLUS:
		return "HT40+"
	default:
		return ""
	}
}

func (e *Exec) SetLink(ctx context.Context, n string, up bool) error {
	state := "down"
	if up {
		state = "up"
	}
	_, err := e.run(ctx, "ip", "link", "set", n, state)
	if err != nil {
		return nic.Normalize("set_link", n, err)
	}
	return nil
}

func (e *Exec) SetHWAddr(ctx context.Context, n, mac string) (string, error) {
	args := []string{"link", "set", n, "address"}
	if mac == "" {
		mac = randomLocalMAC()
	}
	args = append(args, mac)
	if _, err := e.run(ctx, "ip", args...); err != nil {
		return "", nic.Normalize("set_hw_addr", n, err)
	}
	return mac, nil
}

func (e *Exec) ResetHWAddr(ctx context.Context, n string) error {
	// Address changes require the link to be down first on most drivers,
	// the same precondition SetHWAddr's ground truth (rdoctl.py's
	// ifconfig-down/resethwaddr/ifconfig-up sequence) observes.
	if _, err := e.run(ctx, "ip", "link", "set", n, "down"); err != nil {
		return nic.Normalize("reset_hw_addr", n, err)
	}
	if _, err := e.run(ctx, "ip", "link", "set", n, "address", "permanent"); err != nil {
		return nic.Normalize("reset_hw_addr", n, err)
	}
	if _, err := e.run(ctx, "ip", "link", "set", n, "up"); err != nil {
		return nic.Normalize("reset_hw_addr", n, err)
	}
	return nil
}

var driverRe = regexp.MustCompile(`driver:\s*(\S+)`)

func (e *Exec) DriverOf(ctx context.Context, n string) (string, error) {
	out, err := e.run(ctx, "ethtool", "-i", n)
	if err != nil {
		return "", nic.Normalize("driver_of", n, err)
	}
	if m := driverRe.FindStringSubmatch(out); m != nil {
		return m[1], nil
	}
	return "", nic.Normalize("driver_of", n, fmt.Errorf("not found"))
}

// chipsetByDriver is a small, extensible table mirroring the original
// wraith project's driver->chipset lookup.
var chipsetByDriver = map[string]string{
	"ath9k":   "Atheros",
	"ath10k":  "Atheros",
	"iwlwifi": "Intel",
	"rt2800":  "Ralink",
	"rtl8187": "Realtek",
}

func (e *Exec) ChipsetOf(ctx context.Context, driver string) (string, error) {
	if c, ok := chipsetByDriver[driver]; ok {
		return c, nil
	}
	return "unknown", nil
}

func (e *Exec) IWConfig(ctx context.Context, n, field string) (string, error) {
	out, err := e.run(ctx, "iwconfig", n)
	if err != nil {
		return "", nic.Normalize("iw_config", n, err)
	}
	switch field {
	case "Standards":
		if m := regexp.MustCompile(`IEEE\s+802\.11(\S+)`).FindStringSubmatch(out); m != nil {
			return m[1], nil
		}
	case "Tx-Power":
		if m := regexp.MustCompile(`Tx-Power[=:]\s*(\S+\s*\S*)`).FindStringSubmatch(out); m != nil {
			return strings.TrimSpace(m[1]), nil
		}
	}
	return "", nil
}

func randomLocalMAC() string {
	// Locally-administered, unicast (second hex digit of first octet has
	// bit 1 set, bit 0 clear): 02:xx:xx:xx:xx:xx.
	b := make([]byte, 5)
	_, _ = rand.Read(b) // crypto/rand.Read never returns an error
	return fmt.Sprintf("02:%02x:%02x:%02x:%02x:%02x", b[0], b[1], b[2], b[3], b[4])
}

var _ nic.Ops = (*Exec)(nil)
