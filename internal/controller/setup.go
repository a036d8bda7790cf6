package controller

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/radio-control/rdoctl/internal/audit"
	"github.com/radio-control/rdoctl/internal/capture"
	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic"
	"github.com/radio-control/rdoctl/internal/rto"
	"github.com/radio-control/rdoctl/internal/supervisor"
	"github.com/radio-control/rdoctl/internal/tuner"
)

// progress records how far Setup got, so teardown can run exactly the
// compensating steps that apply (§4.1, §9 "cleanup cascade" re-expressed as
// a single routine parameterised by how far setup progressed, rather than
// duplicated per failure arm).
type progress struct {
	nic, phy, vnicName string

	spoofed     bool
	vnicCreated bool
	socket      capture.FrameSource
}

// teardown executes §4.1's fixed compensating sequence for whatever part of
// progress actually happened: remove the virtual interface and re-add the
// original nic as managed, reset any spoofed MAC (after a setup failure as
// well as on a full run exit), bring nic up, and close the socket. Secondary
// failures are swallowed but reported via the returned clean flag (§4.1:
// "secondary failures in cleanup are swallowed but logged").
func (p *progress) teardown(ctx context.Context, ops nic.Ops) (clean bool) {
	clean = true
	if p.vnicCreated {
		if err := ops.DeleteVirtual(ctx, p.vnicName); err != nil {
			clean = false
		}
		if err := ops.AddVirtual(ctx, p.phy, p.nic, "managed"); err != nil {
			clean = false
		}
	}
	if p.spoofed {
		// ResetHWAddr handles taking the link down itself; the SetLink
		// below brings nic up whether or not ResetHWAddr restored it.
		if err := ops.ResetHWAddr(ctx, p.nic); err != nil {
			clean = false
		}
	}
	if err := ops.SetLink(ctx, p.nic, true); err != nil {
		clean = false
	}
	if p.socket != nil {
		if err := p.socket.Close(); err != nil {
			clean = false
		}
	}
	return clean
}

var dysktNameRe = regexp.MustCompile(`^dyskt(\d+)$`)

// nextVirtualName computes the smallest non-negative integer k such that
// "dyskt<k>" does not already appear in existing (§4.1 step 6).
func nextVirtualName(existing []string) string {
	used := make(map[int]bool, len(existing))
	for _, name := range existing {
		if m := dysktNameRe.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				used[n] = true
			}
		}
	}
	k := 0
	for used[k] {
		k++
	}
	return fmt.Sprintf("dyskt%d", k)
}

// openSocket binds the Frame Socket. It is a package-level var, in the same
// overridable-seam style as execnic.Exec's run field, so tests can swap in
// a fake FrameSource without a real monitor-mode interface.
var openSocket = func(iface string, readTimeout time.Duration) (capture.FrameSource, error) {
	return capture.Open(iface, readTimeout)
}

// Setup performs §4.1's ten-step atomic transaction with compensating undo.
// On success it returns a ready Controller; on any failure every resource
// acquired so far has already been released.
func Setup(ctx context.Context, cfg Config, ops nic.Ops, endpoint supervisor.Endpoint, sink rto.Sink, readTimeout time.Duration, auditLog *audit.Logger) (*Controller, error) {
	p := &progress{nic: cfg.NIC}
	var failErr error
	defer func() {
		if failErr != nil {
			p.teardown(ctx, ops)
		}
	}()

	// Step 1: nic must be a known wireless interface.
	ifaces, err := ops.ListWirelessIfaces(ctx)
	if err != nil {
		failErr = nic.NewConfigError("not found: " + cfg.NIC)
		return nil, failErr
	}
	found := false
	for _, n := range ifaces {
		if n == cfg.NIC {
			found = true
			break
		}
	}
	if !found {
		failErr = nic.NewConfigError("not found")
		return nil, failErr
	}

	// Step 2: resolve phy and capture the real MAC from the first iface.
	phy, phyIfaces, err := ops.GetPhyAndIfaces(ctx, cfg.NIC)
	if err != nil {
		failErr = err
		return nil, failErr
	}
	if len(phyIfaces) == 0 {
		failErr = nic.NewConfigError("unresolved phy")
		return nil, failErr
	}
	origMAC := phyIfaces[0].Addr
	p.phy = phy

	// Step 3: driver, chipset, standards, tx power, supported channels.
	driver, err := ops.DriverOf(ctx, cfg.NIC)
	if err != nil {
		failErr = err
		return nil, failErr
	}
	chipset, err := ops.ChipsetOf(ctx, driver)
	if err != nil {
		failErr = err
		return nil, failErr
	}
	standards, err := ops.IWConfig(ctx, cfg.NIC, "Standards")
	if err != nil {
		failErr = err
		return nil, failErr
	}
	txPowerStr, err := ops.IWConfig(ctx, cfg.NIC, "Tx-Power")
	if err != nil {
		failErr = err
		return nil, failErr
	}
	supported, err := ops.SupportedChannels(ctx, phy)
	if err != nil {
		failErr = err
		return nil, failErr
	}

	// Step 4: optional MAC spoofing, before any virtual interface exists.
	spoofedMAC := ""
	if cfg.Spoofed != "" {
		if err := ops.SetLink(ctx, cfg.NIC, false); err != nil {
			failErr = err
			return nil, failErr
		}
		target := cfg.Spoofed
		if target == "random" {
			target = ""
		}
		applied, err := ops.SetHWAddr(ctx, cfg.NIC, target)
		if err != nil {
			failErr = err
			return nil, failErr
		}
		spoofedMAC = applied
		p.spoofed = true
	}

	// Step 5: delete every pre-existing virtual interface on phy.
	for _, iface := range phyIfaces {
		if iface.Name == cfg.NIC {
			continue
		}
		if err := ops.DeleteVirtual(ctx, iface.Name); err != nil {
			failErr = err
			return nil, failErr
		}
	}

	// Step 6: create the new monitor-mode virtual interface and bring it up.
	vnic := nextVirtualName(ifaces)
	if err := ops.AddVirtual(ctx, phy, vnic, "monitor"); err != nil {
		failErr = err
		return nil, failErr
	}
	p.vnicCreated = true
	p.vnicName = vnic

	if err := ops.SetLink(ctx, vnic, true); err != nil {
		failErr = err
		return nil, failErr
	}

	// Step 7: bind the raw Frame Socket with a read timeout.
	sock, err := openSocket(vnic, readTimeout)
	if err != nil {
		failErr = err
		return nil, failErr
	}
	upTimestamp := nowSeconds()
	p.socket = sock

	// Step 8: filter the scan pattern to supported, non-pass channels, then
	// probe each survivor on the virtual interface.
	filtered := chanspec.DedupAndFilter(cfg.Scan, supported, cfg.Pass)
	var probed chanspec.ScanPattern
	for _, ch := range filtered {
		if err := ops.SetChannel(ctx, vnic, ch); err != nil {
			if nic.IsInvalidArgument(err) {
				continue
			}
			failErr = err
			return nil, failErr
		}
		probed = append(probed, ch)
	}
	if len(probed) == 0 {
		failErr = nic.NewConfigError("empty scan pattern")
		return nil, failErr
	}

	// Step 9: choose the starting index.
	startIndex := 0
	if cfg.ScanStart != nil {
		if idx := probed.IndexOf(*cfg.ScanStart); idx >= 0 {
			startIndex = idx
		}
	}
	if err := ops.SetChannel(ctx, vnic, probed[startIndex]); err != nil {
		failErr = err
		return nil, failErr
	}

	dwell := chanspec.NewConstantDwellTable(len(probed), cfg.DwellSeconds)

	descriptor := chanspec.RadioDescriptor{
		NIC: cfg.NIC, VNIC: vnic, Phy: phy, MAC: origMAC,
		Role: cfg.Role, Spoofed: spoofedMAC,
		Driver: driver, Chipset: chipset, Standards: standards,
		Channels: probed, TxPowerDbm: parseTxPower(txPowerStr),
		Desc: cfg.Desc, Antennas: cfg.Antennas,
	}

	// Step 10: create the status queue, construct the Tuner, emit UP.
	statusCh := make(chan tuner.Status, statusQueueDepth)
	tn := tuner.New(vnic, ops, endpoint, statusCh, probed, dwell, startIndex, cfg.Paused)
	if auditLog != nil {
		tn.SetAudit(auditLog, cfg.Role)
	}

	c := &Controller{
		role: cfg.Role, vnic: vnic, phy: phy, origMAC: origMAC, spoofedMAC: spoofedMAC,
		ops: ops, socket: sock, endpoint: endpoint, rtoSink: sink,
		descriptor:  descriptor,
		cachedState: initialCachedState(cfg.Paused),
		readTimeout: readTimeout, progress: p,
		statusCh: statusCh, tuner: tn,
	}

	if err := sink.Publish(ctx, rto.Event{VNIC: vnic, Timestamp: upTimestamp, Tag: rto.TagUp, Payload: descriptor}); err != nil {
		failErr = err
		return nil, failErr
	}

	return c, nil
}

func parseTxPower(s string) float64 {
	// "Tx-Power" strings are typically like "20 dBm"; best-effort parse of
	// the leading number, 0 on anything else.
	var n float64
	_, err := fmt.Sscanf(s, "%f", &n)
	if err != nil {
		return 0
	}
	return n
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
