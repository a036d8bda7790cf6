// Package tuner implements the Tuner (§2, §4.2): the single worker that
// owns channel selection, walks the scan list with dwell-timed waits,
// interprets control tokens from the Supervisor, and emits status events to
// the Radio Controller.
package tuner

import (
	"context"
	"fmt"
	"time"

	"github.com/radio-control/rdoctl/internal/audit"
	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic"
)

// ControlEndpoint is the Tuner's inbound control-token source (§6, §5).
// ReadToken blocks until a token arrives or ctx is done, returning ctx.Err()
// in the latter case.
type ControlEndpoint interface {
	ReadToken(ctx context.Context) (string, error)
}

// AuditSink records each control token the Tuner accepts or rejects (§6).
// Token is the raw wire token; outcome/detail mirror the status the Tuner
// just sent for it.
type AuditSink interface {
	LogToken(role, vnic, token string, cmdID int, outcome, detail string)
}

// Tuner is described in §2 and §4.2. Construct with New and run with Run,
// which blocks until a STOP token arrives or Shutdown is called.
type Tuner struct {
	vnic     string
	ops      nic.Ops
	endpoint ControlEndpoint
	status   chan<- Status

	scan  chanspec.ScanPattern
	dwell chanspec.DwellTable

	i     int
	state State

	stopCtx    context.Context
	stopCancel context.CancelFunc

	now   func() time.Time
	audit AuditSink
	role  string
}

// New constructs a Tuner. startIndex is the starting position in scan
// (§4.1 step 9); paused selects the initial state (§3).
func New(vnic string, ops nic.Ops, endpoint ControlEndpoint, status chan<- Status, scan chanspec.ScanPattern, dwell chanspec.DwellTable, startIndex int, paused bool) *Tuner {
	ctx, cancel := context.WithCancel(context.Background())
	state := StateScan
	if paused {
		state = StatePause
	}
	return &Tuner{
		vnic: vnic, ops: ops, endpoint: endpoint, status: status,
		scan: scan, dwell: dwell, i: startIndex, state: state,
		stopCtx: ctx, stopCancel: cancel,
		now: time.Now,
	}
}

// Shutdown sets the stop flag (§4.2, §5). Any control-endpoint wait the
// Tuner is blocked in unblocks; Run returns without emitting further status.
func (t *Tuner) Shutdown() {
	t.stopCancel()
}

func (t *Tuner) nowSeconds() float64 {
	return float64(t.now().UnixNano()) / 1e9
}

func (t *Tuner) stopRequested() bool {
	select {
	case <-t.stopCtx.Done():
		return true
	default:
		return false
	}
}

func (t *Tuner) send(s Status) {
	select {
	case t.status <- s:
	case <-t.stopCtx.Done():
	}
}

func (t *Tuner) blockingState() bool {
	return t.state == StatePause || t.state == StateHold || t.state == StateListen
}

func (t *Tuner) dwellDuration() time.Duration {
	return time.Duration(t.dwell[t.i] * float64(time.Second))
}

// Run is the Tuner's blocking main loop (§4.2). Startup emits PAUSE (then
// blocks, handled as the loop's first blocking wait) or SCAN.
func (t *Tuner) Run() {
	if t.state == StatePause {
		t.send(Status{Tag: TagPause, Timestamp: t.nowSeconds(), CmdID: -1, Payload: ""})
	} else {
		t.send(Status{Tag: TagScan, Timestamp: t.nowSeconds(), CmdID: -1, Payload: t.scan})
	}

	var remaining time.Duration
	for {
		if t.stopRequested() {
			return
		}

		infinite := t.blockingState()
		wait := remaining
		if !infinite && wait == 0 {
			wait = t.dwellDuration()
		}

		t0 := t.now()
		token, err := t.waitForToken(wait, infinite)
		if err != nil {
			if t.stopRequested() {
				return
			}
			if infinite {
				// Spurious wakeup while blocked with no timeout; nothing
				// to do but re-enter the wait.
				continue
			}
			t.advanceChannel()
			remaining = 0
			continue
		}

		ts := t.nowSeconds()
		if t.handleToken(token, ts, t0, &remaining) {
			return
		}
	}
}

func (t *Tuner) waitForToken(wait time.Duration, infinite bool) (string, error) {
	if infinite {
		return t.endpoint.ReadToken(t.stopCtx)
	}
	ctx, cancel := context.WithTimeout(t.stopCtx, wait)
	defer cancel()
	return t.endpoint.ReadToken(ctx)
}

// advanceChannel implements the timeout branch (§4.2): advance the scan
// index and tune to it. NIC-facade errors emit FAIL but never exit the loop.
func (t *Tuner) advanceChannel() {
	t.i = (t.i + 1) % len(t.scan)
	ch := t.scan[t.i]
	if err := t.ops.SetChannel(t.stopCtx, t.vnic, ch); err != nil {
		t.send(Status{Tag: TagFail, Timestamp: t.nowSeconds(), CmdID: -1, Payload: err})
	}
}

// handleToken implements the token branch (§4.2). It returns true when the
// loop should exit (STOP received).
func (t *Tuner) handleToken(token string, ts float64, t0 time.Time, remaining *time.Duration) bool {
	cmd, isStop, err := ParseToken(token)
	if isStop {
		t.logAudit(token, -1, audit.OutcomeAccepted, "STOP")
		t.send(Status{Tag: TagStop, Timestamp: ts, CmdID: -1, Payload: ""})
		return true
	}
	if err != nil {
		t.logAudit(token, -1, audit.OutcomeRejected, "invalid command format")
		t.send(Status{Tag: TagErr, Timestamp: ts, CmdID: -1, Payload: "invalid command format"})
		return false
	}

	// Preserve the current slot's remaining dwell across any interruption
	// that eventually resumes scanning (§4.2). Computed unconditionally,
	// matching the source: the "state" command has no special handling.
	*remaining = t.dwellDuration() - t.now().Sub(t0)

	switch cmd.Name {
	case "state":
		t.logAudit(token, cmd.CmdID, audit.OutcomeAccepted, "state")
		t.send(Status{Tag: TagState, Timestamp: ts, CmdID: cmd.CmdID, Payload: string(t.state)})

	case "scan":
		if t.state == StateScan {
			t.logAudit(token, cmd.CmdID, audit.OutcomeRejected, "redundant command")
			t.send(Status{Tag: TagErr, Timestamp: ts, CmdID: cmd.CmdID, Payload: "redundant command"})
		} else {
			t.state = StateScan
			t.logAudit(token, cmd.CmdID, audit.OutcomeAccepted, "scan")
			t.send(Status{Tag: TagScan, Timestamp: ts, CmdID: cmd.CmdID, Payload: t.scan})
		}

	case "hold":
		if t.state == StateHold {
			t.logAudit(token, cmd.CmdID, audit.OutcomeRejected, "redundant command")
			t.send(Status{Tag: TagErr, Timestamp: ts, CmdID: cmd.CmdID, Payload: "redundant command"})
		} else {
			t.state = StateHold
			t.logAudit(token, cmd.CmdID, audit.OutcomeAccepted, "hold")
			t.send(Status{Tag: TagHold, Timestamp: ts, CmdID: cmd.CmdID, Payload: t.scan[t.i].String()})
		}

	case "pause":
		if t.state == StatePause {
			t.logAudit(token, cmd.CmdID, audit.OutcomeRejected, "redundant command")
			t.send(Status{Tag: TagErr, Timestamp: ts, CmdID: cmd.CmdID, Payload: "redundant command"})
		} else {
			t.state = StatePause
			t.logAudit(token, cmd.CmdID, audit.OutcomeAccepted, "pause")
			t.send(Status{Tag: TagPause, Timestamp: ts, CmdID: cmd.CmdID, Payload: ""})
		}

	case "listen":
		ch, perr := parseListenParams(cmd.Params)
		if perr != nil {
			t.logAudit(token, cmd.CmdID, audit.OutcomeRejected, "invalid param format")
			t.send(Status{Tag: TagErr, Timestamp: ts, CmdID: cmd.CmdID, Payload: "invalid param format"})
		} else if serr := t.ops.SetChannel(t.stopCtx, t.vnic, ch); serr != nil {
			t.logAudit(token, cmd.CmdID, audit.OutcomeRejected, serr.Error())
			t.send(Status{Tag: TagErr, Timestamp: ts, CmdID: cmd.CmdID, Payload: serr})
		} else {
			t.state = StateListen
			t.logAudit(token, cmd.CmdID, audit.OutcomeAccepted, "listen "+ch.String())
			t.send(Status{Tag: TagListen, Timestamp: ts, CmdID: cmd.CmdID, Payload: ch.String()})
		}

	case "txpwr", "spoof":
		// Reserved, no effect (§1 Non-goals, §9: resolved as silent no-op).
		t.logAudit(token, cmd.CmdID, audit.OutcomeAccepted, "no-op")

	default:
		t.logAudit(token, cmd.CmdID, audit.OutcomeRejected, "invalid command "+cmd.Name)
		t.send(Status{Tag: TagErr, Timestamp: ts, CmdID: cmd.CmdID, Payload: fmt.Sprintf("invalid command %s", cmd.Name)})
	}

	return false
}

// State returns the Tuner's current control state. Safe to call only from
// the goroutine driving Run, or after Run has returned.
func (t *Tuner) State() State {
	return t.state
}

// SetAudit wires an AuditSink to log every accepted/rejected control token
// (§6). role labels the Entry.Role field; nil disables audit logging.
func (t *Tuner) SetAudit(a AuditSink, role string) {
	t.audit = a
	t.role = role
}

func (t *Tuner) logAudit(token string, cmdID int, outcome, detail string) {
	if t.audit == nil {
		return
	}
	t.audit.LogToken(t.role, t.vnic, token, cmdID, outcome, detail)
}
