package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/radio-control/rdoctl/internal/capture"
	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic"
	"github.com/radio-control/rdoctl/internal/rto"
	"github.com/radio-control/rdoctl/internal/supervisor"
	"github.com/radio-control/rdoctl/internal/tuner"
)

// statusQueueDepth bounds the Tuner→Controller status queue (§5: "a one-way
// bounded queue from Tuner to main loop").
const statusQueueDepth = 16

// Controller is the Radio Controller (§2, §4.3): it owns NIC setup and
// teardown, spawns the Tuner, drains the Frame Socket, and multiplexes
// Tuner events and control replies between the RTO sink and the Supervisor.
type Controller struct {
	role       string
	vnic       string
	phy        string
	origMAC    string
	spoofedMAC string

	ops      nic.Ops
	socket   capture.FrameSource
	endpoint supervisor.Endpoint
	rtoSink  rto.Sink

	descriptor  chanspec.RadioDescriptor
	readTimeout time.Duration
	progress    *progress

	statusCh chan tuner.Status
	tuner    *tuner.Tuner

	stateMu     sync.RWMutex
	cachedState tuner.State
}

func initialCachedState(paused bool) tuner.State {
	if paused {
		return tuner.StatePause
	}
	return tuner.StateScan
}

// VNIC returns the virtual monitor interface name this Controller owns.
func (c *Controller) VNIC() string { return c.vnic }

// Descriptor returns the radio descriptor computed at setup.
func (c *Controller) Descriptor() chanspec.RadioDescriptor { return c.descriptor }

// CachedState returns the Controller's cached view of the Tuner's state
// (§5: lags the Tuner's actual state by at most one event).
func (c *Controller) CachedState() tuner.State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.cachedState
}

func (c *Controller) setCachedState(s tuner.State) {
	c.stateMu.Lock()
	c.cachedState = s
	c.stateMu.Unlock()
}

// Run starts the Tuner and executes the Controller's main loop (§4.3),
// blocking until a STOP status is observed or the Frame Socket fails.
// It tears down the NIC before returning. ctx is passed to the socket reads,
// RTO publishes, Supervisor replies and teardown calls issued from within
// the loop; lifecycle is otherwise controlled exclusively via the Supervisor's control endpoint, per §5's
// "Radio Controller process ignores SIGINT/SIGTERM".
func (c *Controller) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.tuner.Run()
		close(done)
	}()

	clean := c.loop(ctx)
	c.tuner.Shutdown()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		// Bound the join per §5 ("no timeout on join; implementations
		// should bound it"); the Tuner goroutine is abandoned if it still
		// hasn't exited.
	}

	teardownClean := c.teardown(ctx)
	if !clean || !teardownClean {
		_ = c.endpoint.SendReply(ctx, supervisor.Reply{
			Kind: supervisor.ReplyWarn, Role: c.role,
			Detail1: supervisor.CategoryShutdown, Detail2: "Incomplete reset",
		})
	}
}

// loop is §4.3's main loop. It returns true for a clean STOP-driven exit,
// false for any failure exit (socket error, etc).
func (c *Controller) loop(ctx context.Context) bool {
	for {
		select {
		case s := <-c.statusCh:
			if exit, clean := c.dispatchStatus(ctx, s); exit {
				return clean
			}
			continue
		default:
		}

		frameCtx, cancel := context.WithTimeout(ctx, c.readTimeout)
		frame, err := c.socket.ReadFrame(frameCtx)
		cancel()

		switch {
		case err == nil:
			if c.CachedState() != tuner.StatePause {
				_ = c.rtoSink.Publish(ctx, rto.Event{VNIC: c.vnic, Timestamp: nowSeconds(), Tag: rto.TagFrame, Payload: frame})
			}
		case errors.Is(err, capture.ErrTimeout):
			// no frame this iteration; poll status again
		default:
			_ = c.rtoSink.Publish(ctx, rto.Event{VNIC: c.vnic, Timestamp: nowSeconds(), Tag: rto.TagFail, Payload: err})
			_ = c.endpoint.SendReply(ctx, supervisor.Reply{
				Kind: supervisor.ReplyErr, Role: c.role,
				Detail1: supervisor.CategorySocket, Detail2: err,
			})
			return false
		}
	}
}

// dispatchStatus implements §4.3's status-tag dispatch table. exit is true
// once a terminal status (STOP) has been observed.
func (c *Controller) dispatchStatus(ctx context.Context, s tuner.Status) (exit bool, clean bool) {
	switch s.Tag {
	case tuner.TagErr:
		if s.CmdID >= 0 {
			_ = c.endpoint.SendReply(ctx, supervisor.Reply{Kind: supervisor.ReplyCmdErr, Role: c.role, Detail1: s.CmdID, Detail2: s.Payload})
		}

	case tuner.TagFail:
		_ = c.rtoSink.Publish(ctx, rto.Event{VNIC: c.vnic, Timestamp: s.Timestamp, Tag: rto.TagFail, Payload: s.Payload})

	case tuner.TagState:
		if s.CmdID >= 0 {
			_ = c.endpoint.SendReply(ctx, supervisor.Reply{Kind: supervisor.ReplyCmdAck, Role: c.role, Detail1: s.CmdID, Detail2: s.Payload})
		}

	case tuner.TagHold:
		c.setCachedState(tuner.StateHold)
		_ = c.rtoSink.Publish(ctx, rto.Event{VNIC: c.vnic, Timestamp: s.Timestamp, Tag: rto.TagHold, Payload: s.Payload})
		if s.CmdID >= 0 {
			_ = c.endpoint.SendReply(ctx, supervisor.Reply{Kind: supervisor.ReplyCmdAck, Role: c.role, Detail1: s.CmdID, Detail2: s.Payload})
		}

	case tuner.TagScan:
		c.setCachedState(tuner.StateScan)
		_ = c.rtoSink.Publish(ctx, rto.Event{VNIC: c.vnic, Timestamp: nowSeconds(), Tag: rto.TagScan, Payload: s.Payload})
		if s.CmdID >= 0 {
			_ = c.endpoint.SendReply(ctx, supervisor.Reply{Kind: supervisor.ReplyCmdAck, Role: c.role, Detail1: s.CmdID, Detail2: s.Payload})
		}

	case tuner.TagListen:
		c.setCachedState(tuner.StateListen)
		_ = c.rtoSink.Publish(ctx, rto.Event{VNIC: c.vnic, Timestamp: nowSeconds(), Tag: rto.TagListen, Payload: s.Payload})
		if s.CmdID >= 0 {
			_ = c.endpoint.SendReply(ctx, supervisor.Reply{Kind: supervisor.ReplyCmdAck, Role: c.role, Detail1: s.CmdID, Detail2: s.Payload})
		}

	case tuner.TagPause:
		c.setCachedState(tuner.StatePause)
		_ = c.rtoSink.Publish(ctx, rto.Event{VNIC: c.vnic, Timestamp: nowSeconds(), Tag: rto.TagPause, Payload: ""})
		if s.CmdID >= 0 {
			_ = c.endpoint.SendReply(ctx, supervisor.Reply{Kind: supervisor.ReplyCmdAck, Role: c.role, Detail1: s.CmdID, Detail2: s.Payload})
		}

	case tuner.TagStop:
		c.setCachedState(tuner.StateStop)
		return true, true
	}
	return false, false
}

// teardown runs §4.1's compensating sequence for whatever Setup actually
// acquired: remove the virtual interface, restore nic as managed and up,
// reset any spoofed MAC, close the socket, and close the Controller's side
// of the control endpoint (spec.md:167 — the Controller closes only its
// side and tolerates a peer-closed condition on final writes). It returns
// false ("not clean") if any step failed, matching §4.1/§4.3's "clean
// reset" boolean.
func (c *Controller) teardown(ctx context.Context) bool {
	clean := c.progress.teardown(ctx, c.ops)
	if err := c.endpoint.Close(); err != nil {
		clean = false
	}
	return clean
}
