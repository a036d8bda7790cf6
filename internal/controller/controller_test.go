package controller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/rdoctl/internal/capture"
	"github.com/radio-control/rdoctl/internal/nic/fakenic"
	"github.com/radio-control/rdoctl/internal/rto"
	"github.com/radio-control/rdoctl/internal/supervisor"
	"github.com/radio-control/rdoctl/internal/tuner"
)

// queuedSocket is a capture.FrameSource that yields one queued frame (or
// error) per ReadFrame call, falling back to blocking on ctx.Done() once
// drained — close enough to a real socket's "nothing arrived before the
// read timeout" behavior for exercising the Controller's run loop.
type queuedSocket struct {
	frames chan []byte
	errs   chan error
}

func newQueuedSocket() *queuedSocket {
	return &queuedSocket{frames: make(chan []byte, 8), errs: make(chan error, 8)}
}

func (q *queuedSocket) push(frame []byte) { q.frames <- frame }
func (q *queuedSocket) fail(err error)    { q.errs <- err }

func (q *queuedSocket) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case f := <-q.frames:
		return f, nil
	case err := <-q.errs:
		return nil, err
	case <-ctx.Done():
		return nil, capture.ErrTimeout
	}
}

func (q *queuedSocket) Close() error { return nil }

func newTestController(t *testing.T, cfg Config) (*Controller, *supervisor.ChanEndpoint, *rto.ChannelSink, *queuedSocket) {
	t.Helper()
	sock := newQueuedSocket()
	prev := openSocket
	openSocket = func(iface string, readTimeout time.Duration) (capture.FrameSource, error) {
		return sock, nil
	}
	t.Cleanup(func() { openSocket = prev })

	ops := fakenic.New()
	endpoint := supervisor.NewChanEndpoint(8)
	sink := rto.NewChannelSink(8)

	c, err := Setup(context.Background(), cfg, ops, endpoint, sink, 20*time.Millisecond, nil)
	require.NoError(t, err)
	return c, endpoint, sink, sock
}

func drainUntil(t *testing.T, replies <-chan supervisor.Reply, kind supervisor.ReplyKind, timeout time.Duration) supervisor.Reply {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case r := <-replies:
			if r.Kind == kind {
				return r
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a %s reply", kind)
		}
	}
}

// drainEventsUntil skips RTO events that precede the one under test (Setup's
// UP and the Tuner's startup SCAN are already queued in the sink).
func drainEventsUntil(t *testing.T, events <-chan rto.Event, tag rto.Tag, timeout time.Duration) rto.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case e := <-events:
			if e.Tag == tag {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a %s event", tag)
		}
	}
}

func TestController_Run_StopTokenExitsCleanly(t *testing.T) {
	c, endpoint, _, _ := newTestController(t, testConfig())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	require.NoError(t, endpoint.SendToken(context.Background(), "!STOP!"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after !STOP!")
	}
	assert.Equal(t, tuner.StateStop, c.CachedState())
}

func TestController_Run_HoldCommandAcksAndCachesState(t *testing.T) {
	c, endpoint, _, _ := newTestController(t, testConfig())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	require.NoError(t, endpoint.SendToken(context.Background(), "hold:1:"))
	r := drainUntil(t, endpoint.Replies(), supervisor.ReplyCmdAck, time.Second)
	assert.Equal(t, 1, r.Detail1)

	require.Eventually(t, func() bool {
		return c.CachedState() == tuner.StateHold
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, endpoint.SendToken(context.Background(), "!STOP!"))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after !STOP!")
	}
}

func TestController_Run_BadCommandYieldsCmdErr(t *testing.T) {
	c, endpoint, _, _ := newTestController(t, testConfig())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	require.NoError(t, endpoint.SendToken(context.Background(), "bogus:2:"))
	r := drainUntil(t, endpoint.Replies(), supervisor.ReplyCmdErr, time.Second)
	assert.Equal(t, 2, r.Detail1)

	require.NoError(t, endpoint.SendToken(context.Background(), "!STOP!"))
	<-done
}

func TestController_Run_PublishesFrameEvents(t *testing.T) {
	c, endpoint, sink, sock := newTestController(t, testConfig())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	sock.push([]byte{0x01, 0x02, 0x03})

	e := drainEventsUntil(t, sink.Events(), rto.TagFrame, time.Second)
	assert.Equal(t, rto.TagFrame, e.Tag)

	require.NoError(t, endpoint.SendToken(context.Background(), "!STOP!"))
	<-done
}

func TestController_Run_SocketFailureSendsErrReplyAndExits(t *testing.T) {
	c, endpoint, sink, sock := newTestController(t, testConfig())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	sock.fail(fmt.Errorf("capture: recv on dyskt0: device removed"))

	r := drainUntil(t, endpoint.Replies(), supervisor.ReplyErr, time.Second)
	assert.Equal(t, supervisor.CategorySocket, r.Detail1)

	e := drainEventsUntil(t, sink.Events(), rto.TagFail, time.Second)
	assert.Equal(t, rto.TagFail, e.Tag)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after a socket failure")
	}
}
