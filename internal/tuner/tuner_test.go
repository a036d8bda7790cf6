package tuner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic/fakenic"
)

// fakeEndpoint is a ControlEndpoint backed by a token channel, used to drive
// the Tuner deterministically from tests.
type fakeEndpoint struct {
	tokens chan string
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{tokens: make(chan string, 8)}
}

func (f *fakeEndpoint) send(token string) { f.tokens <- token }

func (f *fakeEndpoint) ReadToken(ctx context.Context) (string, error) {
	select {
	case tok := <-f.tokens:
		return tok, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func testScan() chanspec.ScanPattern {
	return chanspec.ScanPattern{
		{Ch: 1, Width: chanspec.NOHT},
		{Ch: 6, Width: chanspec.NOHT},
		{Ch: 11, Width: chanspec.NOHT},
	}
}

func newTestTuner(t interface{ Helper() }, ep ControlEndpoint, statusCh chan Status, paused bool) (*Tuner, *fakenic.Fake) {
	t.Helper()
	f := fakenic.New()
	scan := testScan()
	dwell := chanspec.NewConstantDwellTable(len(scan), 0.05)
	tn := New("mon0", f, ep, statusCh, scan, dwell, 0, paused)
	return tn, f
}

func TestTuner_StartupScan_EmitsScan(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, _ := newTestTuner(t, ep, status, false)

	go tn.Run()
	defer tn.Shutdown()

	s := <-status
	assert.Equal(t, TagScan, s.Tag)
	assert.Equal(t, -1, s.CmdID)
}

func TestTuner_StartupPaused_EmitsPause(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, _ := newTestTuner(t, ep, status, true)

	go tn.Run()
	defer tn.Shutdown()

	s := <-status
	assert.Equal(t, TagPause, s.Tag)
	assert.Equal(t, -1, s.CmdID)
}

func TestTuner_StopToken_EmitsStopAndExits(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, _ := newTestTuner(t, ep, status, false)

	done := make(chan struct{})
	go func() { tn.Run(); close(done) }()

	<-status // startup SCAN
	ep.send(StopToken)

	s := <-status
	assert.Equal(t, TagStop, s.Tag)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after STOP")
	}
}

func TestTuner_RedundantScan_YieldsErrNoStateChange(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, _ := newTestTuner(t, ep, status, false)

	go tn.Run()
	defer tn.Shutdown()

	<-status // startup SCAN
	ep.send("scan:5:")

	s := <-status
	assert.Equal(t, TagErr, s.Tag)
	assert.Equal(t, 5, s.CmdID)
	assert.Equal(t, StateScan, tn.State())
}

func TestTuner_HoldThenScan_ReturnsToScanUnchanged(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, _ := newTestTuner(t, ep, status, false)

	go tn.Run()
	defer tn.Shutdown()

	<-status // startup SCAN
	ep.send("hold:1:")
	s := <-status
	assert.Equal(t, TagHold, s.Tag)
	assert.Equal(t, StateHold, tn.State())

	ep.send("scan:2:")
	s = <-status
	assert.Equal(t, TagScan, s.Tag)
	assert.Equal(t, StateScan, tn.State())
	assert.Equal(t, testScan(), s.Payload)
}

func TestTuner_Listen_SetsChannelAndState(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, nicFake := newTestTuner(t, ep, status, false)

	go tn.Run()
	defer tn.Shutdown()

	<-status // startup SCAN
	ep.send("listen:3:11-HT20")

	s := <-status
	require.Equal(t, TagListen, s.Tag)
	assert.Equal(t, 3, s.CmdID)
	assert.Equal(t, "11:HT20", s.Payload)
	assert.Equal(t, StateListen, tn.State())

	ch, ok := nicFake.CurrentChannel("mon0")
	require.True(t, ok)
	assert.Equal(t, chanspec.Channel{Ch: 11, Width: chanspec.HT20}, ch)
}

func TestTuner_BadCommand_YieldsCmderr(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, _ := newTestTuner(t, ep, status, false)

	go tn.Run()
	defer tn.Shutdown()

	<-status // startup SCAN
	ep.send("foo:9:x")

	s := <-status
	assert.Equal(t, TagErr, s.Tag)
	assert.Equal(t, 9, s.CmdID)
	assert.Equal(t, "invalid command foo", s.Payload)
}

func TestTuner_MalformedToken_YieldsErrWithCmdIDMinus1(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, _ := newTestTuner(t, ep, status, false)

	go tn.Run()
	defer tn.Shutdown()

	<-status // startup SCAN
	ep.send("noColons")

	s := <-status
	assert.Equal(t, TagErr, s.Tag)
	assert.Equal(t, -1, s.CmdID)
}

func TestTuner_DwellTimeout_AdvancesChannel(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, nicFake := newTestTuner(t, ep, status, false)

	go tn.Run()
	defer tn.Shutdown()

	<-status // startup SCAN, index 0 (channel 1)

	require.Eventually(t, func() bool {
		ch, ok := nicFake.CurrentChannel("mon0")
		return ok && ch.Ch == 6
	}, time.Second, 5*time.Millisecond)
}

type fakeAudit struct {
	entries []auditEntry
}

type auditEntry struct {
	role, vnic, token string
	cmdID             int
	outcome, detail   string
}

func (f *fakeAudit) LogToken(role, vnic, token string, cmdID int, outcome, detail string) {
	f.entries = append(f.entries, auditEntry{role, vnic, token, cmdID, outcome, detail})
}

func TestTuner_SetAudit_LogsAcceptedAndRejectedTokens(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	tn, _ := newTestTuner(t, ep, status, false)
	fa := &fakeAudit{}
	tn.SetAudit(fa, "sniffer")

	go tn.Run()
	defer tn.Shutdown()

	<-status // startup SCAN

	ep.send("hold:1:")
	<-status // HOLD

	ep.send("hold:2:") // redundant once already held
	<-status           // ERR

	require.Eventually(t, func() bool { return len(fa.entries) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "accepted", fa.entries[0].outcome)
	assert.Equal(t, "sniffer", fa.entries[0].role)
	assert.Equal(t, "mon0", fa.entries[0].vnic)
	assert.Equal(t, "rejected", fa.entries[1].outcome)
}

func TestTuner_ScanLengthOne_StaysAtIndexZero(t *testing.T) {
	ep := newFakeEndpoint()
	status := make(chan Status, 8)
	scan := chanspec.ScanPattern{{Ch: 6, Width: chanspec.NOHT}}
	dwell := chanspec.NewConstantDwellTable(1, 0.02)
	nicFake := fakenic.New()
	tn := New("mon0", nicFake, ep, status, scan, dwell, 0, false)

	go tn.Run()
	defer tn.Shutdown()

	<-status // startup SCAN

	require.Eventually(t, func() bool {
		ch, ok := nicFake.CurrentChannel("mon0")
		return ok && ch.Ch == 6
	}, time.Second, 5*time.Millisecond)
}
