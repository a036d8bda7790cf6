package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic/fakenic"
	"github.com/radio-control/rdoctl/internal/rto"
	"github.com/radio-control/rdoctl/internal/supervisor"
)

// scan_start absent, or not present in the filtered pattern, starts the
// Tuner at index 0 (§8 boundary behavior).
func TestRapid_ScanStart_AbsentOrUnmatched_StartsAtIndexZero(t *testing.T) {
	withFakeSocket(t)
	rapid.Check(t, func(t *rapid.T) {
		cfg := testConfig()

		if rapid.Bool().Draw(t, "setScanStart") {
			// 99 is never in testConfig's scan set, so this always misses.
			miss := chanspec.Channel{Ch: 99, Width: chanspec.NOHT}
			cfg.ScanStart = &miss
		}

		ops := fakenic.New()
		endpoint := supervisor.NewChanEndpoint(4)
		sink := rto.NewChannelSink(4)

		c, err := Setup(context.Background(), cfg, ops, endpoint, sink, time.Second, nil)
		require.NoError(t, err)

		ch, ok := ops.CurrentChannel(c.VNIC())
		require.True(t, ok)
		assert.Equal(t, cfg.Scan[0], ch)
	})
}
