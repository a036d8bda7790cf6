package fakenic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic"
)

func TestFake_AddDeleteVirtual(t *testing.T) {
	f := New()
	ctx := context.Background()

	require.NoError(t, f.AddVirtual(ctx, "phy0", "mon0", "monitor"))
	assert.True(t, f.HasVirtual("mon0"))

	ifaces, err := f.ListWirelessIfaces(ctx)
	require.NoError(t, err)
	assert.Contains(t, ifaces, "mon0")
	assert.Contains(t, ifaces, "wlan0")

	require.NoError(t, f.DeleteVirtual(ctx, "mon0"))
	assert.False(t, f.HasVirtual("mon0"))
}

func TestFake_SetChannel(t *testing.T) {
	f := New()
	ctx := context.Background()
	ch := chanspec.Channel{Ch: 6, Width: chanspec.NOHT}

	require.NoError(t, f.SetChannel(ctx, "wlan0", ch))
	got, ok := f.CurrentChannel("wlan0")
	require.True(t, ok)
	assert.Equal(t, ch, got)
}

func TestFake_SetChannel_InvalidArgument(t *testing.T) {
	f := New()
	f.InvalidChannels[13] = true
	ctx := context.Background()

	err := f.SetChannel(ctx, "wlan0", chanspec.Channel{Ch: 13, Width: chanspec.NOHT})
	require.Error(t, err)
	assert.True(t, nic.IsInvalidArgument(err))
}

func TestFake_HWAddrRoundTrip(t *testing.T) {
	f := New()
	ctx := context.Background()

	applied, err := f.SetHWAddr(ctx, "wlan0", "02:11:22:33:44:55")
	require.NoError(t, err)
	assert.Equal(t, "02:11:22:33:44:55", applied)
	assert.Equal(t, "02:11:22:33:44:55", f.HWAddr("wlan0"))

	require.NoError(t, f.ResetHWAddr(ctx, "wlan0"))
	assert.Equal(t, "02:00:00:00:00:01", f.HWAddr("wlan0"))
}

func TestFake_SetLink(t *testing.T) {
	f := New()
	ctx := context.Background()

	require.NoError(t, f.SetLink(ctx, "wlan0", false))
	assert.False(t, f.IsUp("wlan0"))
	require.NoError(t, f.SetLink(ctx, "wlan0", true))
	assert.True(t, f.IsUp("wlan0"))
}

func TestFake_GetPhyAndIfaces_NotFound(t *testing.T) {
	f := New()
	ctx := context.Background()

	_, _, err := f.GetPhyAndIfaces(ctx, "ghost0")
	require.Error(t, err)
	assert.True(t, nic.IsInvalidArgument(err) == false)
}
