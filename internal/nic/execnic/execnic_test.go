package execnic

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/nic"
)

// newTestExec returns an Exec whose run seam is stubbed by responses, keyed
// by the joined command line, the same overridable-boundary style used to
// keep setup.go's openSocket testable.
func newTestExec(responses map[string]string, errs map[string]error) *Exec {
	return &Exec{
		run: func(ctx context.Context, name string, args ...string) (string, error) {
			key := name
			for _, a := range args {
				key += " " + a
			}
			if err, ok := errs[key]; ok {
				return "", err
			}
			if out, ok := responses[key]; ok {
				return out, nil
			}
			return "", fmt.Errorf("unexpected command: %s", key)
		},
	}
}

const iwDevOutput = `phy#0
	Interface wlan0
		ifindex 3
		wdev 0x1
		addr 02:00:00:00:00:01
		type managed
phy#1
	Interface wlan1
		ifindex 4
		wdev 0x100000001
		addr 02:00:00:00:00:02
		type managed
`

func TestListWirelessIfaces_ParsesInterfaceNames(t *testing.T) {
	e := newTestExec(map[string]string{"iw dev": iwDevOutput}, nil)
	names, err := e.ListWirelessIfaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"wlan0", "wlan1"}, names)
}

func TestGetPhyAndIfaces_ResolvesPhyAndFiltersToIt(t *testing.T) {
	e := newTestExec(map[string]string{"iw dev": iwDevOutput}, nil)
	phy, ifaces, err := e.GetPhyAndIfaces(context.Background(), "wlan0")
	require.NoError(t, err)
	assert.Equal(t, "phy0", phy)
	require.Len(t, ifaces, 1)
	assert.Equal(t, "wlan0", ifaces[0].Name)
	assert.Equal(t, "02:00:00:00:00:01", ifaces[0].Addr)
}

func TestGetPhyAndIfaces_UnknownInterface_NotFound(t *testing.T) {
	e := newTestExec(map[string]string{"iw dev": iwDevOutput}, nil)
	_, _, err := e.GetPhyAndIfaces(context.Background(), "wlan9")
	require.Error(t, err)
	var nerr *nic.Error
	require.ErrorAs(t, err, &nerr)
	assert.ErrorIs(t, nerr, nic.ErrNotFound)
}

const iwChannelsOutput = `	* 2412 MHz [1] (20.0 dBm)
	* 2437 MHz [6] (20.0 dBm)
	* 2462 MHz [11] (20.0 dBm) (disabled)
	* 5180 MHz [36] (23.0 dBm)
`

func TestSupportedChannels_SkipsDisabledEntries(t *testing.T) {
	e := newTestExec(map[string]string{"iw phy phy0 channels": iwChannelsOutput}, nil)
	supported, err := e.SupportedChannels(context.Background(), "phy0")
	require.NoError(t, err)
	assert.True(t, supported[1])
	assert.True(t, supported[6])
	assert.True(t, supported[36])
	assert.False(t, supported[11])
}

func TestSetChannel_AppliesWidthArg(t *testing.T) {
	e := newTestExec(map[string]string{"iw dev mon0 set channel 6 HT40+": ""}, nil)
	err := e.SetChannel(context.Background(), "mon0", chanspec.Channel{Ch: 6, Width: chanspec.HT40PLUS})
	assert.NoError(t, err)
}

func TestSetChannel_InvalidArgument_NormalizesToErrInvalidArgument(t *testing.T) {
	e := newTestExec(nil, map[string]error{
		"iw dev mon0 set channel 14": fmt.Errorf("command failed: Invalid argument"),
	})
	err := e.SetChannel(context.Background(), "mon0", chanspec.Channel{Ch: 14})
	require.Error(t, err)
	assert.True(t, nic.IsInvalidArgument(err))
}

func TestDriverOf_ParsesEthtoolOutput(t *testing.T) {
	e := newTestExec(map[string]string{
		"ethtool -i wlan0": "driver: ath9k\nversion: 5.15.0\n",
	}, nil)
	driver, err := e.DriverOf(context.Background(), "wlan0")
	require.NoError(t, err)
	assert.Equal(t, "ath9k", driver)
}

func TestChipsetOf_KnownAndUnknownDrivers(t *testing.T) {
	e := newTestExec(nil, nil)
	c, err := e.ChipsetOf(context.Background(), "ath9k")
	require.NoError(t, err)
	assert.Equal(t, "Atheros", c)

	c, err = e.ChipsetOf(context.Background(), "some_other_driver")
	require.NoError(t, err)
	assert.Equal(t, "unknown", c)
}

func TestIWConfig_ParsesStandardsAndTxPower(t *testing.T) {
	e := newTestExec(map[string]string{
		"iwconfig wlan0": "wlan0  IEEE 802.11abgn  ESSID:off/any\n" +
			"       Tx-Power=20 dBm   Retry short limit:7\n",
	}, nil)
	standards, err := e.IWConfig(context.Background(), "wlan0", "Standards")
	require.NoError(t, err)
	assert.Equal(t, "abgn", standards)

	txPower, err := e.IWConfig(context.Background(), "wlan0", "Tx-Power")
	require.NoError(t, err)
	assert.Equal(t, "20 dBm", txPower)
}

func TestResetHWAddr_TogglesLinkDownThenUp(t *testing.T) {
	var calls []string
	e := &Exec{
		run: func(ctx context.Context, name string, args ...string) (string, error) {
			key := name
			for _, a := range args {
				key += " " + a
			}
			calls = append(calls, key)
			return "", nil
		},
	}
	err := e.ResetHWAddr(context.Background(), "wlan0")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ip link set wlan0 down",
		"ip link set wlan0 address permanent",
		"ip link set wlan0 up",
	}, calls)
}

func TestResetHWAddr_DownFailure_StopsBeforeReset(t *testing.T) {
	e := newTestExec(nil, map[string]error{
		"ip link set wlan0 down": fmt.Errorf("device busy"),
	})
	err := e.ResetHWAddr(context.Background(), "wlan0")
	assert.Error(t, err)
}

func TestSetHWAddr_EmptyMAC_GeneratesRandomLocal(t *testing.T) {
	var applied string
	e := &Exec{
		run: func(ctx context.Context, name string, args ...string) (string, error) {
			applied = args[len(args)-1]
			return "", nil
		},
	}
	mac, err := e.SetHWAddr(context.Background(), "wlan0", "")
	require.NoError(t, err)
	assert.Equal(t, applied, mac)
	assert.Regexp(t, `^02:`, mac)
}
