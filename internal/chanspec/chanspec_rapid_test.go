package chanspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// ScanPattern length must equal DwellTable length and both must be
// non-empty throughout the Tuner's life (§8 invariants).
func TestRapid_ConstantDwellTable_MatchesScanLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(t, "n")
		dwellSeconds := rapid.Float64Range(0.01, 60).Draw(t, "dwellSeconds")

		scan := make(ScanPattern, n)
		for i := range scan {
			scan[i] = Channel{Ch: uint16(i + 1), Width: NOHT}
		}
		dwell := NewConstantDwellTable(len(scan), dwellSeconds)

		assert.Equal(t, len(scan), len(dwell))
		assert.Greater(t, len(dwell), 0)
		for _, d := range dwell {
			assert.Equal(t, dwellSeconds, d)
		}
	})
}

// DedupAndFilter never grows the input, never introduces duplicates, and
// every survivor is both supported and absent from pass.
func TestRapid_DedupAndFilter_SurvivorsAreSupportedAndNotPassed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		scan := make([]Channel, n)
		supported := make(map[uint16]bool)
		for i := range scan {
			ch := uint16(rapid.IntRange(1, 5).Draw(t, "ch"))
			scan[i] = Channel{Ch: ch, Width: NOHT}
			if rapid.Bool().Draw(t, "supported") {
				supported[ch] = true
			}
		}
		var pass ScanPattern
		if n > 0 && rapid.Bool().Draw(t, "hasPass") {
			pass = ScanPattern{scan[0]}
		}

		out := DedupAndFilter(scan, supported, pass)

		assert.LessOrEqual(t, len(out), n)
		seen := make(map[Channel]bool)
		for _, c := range out {
			assert.False(t, seen[c], "duplicate survivor %v", c)
			seen[c] = true
			assert.True(t, supported[c.Ch], "unsupported survivor %v", c)
			assert.False(t, pass.Contains(c), "passed channel survived %v", c)
		}
	})
}
