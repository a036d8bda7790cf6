package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LogToken_WritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir)
	require.NoError(t, err)

	l.LogToken("sniffer", "dyskt0", "hold:1:", 1, OutcomeAccepted, "")
	require.NoError(t, l.Close())

	f, err := os.Open(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var entry Entry
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "sniffer", entry.Role)
	assert.Equal(t, "dyskt0", entry.VNIC)
	assert.Equal(t, OutcomeAccepted, entry.Outcome)
	assert.Equal(t, 1, entry.CmdID)
}

func TestNewLogger_EmptyDir_Errors(t *testing.T) {
	_, err := NewLogger("")
	assert.Error(t, err)
}
