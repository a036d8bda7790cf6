// Package audit implements an append-only JSONL trail of control tokens the
// Tuner accepted or rejected (§6, §11): a record a Supervisor operator can
// replay to reconstruct who told a Radio Controller to do what, and
// whether it took. Log rotation is backed by natefinch/lumberjack rather
// than the teacher's own hand-rolled (and unused) Logger.Rotate, since the
// teacher's sibling module already declares lumberjack as a dependency
// without ever wiring it (§12).
package audit

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
)

// Entry is a single accepted-or-rejected control token (§6's token grammar,
// §4.2's accept/reject outcomes).
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Role      string    `json:"role"`
	VNIC      string    `json:"vnic"`
	Token     string    `json:"token"`
	CmdID     int       `json:"cmdId"`
	Outcome   string    `json:"outcome"` // "accepted" or "rejected"
	Detail    string    `json:"detail,omitempty"`
}

// Outcome values recorded in Entry.Outcome.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Logger is an append-only JSONL audit trail, rotated by lumberjack.
type Logger struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

// NewLogger opens (creating if needed) an audit.jsonl file under dir,
// rotated at 10MB with 5 backups kept for 28 days.
func NewLogger(dir string) (*Logger, error) {
	if dir == "" {
		return nil, fmt.Errorf("audit: log directory is required")
	}
	return &Logger{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "audit.jsonl"),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		},
	}, nil
}

// LogToken records one control-token outcome.
func (l *Logger) LogToken(role, vnic, token string, cmdID int, outcome, detail string) {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Role:      role,
		VNIC:      vnic,
		Token:     token,
		CmdID:     cmdID,
		Outcome:   outcome,
		Detail:    detail,
	}
	l.write(entry)
}

func (l *Logger) write(entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(data)
}

// Close flushes and closes the underlying rotated file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
