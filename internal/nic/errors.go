// Package nic defines NICOps: the driver-level facade the Radio Controller
// uses to list, create, tune, and tear down wireless interfaces (§1
// NICOps, §7 ConfigError/NICError). Concrete backends live in the execnic,
// netlinknic, and fakenic subpackages.
package nic

import (
	"errors"
	"fmt"
	"strings"
)

// Normalized facade errors. Every NICOps backend must map its own
// diagnostics onto one of these so the Tuner and Controller can react
// without knowing which backend is in play — the same table-driven
// normalization shape the teacher repo uses for vendor errors
// (internal/adapter/errors.go's NormalizeVendorError).
var (
	// ErrInvalidArgument means the request itself was bad (e.g. an
	// unsupported channel/width combination). Recoverable: the caller
	// drops the offending entry and continues.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound means the named interface, phy, or driver does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the operation could not reach the driver at all
	// (netlink socket closed, subprocess missing, device busy).
	ErrUnavailable = errors.New("unavailable")
)

// invalidArgumentTokens are substrings of `iw`/`ip`/netlink diagnostics that
// indicate a bad argument rather than a transport failure. Matched the same
// way the teacher's mapVendorErrorToCode matches vendor tokens: uppercase,
// substring, table-driven, no heuristics.
var invalidArgumentTokens = []string{
	"INVALID ARGUMENT",
	"INVALID-ARGUMENT",
	"EINVAL",
	"NOT SUPPORTED",
	"OPERATION NOT SUPPORTED",
}

var notFoundTokens = []string{
	"NO SUCH DEVICE",
	"ENODEV",
	"NOT FOUND",
	"NO SUCH FILE OR DIRECTORY",
	"ENOENT",
}

// Error wraps a NICOps backend failure, preserving the original diagnostic
// text alongside the normalized Code so callers can log detail while
// switching on Code.
type Error struct {
	Op       string // the NICOps method that failed, e.g. "add_virtual"
	Target   string // the interface/phy name involved
	Code     error  // one of ErrInvalidArgument, ErrNotFound, ErrUnavailable
	Original error  // the raw backend error
}

func (e *Error) Error() string {
	return fmt.Sprintf("nic: %s(%s): %v: %v", e.Op, e.Target, e.Code, e.Original)
}

func (e *Error) Unwrap() error {
	return e.Code
}

// IsInvalidArgument reports whether err (or anything it wraps) is a NICOps
// invalid-argument failure — the one NICError variant §4.1 step 8 and §7
// say is recoverable during scan-pattern filtering.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// Normalize maps a raw backend error to a NICOps *Error with a normalized
// Code, the same deterministic substring-table approach the teacher repo
// uses for vendor error mapping (no heuristics, no guessing).
func Normalize(op, target string, raw error) error {
	if raw == nil {
		return nil
	}
	msg := strings.ToUpper(raw.Error())
	code := ErrUnavailable
	for _, tok := range invalidArgumentTokens {
		if strings.Contains(msg, tok) {
			code = ErrInvalidArgument
			break
		}
	}
	if code == ErrUnavailable {
		for _, tok := range notFoundTokens {
			if strings.Contains(msg, tok) {
				code = ErrNotFound
				break
			}
		}
	}
	return &Error{Op: op, Target: target, Code: code, Original: raw}
}

// ConfigError represents a setup-time failure that can never be recovered
// from within setup itself (§7): missing NIC, empty scan pattern, unresolved
// phy, malformed antenna block. It always propagates as a startup failure
// after compensating undo has run.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

// NewConfigError builds a ConfigError with the given reason.
func NewConfigError(reason string) error {
	return &ConfigError{Reason: reason}
}
