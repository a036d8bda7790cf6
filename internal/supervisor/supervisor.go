// Package supervisor implements the Supervisor-facing side of the control
// endpoint (§5, §6): the bidirectional channel the Supervisor uses to send
// control tokens to the Tuner and receive cmdack/cmderr/err/warn replies
// from the Radio Controller. The Tuner only ever reads tokens; only the
// Controller ever writes replies.
package supervisor

import "context"

// ReplyKind enumerates the Supervisor reply tuple's first field (§6).
type ReplyKind string

const (
	ReplyCmdAck ReplyKind = "cmdack"
	ReplyCmdErr ReplyKind = "cmderr"
	ReplyErr    ReplyKind = "err"
	ReplyWarn   ReplyKind = "warn"
)

// Error categories used in the "err" reply's detail1 field (§4.3, §7).
const (
	CategorySocket   = "Socket"
	CategoryUnknown  = "Unknown"
	CategoryShutdown = "Shutdown"
)

// Reply is the Controller→Supervisor 4-tuple (kind, role, detail1, detail2)
// (§6). For cmdack/cmderr, Detail1 holds the cmd_id and Detail2 the
// payload. For err/warn, Detail1 holds a category and Detail2 the error or
// message text.
type Reply struct {
	Kind    ReplyKind
	Role    string
	Detail1 any
	Detail2 any
}

// Endpoint is the full bidirectional control endpoint: the Tuner's
// tuner.ControlEndpoint (ReadToken) plus the Controller's outbound Reply
// sink (SendReply). A Controller closes only its own side on teardown and
// tolerates a peer that has already gone away on the final write (§5).
type Endpoint interface {
	ReadToken(ctx context.Context) (string, error)
	SendReply(ctx context.Context, r Reply) error
	Close() error
}
