package supervisor

import (
	"context"
	"fmt"
)

// ChanEndpoint is an in-process Endpoint backed by Go channels: useful for
// embedding a Radio Controller directly in a Supervisor process without a
// network hop, and for tests.
type ChanEndpoint struct {
	tokens  chan string
	replies chan Reply
	closed  chan struct{}
}

// NewChanEndpoint returns a ChanEndpoint with the given token buffer size.
func NewChanEndpoint(bufSize int) *ChanEndpoint {
	return &ChanEndpoint{
		tokens:  make(chan string, bufSize),
		replies: make(chan Reply, bufSize),
		closed:  make(chan struct{}),
	}
}

// SendToken is the Supervisor side: push a control token to the Tuner.
func (c *ChanEndpoint) SendToken(ctx context.Context, token string) error {
	select {
	case c.tokens <- token:
		return nil
	case <-c.closed:
		return fmt.Errorf("supervisor: endpoint closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Replies is the Supervisor side: the channel of Controller→Supervisor
// replies.
func (c *ChanEndpoint) Replies() <-chan Reply {
	return c.replies
}

// ReadToken is the Tuner side (tuner.ControlEndpoint).
func (c *ChanEndpoint) ReadToken(ctx context.Context) (string, error) {
	select {
	case tok := <-c.tokens:
		return tok, nil
	case <-c.closed:
		return "", fmt.Errorf("supervisor: endpoint closed")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SendReply is the Controller side: deliver a reply to the Supervisor.
// Tolerates a closed endpoint (§5: "tolerates a peer-closed condition on
// final writes") by treating it as a no-op rather than an error.
func (c *ChanEndpoint) SendReply(ctx context.Context, r Reply) error {
	select {
	case c.replies <- r:
		return nil
	case <-c.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Replies channel full and no one is currently listening; drop
		// rather than block the Controller's dispatch loop indefinitely.
		return nil
	}
}

// Close closes the Controller's side. Safe to call more than once.
func (c *ChanEndpoint) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
		return nil
	}
}

var _ Endpoint = (*ChanEndpoint)(nil)
