package capture

import "context"

// FrameSource abstracts a bound capture socket so the Radio Controller's
// setup and run loop can be exercised against a fake in tests without a
// real AF_PACKET socket or monitor-mode interface. *Socket is the only
// production implementation.
type FrameSource interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}

var _ FrameSource = (*Socket)(nil)
