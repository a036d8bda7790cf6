package rto

import "context"

// ChannelSink is an in-process Sink backed by a buffered Go channel — the
// default for a Radio Controller embedded in the same process as its RTO
// consumer, and the multi-producer queue of choice when several Controllers
// share one consumer goroutine fanning in from several ChannelSinks.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a ChannelSink with the given buffer size. A full
// buffer means Publish blocks, applying backpressure to the Controller's
// run loop the same way a bounded multi-producer queue would.
func NewChannelSink(bufSize int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, bufSize)}
}

// Events exposes the consumer side of the buffer.
func (c *ChannelSink) Events() <-chan Event {
	return c.events
}

func (c *ChannelSink) Publish(ctx context.Context, e Event) error {
	select {
	case c.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Sink = (*ChannelSink)(nil)
