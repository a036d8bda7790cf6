package rto

import "context"

// MultiSink fans one Controller's events out to several Sinks — e.g. the
// diagnostics telemetry hub, the Prometheus collector, and an external RTO
// collector, all from the single rto.Sink the Controller depends on.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink returns a Sink that publishes to every sink in order.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Publish calls every underlying Sink, returning the first error
// encountered (if any) after attempting all of them.
func (m *MultiSink) Publish(ctx context.Context, e Event) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Sink = (*MultiSink)(nil)
