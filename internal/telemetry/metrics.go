package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/radio-control/rdoctl/internal/rto"
	"github.com/radio-control/rdoctl/internal/tuner"
)

// Metrics is an rto.Sink that feeds the Prometheus exposition at §14's
// GET /metrics, grounded on the pack's prometheus/client_golang usage
// (madpsy-ka9q_ubersdr, lcalzada-xor-wmap) rather than the teacher, which
// has no Prometheus surface of its own.
type Metrics struct {
	framesTotal      prometheus.Counter
	channelHopsTotal prometheus.Counter
	failuresTotal    prometheus.Counter
	tunerState       *prometheus.GaugeVec
}

// NewMetrics registers the rdoctl_* collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rdoctl_frames_total",
			Help: "Total number of captured frames published to the RTO sink.",
		}),
		channelHopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rdoctl_channel_hops_total",
			Help: "Total number of SCAN events (entries into the scan state); dwell-timeout channel hops emit no event and are not counted.",
		}),
		failuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rdoctl_failures_total",
			Help: "Total number of FAIL events (NIC facade or Frame Socket failures) published to the RTO sink.",
		}),
		tunerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rdoctl_tuner_state",
			Help: "1 for the Tuner's current state, 0 for all others.",
		}, []string{"state"}),
	}
	reg.MustRegister(m.framesTotal, m.channelHopsTotal, m.failuresTotal, m.tunerState)
	for _, s := range []tuner.State{tuner.StateScan, tuner.StateHold, tuner.StatePause, tuner.StateListen, tuner.StateStop} {
		m.tunerState.WithLabelValues(string(s)).Set(0)
	}
	return m
}

// Publish implements rto.Sink, updating counters/gauges from the event tag.
func (m *Metrics) Publish(ctx context.Context, e rto.Event) error {
	switch e.Tag {
	case rto.TagFrame:
		m.framesTotal.Inc()
	case rto.TagFail:
		m.failuresTotal.Inc()
	case rto.TagScan:
		m.channelHopsTotal.Inc()
		m.setState(tuner.StateScan)
	case rto.TagHold:
		m.setState(tuner.StateHold)
	case rto.TagPause:
		m.setState(tuner.StatePause)
	case rto.TagListen:
		m.setState(tuner.StateListen)
	}
	return nil
}

func (m *Metrics) setState(active tuner.State) {
	for _, s := range []tuner.State{tuner.StateScan, tuner.StateHold, tuner.StatePause, tuner.StateListen, tuner.StateStop} {
		v := 0.0
		if s == active {
			v = 1
		}
		m.tunerState.WithLabelValues(string(s)).Set(v)
	}
}

var _ rto.Sink = (*Metrics)(nil)
