package catalyst

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes dispatcher activity as Prometheus collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	eventsTracked prometheus.Counter
	eventsSent    prometheus.Counter
	eventsDropped *prometheus.CounterVec
	batches       *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	sendDuration  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		eventsTracked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalyst_events_tracked_total",
			Help: "Events accepted by Track",
		}),
		eventsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalyst_events_sent_total",
			Help: "Events acknowledged by the ingestion endpoint",
		}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalyst_events_dropped_total",
			Help: "Events discarded without acknowledgement",
		}, []string{"reason"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalyst_batches_total",
			Help: "Dispatch attempts by outcome",
		}, []string{"result"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalyst_queue_depth",
			Help: "Events waiting in the shared queue",
		}),
		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalyst_send_duration_seconds",
			Help:    "Latency of ingestion requests",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.eventsTracked, m.eventsSent, m.eventsDropped, m.batches, m.queueDepth, m.sendDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) tracked(depth int) {
	if m == nil {
		return
	}
	m.eventsTracked.Inc()
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) batch(result string, events int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(result).Inc()
	m.sendDuration.Observe(elapsed.Seconds())
	if result == "success" || result == "beacon" {
		m.eventsSent.Add(float64(events))
	}
}

func (m *Metrics) dropped(reason string, events int) {
	if m == nil || events == 0 {
		return
	}
	m.eventsDropped.WithLabelValues(reason).Add(float64(events))
}

func (m *Metrics) depth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
