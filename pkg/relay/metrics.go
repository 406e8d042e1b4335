package relay

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dawsh2/torq/pkg/metrics"
)

// Metrics is the set of Prometheus instruments a Relay emits when
// performance.monitoring is enabled (spec §6.3's [performance] section).
// Skipped/Evicted are gauges, not counters, because Relay.Stats returns
// cumulative running totals rather than since-last-tick deltas — Set
// keeps repeated Observe calls idempotent instead of double-counting.
type Metrics struct {
	Published  *prometheus.CounterVec
	Skipped    *prometheus.GaugeVec
	Evicted    *prometheus.GaugeVec
	Consumers  *prometheus.GaugeVec
	PublishDur *prometheus.HistogramVec
}

// NewMetrics registers the relay's instruments against reg, labeled by
// domain so one process can host metrics for more than one relay.
func NewMetrics(reg *metrics.Registry) *Metrics {
	return &Metrics{
		Published:  reg.Counter("torq_relay_messages_published_total", "Messages successfully fanned out.", "domain"),
		Skipped:    reg.Gauge("torq_relay_messages_skipped_total", "Messages dropped by validation or topic extraction.", "domain"),
		Evicted:    reg.Gauge("torq_relay_consumers_evicted_total", "Consumers evicted after a failed send.", "domain"),
		Consumers:  reg.Gauge("torq_relay_consumers_connected", "Currently connected consumers.", "domain"),
		PublishDur: reg.Histogram("torq_relay_publish_duration_seconds", "Publish call latency.", metrics.LatencyBuckets, "domain"),
	}
}

// Observe updates m from a Relay's running counters and registry size.
// Called periodically (spec's cleanup-interval cadence is a convenient
// tick to piggyback this on).
func (m *Metrics) Observe(r *Relay) {
	domain := r.Domain.String()
	skipped, evicted := r.Stats()
	m.Skipped.WithLabelValues(domain).Set(float64(skipped))
	m.Evicted.WithLabelValues(domain).Set(float64(evicted))
	m.Consumers.WithLabelValues(domain).Set(float64(r.registry.Count()))
}
