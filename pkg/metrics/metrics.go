// Package metrics provides the shared Prometheus registration surface
// relays and adapters hang their periodic counters/gauges/histograms on
// (spec §4.4/§4.7 "performance.monitoring").
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry wraps a prometheus.Registry so callers don't each reach for
// the global default registry — every relay/adapter process owns one.
type Registry struct {
	reg *prometheus.Registry
}

// New returns an empty Registry; no process or Go runtime collectors are
// registered on it.
func New() *Registry {
	r := prometheus.NewRegistry()
	return &Registry{reg: r}
}

// Prometheus exposes the underlying *prometheus.Registry, e.g. for
// wiring into an HTTP handler via promhttp.HandlerFor.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// Counter registers and returns a new counter, panicking on a duplicate
// name (a programmer error caught at process startup, not a runtime
// condition to recover from).
func (r *Registry) Counter(name, help string, labelNames ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labelNames)
	r.reg.MustRegister(c)
	return c
}

// Gauge registers and returns a new gauge.
func (r *Registry) Gauge(name, help string, labelNames ...string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labelNames)
	r.reg.MustRegister(g)
	return g
}

// Histogram registers and returns a new histogram using buckets suited
// for sub-millisecond to multi-second relay/adapter latencies.
func (r *Registry) Histogram(name, help string, buckets []float64, labelNames ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labelNames)
	r.reg.MustRegister(h)
	return h
}

// LatencyBuckets spans 100us to ~1.6s, doubling — wide enough to cover
// both the relay forwarding hot path and an adapter's upstream RTT.
var LatencyBuckets = prometheus.ExponentialBuckets(0.0001, 2, 15)
