package relay

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/tlv"
)

// Relay ties a domain's validation policy, topic extraction config, and
// consumer registry together into the publish/fan-out path (spec §4.4).
// Fan-out preserves publish order per (source, domain): Publish is called
// serially by the domain's single forwarding goroutine upstream (the
// transport batcher owns concurrency on the send side, not the relay
// core), so the per-consumer ordering guarantee falls out of processing
// one message fully — policy check, topic extraction, delivery to every
// subscriber — before starting the next.
type Relay struct {
	Domain tlv.RelayDomain
	Policy ValidationPolicy
	Topics TopicConfig

	registry *Registry
	log      *zap.Logger
	metrics  *Metrics

	mu      sync.Mutex
	skipped uint64
	evicted uint64
}

// New constructs a Relay for domain, bound to registry and logger.
// metrics may be nil; a Relay with no attached Metrics simply skips
// instrument updates.
func New(domain tlv.RelayDomain, topics TopicConfig, registry *Registry, log *zap.Logger, m *Metrics) *Relay {
	return &Relay{
		Domain:   domain,
		Policy:   PolicyFor(domain),
		Topics:   topics,
		registry: registry,
		log:      log,
		metrics:  m,
	}
}

// Publish validates raw against the domain's policy, parses it, extracts
// its topic, and fans it out to every Connected consumer subscribed to
// that topic. A single consumer's send failure evicts that consumer (via
// its Failed state, reaped on the next CleanupDead sweep) without
// aborting delivery to the rest of the fan-out set — spec §4.4's "partial
// delivery on partial failure" requirement.
func (r *Relay) Publish(ctx context.Context, raw []byte) error {
	msg, err := tlv.Parse(raw, r.Policy.ParseMode())
	if err != nil {
		r.log.Warn("relay: dropping unparseable message", zap.Error(err), zap.String("domain", r.Domain.String()))
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		return err
	}

	if r.Policy.MaxMsgBytes > 0 && len(raw) > r.Policy.MaxMsgBytes {
		r.log.Warn("relay: dropping oversized message",
			zap.Int("size", len(raw)), zap.Int("limit", r.Policy.MaxMsgBytes))
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		return nil
	}

	topic, err := Extract(msg, r.Topics)
	if err != nil {
		r.log.Warn("relay: dropping message with no resolvable topic", zap.Error(err))
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		return err
	}

	for _, c := range r.registry.Subscribers(topic) {
		if sendErr := c.Send(ctx, raw); sendErr != nil {
			r.log.Warn("relay: consumer send failed, evicting", zap.String("consumer", c.ID), zap.Error(sendErr))
			r.mu.Lock()
			r.evicted++
			r.mu.Unlock()
		}
	}

	if r.metrics != nil {
		r.metrics.Published.WithLabelValues(r.Domain.String()).Inc()
	}
	return nil
}

// Stats returns (skipped, evicted) running counters for metrics wiring.
func (r *Relay) Stats() (skipped, evicted uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped, r.evicted
}
