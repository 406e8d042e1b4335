package relay

import (
	"context"
	"sync"

	"github.com/dawsh2/torq/pkg/torqerr"
	"github.com/dawsh2/torq/pkg/transport"
)

// ConnState is a consumer connection's lifecycle state (spec §4.4):
// Disconnected -> Connecting -> Connected -> (Failed | Disconnected),
// with Disconnected as the only terminal state.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Failed
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Consumer is a (consumer_id, topics, transport_handle) triple (spec
// §4.4).
type Consumer struct {
	ID     string
	Topics map[string]bool
	Sink   transport.Sink

	mu    sync.Mutex
	state ConnState
}

func newConsumer(id string, topics []string, sink transport.Sink) *Consumer {
	t := make(map[string]bool, len(topics))
	for _, topic := range topics {
		t[topic] = true
	}
	return &Consumer{ID: id, Topics: t, Sink: sink, state: Disconnected}
}

// State returns the consumer's current connection state.
func (c *Consumer) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Consumer) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Send delivers msg to the consumer's sink, only while Connected. A
// failed send transitions the consumer to Failed, per spec §4.4's "no
// retry across the transport boundary by the relay" rule — recovery is
// the consumer's job, via the recovery package.
func (c *Consumer) Send(ctx context.Context, msg []byte) error {
	if c.State() != Connected {
		return torqerr.New(torqerr.Connection, "relay.Consumer.Send", "consumer is not connected")
	}
	if err := c.Sink.Send(ctx, msg); err != nil {
		c.setState(Failed)
		return err
	}
	return nil
}

// Registry is the relay's consumer registry: idempotent registration
// keyed on consumer_id, topic subscription bookkeeping, and dead-consumer
// cleanup (spec §4.4).
type Registry struct {
	maxTopicsPerConsumer int

	mu        sync.RWMutex
	consumers map[string]*Consumer
}

// NewRegistry returns an empty Registry bounding each consumer to
// maxTopicsPerConsumer subscriptions.
func NewRegistry(maxTopicsPerConsumer int) *Registry {
	return &Registry{maxTopicsPerConsumer: maxTopicsPerConsumer, consumers: make(map[string]*Consumer)}
}

// Register adds or replaces (idempotently, keyed on id) a consumer,
// transitioning it through Connecting to Connected.
func (r *Registry) Register(ctx context.Context, id string, topics []string, sink transport.Sink) (*Consumer, error) {
	if len(topics) > r.maxTopicsPerConsumer {
		return nil, torqerr.New(torqerr.Configuration, "relay.Registry.Register",
			"consumer exceeds max_topics_per_consumer")
	}

	c := newConsumer(id, topics, sink)
	c.setState(Connecting)
	if err := sink.Connect(ctx); err != nil {
		c.setState(Failed)
		return nil, err
	}
	c.setState(Connected)

	r.mu.Lock()
	r.consumers[id] = c
	r.mu.Unlock()
	return c, nil
}

// Unregister removes a consumer and disconnects its sink.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	c, ok := r.consumers[id]
	delete(r.consumers, id)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	c.setState(Disconnected)
	return c.Sink.Disconnect()
}

// Subscribers returns every Connected consumer subscribed to topic.
func (r *Registry) Subscribers(topic string) []*Consumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Consumer
	for _, c := range r.consumers {
		if c.State() == Connected && c.Topics[topic] {
			out = append(out, c)
		}
	}
	return out
}

// CleanupDead evicts every consumer in the Failed state, returning their
// IDs for metrics/logging.
func (r *Registry) CleanupDead() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []string
	for id, c := range r.consumers {
		if c.State() == Failed {
			_ = c.Sink.Disconnect()
			c.setState(Disconnected)
			delete(r.consumers, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Count returns the number of currently registered consumers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.consumers)
}
