package transport

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BreakerState mirrors the teacher's string-typed circuit breaker state
// (stellar-live-source/go/server/server.go's CircuitBreaker) as a proper
// enum.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker wraps a Sink, tripping Open after a run of consecutive
// failures and fast-failing sends until a cooldown elapses; it then goes
// HalfOpen and lets sends through until one succeeds and closes it
// (spec §4.5). The breaker keeps the teacher's
// Allow/RecordSuccess/RecordFailure shape and does no retrying itself;
// ConnectWithBackoff (below) retries Connect with `cenkalti/backoff/v4`'s
// exponential backoff with jitter instead of the teacher's hand-rolled
// jittered-doubling backoff (`calculateBackoff`).
type CircuitBreaker struct {
	sink Sink

	mu               sync.RWMutex
	failureThreshold int
	resetTimeout     time.Duration
	lastFailureTime  time.Time
	failureCount     int
	state            BreakerState
}

// NewCircuitBreaker wraps sink with a breaker that opens after
// failureThreshold consecutive failures and attempts a half-open probe
// after resetTimeout.
func NewCircuitBreaker(sink Sink, failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		sink:             sink,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            Closed,
	}
}

// Allow reports whether a send should be attempted right now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.RLock()
	state := cb.state
	lastFailure := cb.lastFailureTime
	cb.mu.RUnlock()

	if state == Closed {
		return true
	}
	if state == Open && time.Since(lastFailure) > cb.resetTimeout {
		cb.mu.Lock()
		cb.state = HalfOpen
		cb.mu.Unlock()
		return true
	}
	return state == HalfOpen
}

// RecordSuccess closes the breaker if it was probing in HalfOpen.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == HalfOpen {
		cb.state = Closed
	}
	cb.failureCount = 0
}

// RecordFailure counts a failure, opening the breaker past threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount++
	cb.lastFailureTime = time.Now()
	if cb.failureCount >= cb.failureThreshold {
		cb.state = Open
	}
}

// State returns the breaker's current state, for metrics/logging.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Send attempts msg through the wrapped sink, failing fast (without
// touching the sink) when the breaker is Open.
func (cb *CircuitBreaker) Send(ctx context.Context, msg []byte) error {
	if !cb.Allow() {
		return wrapConnection("transport.CircuitBreaker.Send", errCircuitOpen)
	}
	err := cb.sink.Send(ctx, msg)
	if err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// ConnectWithBackoff retries sink.Connect using an exponential backoff
// with jitter, capped at maxElapsed, instead of the teacher's hand-rolled
// `calculateBackoff` doubling.
func ConnectWithBackoff(ctx context.Context, sink Sink, maxElapsed time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed
	return backoff.Retry(func() error {
		return sink.Connect(ctx)
	}, backoff.WithContext(b, ctx))
}
