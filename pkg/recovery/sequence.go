// Package recovery implements sequence gap/replay detection, the
// in-memory ring buffer of recent messages, and snapshot serialize/apply
// (spec §4.6).
package recovery

import "sync"

// Key identifies a consumer's sequence stream by the same (source,
// domain) pair the wire header uses to scope monotonicity (spec §3.2).
type Key struct {
	Source uint8
	Domain uint8
}

// Kind classifies an observed sequence relative to what was expected.
type Kind int

const (
	InOrder Kind = iota
	Gap
	Replay
)

// Observation is the result of feeding one received sequence number into
// a Tracker.
type Observation struct {
	Kind     Kind
	Expected uint64
	Received uint64
}

// Tracker holds, per (source, domain) key, the next expected sequence and
// computes gap/replay classification for each newly received sequence
// (spec §4.6).
type Tracker struct {
	mu       sync.Mutex
	expected map[Key]uint64
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{expected: make(map[Key]uint64)}
}

// Observe classifies seq for key. An InOrder observation advances the
// expected sequence by one; Gap and Replay observations leave it
// unchanged, so after a gap only the caller's Advance (once the missing
// range is recovered) moves the expected sequence past it.
func (t *Tracker) Observe(key Key, seq uint64) Observation {
	t.mu.Lock()
	defer t.mu.Unlock()

	expected, ok := t.expected[key]
	if !ok {
		// First message on this stream: whatever arrives establishes the
		// baseline.
		t.expected[key] = seq + 1
		return Observation{Kind: InOrder, Expected: seq, Received: seq}
	}

	switch {
	case seq == expected:
		t.expected[key] = expected + 1
		return Observation{Kind: InOrder, Expected: expected, Received: seq}
	case seq > expected:
		// Gap: do not advance past expected — the caller must recover
		// the missing range before the tracker should move forward.
		return Observation{Kind: Gap, Expected: expected, Received: seq}
	default:
		return Observation{Kind: Replay, Expected: expected, Received: seq}
	}
}

// Advance forcibly sets the expected next sequence for key, used after a
// successful recovery (ring replay or snapshot apply) closes a gap.
func (t *Tracker) Advance(key Key, nextExpected uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expected[key] = nextExpected
}

// ExpectedFor returns the next sequence number Observe expects for key.
func (t *Tracker) ExpectedFor(key Key) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.expected[key]
	return v, ok
}
