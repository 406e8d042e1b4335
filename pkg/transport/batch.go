package transport

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DispatchMode selects how a Batcher processes queued jobs (spec §4.5).
type DispatchMode int

const (
	// Ordered processes jobs one at a time, in submission order.
	Ordered DispatchMode = iota
	// Throughput dispatches each job as an independent task, bounded only
	// by the concurrency permit semaphore.
	Throughput
)

// Priority classifies a submitted job. Critical bypasses the queue
// entirely and is sent inline; Low, Normal and High share the one queue
// and are dequeued in arrival order.
type Priority int

const (
	Low Priority = iota
	Normal
	High
	Critical
)

type job struct {
	msg      []byte
	priority Priority
	done     chan error
}

// Batcher is the concurrent batch processor from spec §4.5: a bounded
// job queue (sized to roughly 10x batch size so producers don't allocate
// unbounded backlog), a concurrency permit semaphore, and either ordered
// or throughput dispatch.
type Batcher struct {
	sink  Sink
	mode  DispatchMode
	queue chan job
	sem   *semaphore.Weighted

	cancel context.CancelFunc
	done   chan struct{}
}

// NewBatcher starts a Batcher against sink. batchSize scales the queue
// buffer (≈10x); maxConcurrency bounds in-flight sends in Throughput
// mode.
func NewBatcher(ctx context.Context, sink Sink, mode DispatchMode, batchSize, maxConcurrency int) *Batcher {
	queueSize := batchSize * 10
	if queueSize <= 0 {
		queueSize = 10
	}
	runCtx, cancel := context.WithCancel(ctx)
	b := &Batcher{
		sink:   sink,
		mode:   mode,
		queue:  make(chan job, queueSize),
		sem:    semaphore.NewWeighted(int64(maxConcurrency)),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.run(runCtx)
	return b
}

func (b *Batcher) run(ctx context.Context) {
	defer close(b.done)
	g, gctx := errgroup.WithContext(ctx)
	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return
		case j := <-b.queue:
			switch b.mode {
			case Ordered:
				j.done <- b.send(gctx, j.msg)
			case Throughput:
				if err := b.sem.Acquire(gctx, 1); err != nil {
					j.done <- err
					continue
				}
				jj := j
				g.Go(func() error {
					defer b.sem.Release(1)
					jj.done <- b.send(gctx, jj.msg)
					return nil
				})
			}
		}
	}
}

func (b *Batcher) send(ctx context.Context, msg []byte) error {
	return b.sink.Send(ctx, msg)
}

// Submit enqueues msg at the given priority, blocking if the queue is
// full (back-pressure, spec §5) unless priority is Critical, in which
// case it is sent inline without touching the queue.
func (b *Batcher) Submit(ctx context.Context, msg []byte, priority Priority) error {
	if priority == Critical {
		return b.send(ctx, msg)
	}

	j := job{msg: msg, priority: priority, done: make(chan error, 1)}
	select {
	case b.queue <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the Batcher's run loop and waits for in-flight jobs to
// drain.
func (b *Batcher) Close() {
	b.cancel()
	<-b.done
}
