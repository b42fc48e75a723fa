package tether

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/tether/types"
)

// publisher delivers snapshots to the Updates channel and to subscribers.
//
// Snapshots are offered from many goroutines (the driver, tasks, cancellers)
// in no particular order. The publisher keeps only the highest version and a
// single pump goroutine sends it, so consumers never observe a version going
// backwards and a slow consumer sees the latest map instead of a backlog.
type publisher[K comparable, R any] struct {
	latest  atomic.Pointer[Snapshot[K, R]]
	signal  chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	out     chan Snapshot[K, R]

	subscribers      *xsync.Map[uint64, *snapshotSubscriber[K, R]]
	nextSubscriberID atomic.Uint64
	closed           atomic.Bool
	attached         atomic.Bool
	subscriberBuffer int

	metrics types.MetricsCollector
}

func newPublisher[K comparable, R any](updateBuffer, subscriberBuffer int, metrics types.MetricsCollector) *publisher[K, R] {
	return &publisher[K, R]{
		signal:           make(chan struct{}, 1),
		stop:             make(chan struct{}),
		stopped:          make(chan struct{}),
		out:              make(chan Snapshot[K, R], updateBuffer),
		subscribers:      xsync.NewMap[uint64, *snapshotSubscriber[K, R]](),
		subscriberBuffer: subscriberBuffer,
		metrics:          metrics,
	}
}

// offer records snap as the latest snapshot unless a newer one is already known.
func (p *publisher[K, R]) offer(snap Snapshot[K, R]) {
	for {
		cur := p.latest.Load()
		if cur != nil && cur.version >= snap.version {
			return
		}
		if p.latest.CompareAndSwap(cur, &snap) {
			break
		}
	}

	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// current returns the latest offered snapshot.
func (p *publisher[K, R]) current() Snapshot[K, R] {
	if snap := p.latest.Load(); snap != nil {
		return *snap
	}

	return Snapshot[K, R]{}
}

// run is the pump loop. Once close is called it flushes and closes the output
// channels. When ctx ends first it stops sending but keeps the channels open
// until close, which Run calls only after every task has returned.
func (p *publisher[K, R]) run(ctx context.Context) {
	defer close(p.stopped)
	defer p.closeAll()

	var sent uint64
	for {
		select {
		case <-p.signal:
			p.flush(ctx, &sent)
		case <-p.stop:
			p.flush(ctx, &sent)
			return
		case <-ctx.Done():
			<-p.stop
			return
		}
	}
}

// close requests a final flush and waits for the pump to exit.
func (p *publisher[K, R]) close() {
	close(p.stop)
	<-p.stopped
}

func (p *publisher[K, R]) flush(ctx context.Context, sent *uint64) {
	snap := p.latest.Load()
	if snap == nil || snap.version <= *sent {
		return
	}

	p.subscribers.Range(func(_ uint64, sub *snapshotSubscriber[K, R]) bool {
		if !sub.trySend(*snap) {
			p.metrics.RecordSubscriberDropped()
		}

		return true
	})

	if !p.attached.Load() {
		*sent = snap.version
		p.metrics.RecordSnapshotPublished(snap.version)

		return
	}

	select {
	case p.out <- *snap:
		*sent = snap.version
		p.metrics.RecordSnapshotPublished(snap.version)
	case <-ctx.Done():
	}
}

// updates attaches the Updates channel. Until then nothing is sent to it, so a
// caller that only uses Run, Current or Subscribe never blocks the pump.
func (p *publisher[K, R]) updates() <-chan Snapshot[K, R] {
	p.attached.Store(true)

	return p.out
}

func (p *publisher[K, R]) subscribe() (<-chan Snapshot[K, R], func()) {
	id := p.nextSubscriberID.Add(1)
	sub := &snapshotSubscriber[K, R]{ch: make(chan Snapshot[K, R], p.subscriberBuffer)}
	p.subscribers.Store(id, sub)

	// A subscriber registered while or after the pump shut down must still see a closed channel.
	if p.closed.Load() {
		p.removeSubscriber(id)
	}

	return sub.ch, func() { p.removeSubscriber(id) }
}

func (p *publisher[K, R]) removeSubscriber(id uint64) {
	if sub, ok := p.subscribers.LoadAndDelete(id); ok {
		sub.close()
	}
}

func (p *publisher[K, R]) closeAll() {
	p.closed.Store(true)
	close(p.out)
	p.subscribers.Range(func(id uint64, _ *snapshotSubscriber[K, R]) bool {
		p.removeSubscriber(id)
		return true
	})
}

// snapshotSubscriber is one Subscribe channel.
type snapshotSubscriber[K comparable, R any] struct {
	ch     chan Snapshot[K, R]
	mu     sync.Mutex
	closed bool
}

// trySend delivers snap without blocking. It reports false when the snapshot was dropped.
func (s *snapshotSubscriber[K, R]) trySend(snap Snapshot[K, R]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}

	select {
	case s.ch <- snap:
		return true
	default:
		// Subscriber is slow; it will get the next update.
		return false
	}
}

// close safely closes the subscriber's channel.
func (s *snapshotSubscriber[K, R]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
