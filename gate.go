package poolx

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// gateCapacity is the fixed weight every gate's semaphore.Weighted is
// constructed with, regardless of the pool's actual max_size. Weighted has
// no public way to raise its size after construction, and Release panics
// if it would reduce the semaphore's held weight below zero — it can only
// give back weight that the semaphore actually holds. So the semaphore is
// always built oversized, and the unused headroom (gateCapacity - max_size)
// is immediately Acquired as permanently-held "reserve" weight at
// construction time. Growing max_size then Releases part of that reserve,
// which is always legal because the reserve was actually acquired up
// front — unlike releasing weight nobody ever acquired.
const gateCapacity = math.MaxInt32

// gate is the capacity gate described in spec.md §4.3: a counting
// semaphore whose permit count equals max_size, with cancel-safe acquire,
// lossless resize, and a close operation that fails every pending and
// future acquire with ErrClosed.
//
// It is built on golang.org/x/sync/semaphore.Weighted rather than a
// hand-rolled channel queue (spec.md §9 explicitly allows either).
// Shrinking uses TryAcquire to immediately forget as many currently-idle
// permits as it can, and records whatever it couldn't grab as a deficit
// that later releases pay down instead of returning to the semaphore.
type gate struct {
	sem *semaphore.Weighted

	mu      sync.Mutex
	maxSize int64
	reserve int64 // headroom held back from gateCapacity, not yet given to max_size
	deficit int64
	closed  bool
	closeCh chan struct{}

	waiting atomic.Int64
}

func newGate(maxSize int64) *gate {
	sem := semaphore.NewWeighted(gateCapacity)
	reserve := gateCapacity - maxSize
	if reserve < 0 || (reserve > 0 && !sem.TryAcquire(reserve)) {
		panic("poolx: requested max size exceeds the supported capacity")
	}
	return &gate{
		sem:     sem,
		maxSize: maxSize,
		reserve: reserve,
		closeCh: make(chan struct{}),
	}
}

func (g *gate) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// acquire blocks until a permit is available, ctx is done, or the gate is
// closed. It never consumes a permit if it returns an error: semaphore.Weighted
// only grants on success, and close is wired to cancel a derived context
// rather than to steal a granted permit back.
func (g *gate) acquire(ctx context.Context) error {
	if g.isClosed() {
		return ErrClosed
	}

	g.waiting.Add(1)
	defer g.waiting.Add(-1)

	acquireCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-g.closeCh:
			cancel()
		case <-stop:
		}
	}()

	if err := g.sem.Acquire(acquireCtx, 1); err != nil {
		if g.isClosed() {
			return ErrClosed
		}
		return ctx.Err()
	}

	// We may have been granted a permit in the same instant the gate was
	// closed; don't hand out capacity from a closed pool.
	if g.isClosed() {
		g.sem.Release(1)
		return ErrClosed
	}
	return nil
}

// release returns one permit. If a shrink left a deficit, the permit is
// forgotten (not handed back to the semaphore) and the deficit shrinks by
// one instead, per spec.md §4.3's resize-down contract. The returned bool
// tells the caller which happened, since the return protocol (spec.md
// §4.5) destroys the object instead of reinserting it when a permit is
// forgotten this way.
func (g *gate) release() (forgotten bool) {
	g.mu.Lock()
	if g.deficit > 0 {
		g.deficit--
		g.mu.Unlock()
		return true
	}
	g.mu.Unlock()
	g.sem.Release(1)
	return false
}

// resize adjusts the permit count to newMax, never blocking.
func (g *gate) resize(newMax int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if newMax > gateCapacity {
		newMax = gateCapacity
	}

	delta := newMax - g.maxSize
	g.maxSize = newMax

	if delta > 0 {
		if delta > g.reserve {
			delta = g.reserve
		}
		g.sem.Release(delta)
		g.reserve -= delta
		return
	}

	need := -delta
	for need > 0 && g.sem.TryAcquire(1) {
		need--
	}
	g.deficit += need
}

// close marks the gate closed and wakes every waiter blocked in acquire.
// Idempotent.
func (g *gate) close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()
	close(g.closeCh)
}

func (g *gate) maxSizeValue() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxSize
}

func (g *gate) waitingCount() int64 {
	return g.waiting.Load()
}
