// Package poolx is a generic, asynchronous object pool: it lends
// expensive-to-create objects (typically live network connections) to
// concurrent callers and recycles them for reuse when released. See
// SPEC_FULL.md for the full design; in short, Get acquires a capacity
// permit, pops an idle object (running pre/post-recycle hooks and
// Manager.Recycle) or creates a fresh one (running the post-create hook),
// and hands back a Handle. Releasing the Handle returns the object to the
// idle store unless the pool has since been closed or shrunk out from
// under it, in which case the object is destroyed instead.
package poolx

import (
	"context"
	"sync/atomic"
	"time"
)

// Pool lends and recycles objects of type T. The zero value is not usable;
// construct one with NewBuilder(manager).Build().
type Pool[T any] struct {
	manager Manager[T]

	gate *gate
	idle *idleStore[T]

	size   atomic.Int64
	closed atomic.Bool

	defaults Timeouts

	postCreate  hookChain[T]
	preRecycle  hookChain[T]
	postRecycle hookChain[T]
}

// Get checks out an object using the pool's default timeouts. It is
// shorthand for GetWithTimeouts(ctx, Timeouts{}).
func (p *Pool[T]) Get(ctx context.Context) (*Handle[T], error) {
	return p.GetWithTimeouts(ctx, Timeouts{})
}

// GetWithTimeouts checks out an object, applying overrides merged over the
// pool's configured defaults (spec.md §4.5). See the package doc for the
// algorithm; each suspension point — waiting for a permit, Manager.Create,
// each hook, and Manager.Recycle — is bounded independently.
func (p *Pool[T]) GetWithTimeouts(ctx context.Context, overrides Timeouts) (*Handle[T], error) {
	if p.closed.Load() {
		return nil, newPoolError(KindClosed, ErrClosed)
	}

	timeouts := overrides.merge(p.defaults)

	waitCtx := ctx
	if timeouts.Wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeouts.Wait)
		defer cancel()
	}

	if err := p.gate.acquire(waitCtx); err != nil {
		if IsClosed(err) {
			return nil, newPoolError(KindClosed, ErrClosed)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newPoolError(KindTimeoutWait, err)
	}

	// A permit is held from here on. Every path below must either return
	// a Handle (the permit now belongs to it) or release the permit.
	for {
		if idleObj := p.idle.pop(); idleObj != nil {
			handle, retry, err := p.recycle(ctx, timeouts, idleObj)
			if err != nil {
				return nil, err
			}
			if retry {
				continue
			}
			return handle, nil
		}

		handle, err := p.create(ctx, timeouts)
		if err != nil {
			return nil, err
		}
		return handle, nil
	}
}

// recycle runs pre_recycle, Manager.Recycle, and post_recycle on an idle
// object already popped from the store. It reports retry=true when the
// caller should loop and try the next idle object (still holding the
// permit), or an error when the whole Get should fail.
func (p *Pool[T]) recycle(ctx context.Context, timeouts Timeouts, idleObj *object[T]) (handle *Handle[T], retry bool, err error) {
	recycleCtx := ctx
	if timeouts.Recycle > 0 {
		var cancel context.CancelFunc
		recycleCtx, cancel = context.WithTimeout(ctx, timeouts.Recycle)
		defer cancel()
	}

	if abortErr := p.preRecycle.run(recycleCtx, &idleObj.value, &idleObj.metrics); abortErr != nil {
		p.destroy(idleObj)
		return nil, true, nil
	}

	recycleErr := p.manager.Recycle(recycleCtx, &idleObj.value, &idleObj.metrics)
	if recycleCtx.Err() != nil {
		p.destroy(idleObj)
		p.gate.release()
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, newPoolError(KindTimeoutRecycle, recycleCtx.Err())
	}
	if recycleErr != nil {
		p.destroy(idleObj)
		return nil, true, nil
	}
	idleObj.metrics.recycled(time.Now())

	if abortErr := p.postRecycle.run(recycleCtx, &idleObj.value, &idleObj.metrics); abortErr != nil {
		p.destroy(idleObj)
		return nil, true, nil
	}

	if ctx.Err() != nil {
		// The caller walked away while recycle was in flight. spec.md §5 is
		// explicit here (unlike Create's case): the object is destroyed and
		// its permit released rather than handed to a handle nobody will
		// use.
		p.destroy(idleObj)
		p.gate.release()
		return nil, false, ctx.Err()
	}

	return &Handle[T]{pool: p, obj: idleObj}, false, nil
}

// create calls Manager.Create and runs the post_create hook, releasing
// the held permit on any failure.
func (p *Pool[T]) create(ctx context.Context, timeouts Timeouts) (*Handle[T], error) {
	createCtx := ctx
	if timeouts.Create > 0 {
		var cancel context.CancelFunc
		createCtx, cancel = context.WithTimeout(ctx, timeouts.Create)
		defer cancel()
	}

	value, err := p.manager.Create(createCtx)
	if err != nil {
		p.gate.release()
		if createCtx.Err() != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, newPoolError(KindTimeoutCreate, createCtx.Err())
		}
		return nil, newPoolError(KindBackend, err)
	}

	if createCtx.Err() != nil {
		// The caller walked away, or the create deadline passed, while
		// Create was in flight. Create ran to completion anyway (see
		// SPEC_FULL.md's resolution of this open question) but nobody will
		// use the object, so it is destroyed immediately rather than
		// counted into size.
		p.manager.Detach(&value)
		p.gate.release()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newPoolError(KindTimeoutCreate, createCtx.Err())
	}

	newObj := &object[T]{value: value, metrics: newMetrics(time.Now())}
	p.size.Add(1)

	if abortErr := p.postCreate.run(createCtx, &newObj.value, &newObj.metrics); abortErr != nil {
		p.manager.Detach(&newObj.value)
		p.size.Add(-1)
		p.gate.release()
		return nil, newPoolError(KindPostCreateHook, abortErr)
	}

	return &Handle[T]{pool: p, obj: newObj}, nil
}

// destroy removes an object from the pool's accounting: Manager.Detach
// runs and size is decremented. It does not touch the capacity gate —
// callers decide separately whether the associated permit is released or
// forgotten.
func (p *Pool[T]) destroy(obj *object[T]) {
	p.manager.Detach(&obj.value)
	p.size.Add(-1)
}

// handleReturn implements the drop-triggered return protocol of spec.md
// §4.5 for a Handle being released.
func (p *Pool[T]) handleReturn(obj *object[T]) {
	if p.closed.Load() {
		p.destroy(obj)
		return
	}

	if forgotten := p.gate.release(); forgotten {
		p.destroy(obj)
		return
	}
	p.idle.push(obj)
}

// handleTake implements Handle.Take: it bypasses the return protocol,
// runs Manager.Detach, decrements size, and releases the permit (absorbed
// by a shrink deficit if one is outstanding).
func (p *Pool[T]) handleTake(obj *object[T]) T {
	p.manager.Detach(&obj.value)
	p.size.Add(-1)
	p.gate.release()
	return obj.value
}

// Status returns a weakly-consistent occupancy snapshot (spec.md §4.8).
func (p *Pool[T]) Status() Status {
	return Status{
		MaxSize:   int(p.gate.maxSizeValue()),
		Size:      int(p.size.Load()),
		Available: p.idle.len(),
		Waiting:   int(p.gate.waitingCount()),
	}
}

// Resize adjusts max_size (spec.md §4.3, §4.7). It never blocks: growing
// adds permits immediately, shrinking forgets as many idle permits as it
// can right away and records the rest as a deficit that's paid down as
// outstanding objects are returned.
func (p *Pool[T]) Resize(newMax int) {
	if newMax < 0 {
		newMax = 0
	}
	p.gate.resize(int64(newMax))
}

// Retain applies predicate to every currently-idle object, destroying the
// ones that fail it (spec.md §4.7). Lent-out objects are unaffected.
func (p *Pool[T]) Retain(predicate func(obj *T, metrics *Metrics) bool) RetainResult {
	removed := p.idle.retain(predicate)
	for _, obj := range removed {
		p.destroy(obj)
	}
	return RetainResult{
		Retained: p.idle.len(),
		Removed:  len(removed),
	}
}

// Close marks the pool closed, fails every pending and future Get with
// ErrClosed, and destroys every currently-idle object. It is idempotent.
// Handles already checked out remain valid; releasing them afterward
// destroys their objects instead of reinserting them.
func (p *Pool[T]) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.gate.close()
	for _, obj := range p.idle.drain() {
		p.destroy(obj)
	}
}
