package poolx

import "sync/atomic"

// Handle is a scoped guard granting exclusive access to one pooled
// object. Go has no deterministic destructors, so the return protocol
// that spec.md's design notes tie to "drop" is triggered explicitly here:
// callers must call Release (typically via defer) exactly once. Calling
// Release more than once is safe — the second call is a no-op — but
// forgetting to call it at all leaks the object and its permit for the
// lifetime of the pool, exactly as a forgotten `defer conn.Close()` would.
type Handle[T any] struct {
	pool     *Pool[T]
	obj      *object[T]
	released atomic.Bool
}

// Get returns a pointer to the held object.
func (h *Handle[T]) Get() *T { return &h.obj.value }

// Metrics returns the held object's metrics.
func (h *Handle[T]) Metrics() *Metrics { return &h.obj.metrics }

// Pool returns the pool this handle was checked out from.
func (h *Handle[T]) Pool() *Pool[T] { return h.pool }

// Release runs the return protocol (spec.md §4.5): if the pool has been
// closed, or a shrink left a capacity deficit, the object is destroyed and
// its permit forgotten; otherwise the object goes back to the idle store
// and the permit is released for the next waiter. Release is idempotent.
func (h *Handle[T]) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	h.pool.handleReturn(h.obj)
}

// Take extracts the raw object, bypassing the return protocol entirely:
// Manager.Detach runs, size is decremented, and the permit is released for
// the next waiter (or absorbed by a shrink deficit, exactly as on a normal
// return); the object never re-enters the idle store. Useful when the caller wants to
// assume ownership of the object for the rest of its own lifetime. Take
// is a no-op (returning the zero value) if the handle was already
// released.
func (h *Handle[T]) Take() T {
	if !h.released.CompareAndSwap(false, true) {
		var zero T
		return zero
	}
	return h.pool.handleTake(h.obj)
}
