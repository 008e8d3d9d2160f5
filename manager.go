package poolx

import "context"

// Manager is the capability a caller supplies to a Pool: it knows how to
// create, validate, and tear down the objects of type T that the pool
// lends out. Create and Recycle may suspend; the pool only enforces the
// deadlines configured via Timeouts around them — a Manager that ignores
// ctx will simply run past its budgeted time, after which Get discards its
// result and fails with the matching timeout kind.
type Manager[T any] interface {
	// Create produces a fresh object. Create is called whenever the idle
	// store is empty and the pool is below capacity headroom.
	Create(ctx context.Context) (T, error)

	// Recycle validates or repairs a reused object before it is handed
	// back out. Returning a non-nil error marks the object dead; the pool
	// destroys it and tries the next idle object or creates a new one.
	Recycle(ctx context.Context, obj *T, metrics *Metrics) error

	// Detach is called at most once per object, whenever the pool removes
	// it for good: Handle.Take, Retain eviction, shrink, Close, a failed
	// or timed-out Recycle, or an aborting hook. It has no error
	// channel because by the time it runs the object is already gone as
	// far as the pool is concerned. Detach is optional — a Manager that
	// has nothing to clean up can implement it as a no-op.
	Detach(obj *T)
}

// ManagerFuncs adapts three plain functions into a Manager, for callers
// who would rather not declare a named type. DetachFunc may be nil.
type ManagerFuncs[T any] struct {
	CreateFunc  func(ctx context.Context) (T, error)
	RecycleFunc func(ctx context.Context, obj *T, metrics *Metrics) error
	DetachFunc  func(obj *T)
}

func (m ManagerFuncs[T]) Create(ctx context.Context) (T, error) {
	return m.CreateFunc(ctx)
}

func (m ManagerFuncs[T]) Recycle(ctx context.Context, obj *T, metrics *Metrics) error {
	if m.RecycleFunc == nil {
		return nil
	}
	return m.RecycleFunc(ctx, obj, metrics)
}

func (m ManagerFuncs[T]) Detach(obj *T) {
	if m.DetachFunc != nil {
		m.DetachFunc(obj)
	}
}
