package poolx

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Build when the assembled configuration
// can't produce a usable pool (e.g. a non-positive max size or a nil
// manager).
var ErrInvalidConfig = errors.New("poolx: invalid pool configuration")

// Builder assembles an immutable Pool configuration. Every With* method
// returns the same *Builder[T] so calls can be chained; nothing is
// validated until Build is called.
type Builder[T any] struct {
	manager Manager[T]

	maxSize int

	queueMode QueueMode

	defaults    Timeouts
	postCreate  hookChain[T]
	preRecycle  hookChain[T]
	postRecycle hookChain[T]
}

// NewBuilder starts a Builder for a pool backed by the given Manager.
// MaxSize defaults to 1; callers creating a pool of more than one object
// must call WithMaxSize explicitly.
func NewBuilder[T any](manager Manager[T]) *Builder[T] {
	return &Builder[T]{
		manager: manager,
		maxSize: 1,
	}
}

// WithMaxSize sets the pool's capacity (spec.md §4.3's max_size).
func (b *Builder[T]) WithMaxSize(n int) *Builder[T] {
	b.maxSize = n
	return b
}

// WithQueueMode selects FIFO (default) or LIFO idle-object selection.
func (b *Builder[T]) WithQueueMode(mode QueueMode) *Builder[T] {
	b.queueMode = mode
	return b
}

// WithWaitTimeout sets the pool-wide default deadline for acquiring a
// permit (spec.md §6's `::wait_timeout`). Zero (the default) means no
// deadline.
func (b *Builder[T]) WithWaitTimeout(d time.Duration) *Builder[T] {
	b.defaults.Wait = d
	return b
}

// WithCreateTimeout sets the pool-wide default deadline for Manager.Create
// (spec.md §6's `::create_timeout`). Zero (the default) means no deadline.
func (b *Builder[T]) WithCreateTimeout(d time.Duration) *Builder[T] {
	b.defaults.Create = d
	return b
}

// WithRecycleTimeout sets the pool-wide default deadline for
// Manager.Recycle, including its pre/post-recycle hooks (spec.md §6's
// `::recycle_timeout`). Zero (the default) means no deadline.
func (b *Builder[T]) WithRecycleTimeout(d time.Duration) *Builder[T] {
	b.defaults.Recycle = d
	return b
}

// WithDefaultTimeouts sets all three of the pool's default per-phase
// timeouts at once, for callers who would rather assemble a Timeouts
// value directly than call the three setters individually.
func (b *Builder[T]) WithDefaultTimeouts(t Timeouts) *Builder[T] {
	b.defaults = t
	return b
}

// WithPostCreate appends a post_create hook (spec.md §4.2): it runs after
// a fresh object is created and before it is handed out.
func (b *Builder[T]) WithPostCreate(hook Hook[T]) *Builder[T] {
	b.postCreate = append(b.postCreate, hook)
	return b
}

// WithPreRecycle appends a pre_recycle hook: it runs before
// Manager.Recycle on a reused object.
func (b *Builder[T]) WithPreRecycle(hook Hook[T]) *Builder[T] {
	b.preRecycle = append(b.preRecycle, hook)
	return b
}

// WithPostRecycle appends a post_recycle hook: it runs after a successful
// Manager.Recycle.
func (b *Builder[T]) WithPostRecycle(hook Hook[T]) *Builder[T] {
	b.postRecycle = append(b.postRecycle, hook)
	return b
}

// Build validates the configuration and returns a ready-to-use Pool.
func (b *Builder[T]) Build() (*Pool[T], error) {
	if b.manager == nil {
		return nil, fmt.Errorf("%w: manager is required", ErrInvalidConfig)
	}
	if b.maxSize <= 0 {
		return nil, fmt.Errorf("%w: max size must be > 0, got %d", ErrInvalidConfig, b.maxSize)
	}

	p := &Pool[T]{
		manager:     b.manager,
		gate:        newGate(int64(b.maxSize)),
		idle:        newIdleStore[T](b.queueMode),
		defaults:    b.defaults,
		postCreate:  b.postCreate,
		preRecycle:  b.preRecycle,
		postRecycle: b.postRecycle,
	}
	return p, nil
}
