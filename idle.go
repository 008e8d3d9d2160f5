package poolx

import (
	"container/list"
	"sync"
)

// QueueMode selects which idle object Get prefers next.
type QueueMode int

const (
	// FIFO hands out the least-recently-returned idle object first. This
	// is the default: it spreads load evenly across objects, which helps
	// surface a silently-failing backend sooner (every object gets
	// exercised and recycled on a regular cadence).
	FIFO QueueMode = iota
	// LIFO hands out the most-recently-returned idle object first,
	// favoring warm caches and a smaller working set at the cost of
	// leaving cold objects idle indefinitely under light load.
	LIFO
)

// object is one pooled value plus its metrics, owned either by the idle
// store or by exactly one Handle — never both.
type object[T any] struct {
	value   T
	metrics Metrics
}

// idleStore is the ordered sequence of currently-free objects. Every
// critical section it exposes (besides retain and drain) is O(1): push to the tail,
// pop from the configured end. No caller-supplied code ever runs while
// the lock is held.
type idleStore[T any] struct {
	mode QueueMode

	mu    sync.Mutex
	items *list.List // of *object[T]
}

func newIdleStore[T any](mode QueueMode) *idleStore[T] {
	return &idleStore[T]{mode: mode, items: list.New()}
}

// push inserts obj at the tail, i.e. as the most-recently-returned object.
func (s *idleStore[T]) push(obj *object[T]) {
	s.mu.Lock()
	s.items.PushBack(obj)
	s.mu.Unlock()
}

// pop removes and returns the next object per the store's queue mode, or
// nil if the store is empty.
func (s *idleStore[T]) pop() *object[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	var elem *list.Element
	switch s.mode {
	case LIFO:
		elem = s.items.Back()
	default:
		elem = s.items.Front()
	}
	if elem == nil {
		return nil
	}
	s.items.Remove(elem)
	return elem.Value.(*object[T])
}

// len reports the number of idle objects.
func (s *idleStore[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Len()
}

// retain applies predicate to every idle object, keeps the ones that pass
// in their original order, and returns the ones that failed it, which the
// caller must destroy (outside the store's lock, since destruction runs
// user code via Manager.Detach).
func (s *idleStore[T]) retain(predicate func(*T, *Metrics) bool) (removed []*object[T]) {
	s.mu.Lock()
	kept := list.New()
	for elem := s.items.Front(); elem != nil; elem = elem.Next() {
		obj := elem.Value.(*object[T])
		if predicate(&obj.value, &obj.metrics) {
			kept.PushBack(obj)
		} else {
			removed = append(removed, obj)
		}
	}
	s.items = kept
	s.mu.Unlock()
	return removed
}

// drain removes and returns every idle object, leaving the store empty.
func (s *idleStore[T]) drain() []*object[T] {
	s.mu.Lock()
	out := make([]*object[T], 0, s.items.Len())
	for elem := s.items.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*object[T]))
	}
	s.items.Init()
	s.mu.Unlock()
	return out
}
