package poolx

import (
	"errors"
	"fmt"
)

// Kind identifies the reason a pool operation failed.
type Kind int

const (
	// KindTimeoutWait means the wait deadline elapsed before a permit
	// could be acquired.
	KindTimeoutWait Kind = iota
	// KindTimeoutCreate means Manager.Create did not return before its
	// deadline.
	KindTimeoutCreate
	// KindTimeoutRecycle means Manager.Recycle did not return before its
	// deadline.
	KindTimeoutRecycle
	// KindBackend means Manager.Create returned an error.
	KindBackend
	// KindPostCreateHook means a post-create hook aborted.
	KindPostCreateHook
	// KindClosed means the pool was closed before or during the
	// operation.
	KindClosed
)

func (k Kind) String() string {
	switch k {
	case KindTimeoutWait:
		return "timeout waiting for a permit"
	case KindTimeoutCreate:
		return "timeout creating object"
	case KindTimeoutRecycle:
		return "timeout recycling object"
	case KindBackend:
		return "backend error"
	case KindPostCreateHook:
		return "post-create hook aborted"
	case KindClosed:
		return "pool closed"
	default:
		return "unknown pool error"
	}
}

// PoolError is returned by Get when a checkout cannot be completed. It
// wraps the underlying cause (a Manager error, a hook abort reason, or a
// context error) so callers can still errors.Is/errors.As through it.
// When the caller's own ctx is cancelled or expires first, Get returns
// ctx.Err() as is, not wrapped in a PoolError.
type PoolError struct {
	Kind Kind
	Err  error
}

func (e *PoolError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PoolError) Unwrap() error { return e.Err }

func newPoolError(kind Kind, err error) *PoolError {
	return &PoolError{Kind: kind, Err: err}
}

// ErrClosed is returned (wrapped in a *PoolError with Kind KindClosed)
// when an operation is attempted against a pool that has been closed.
var ErrClosed = errors.New("poolx: pool is closed")

// IsClosed reports whether err is, or wraps, ErrClosed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// Note: spec.md §7 also names a NoRuntimeSpecified error kind, for runtimes
// where a pool needs an explicit executor handle to arm a timeout. Go has
// no such concept — context.Context is always available wherever a
// deadline would be armed — so there is no corresponding Kind or sentinel
// here; see SPEC_FULL.md and DESIGN.md for this port's resolution.

// HookAbortError is the reason a hook gives for aborting create/recycle.
// Manager and hook authors can return any error from their callbacks; if
// the hook panics instead, the chain recovers the panic and wraps it in a
// HookAbortError so Get never panics on a caller-supplied callback.
type HookAbortError struct {
	Reason error
}

func (e *HookAbortError) Error() string {
	return fmt.Sprintf("hook aborted: %v", e.Reason)
}

func (e *HookAbortError) Unwrap() error { return e.Reason }
