package poolx

import (
	"context"
	"fmt"
)

// Hook is a callback inserted into the create/recycle pipeline. Returning
// a non-nil error aborts the object currently being processed; the error
// becomes the abort reason. Hooks are expected to be cheap — long-running
// work in a hook is still bounded by the create/recycle timeout it runs
// inside of.
type Hook[T any] func(ctx context.Context, obj *T, metrics *Metrics) error

// hookChain runs a fixed, ordered sequence of hooks and turns the first
// abort (error return or recovered panic) into a *HookAbortError. Chains
// are frozen at Builder.Build time; nothing mutates them afterwards, so a
// chain needs no locking of its own.
type hookChain[T any] []Hook[T]

func (c hookChain[T]) run(ctx context.Context, obj *T, metrics *Metrics) (err error) {
	for _, hook := range c {
		if abortErr := runHook(ctx, hook, obj, metrics); abortErr != nil {
			return abortErr
		}
	}
	return nil
}

// runHook invokes a single hook, converting a panic into an abort rather
// than letting it escape Get. This is the documented resolution for
// spec.md's "hook panics" open question.
func runHook[T any](ctx context.Context, hook Hook[T], obj *T, metrics *Metrics) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HookAbortError{Reason: fmt.Errorf("panic: %v", r)}
		}
	}()

	if hookErr := hook(ctx, obj, metrics); hookErr != nil {
		if _, ok := hookErr.(*HookAbortError); ok {
			return hookErr
		}
		return &HookAbortError{Reason: hookErr}
	}
	return nil
}
