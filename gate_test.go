package poolx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGate_AcquireRelease_RoundTrips(t *testing.T) {
	t.Parallel()
	g := newGate(2)
	ctx := context.Background()

	require.NoError(t, g.acquire(ctx))
	require.NoError(t, g.acquire(ctx))

	acquired := make(chan struct{})
	go func() {
		require.NoError(t, g.acquire(context.Background()))
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("third acquire must block while both permits are held")
	case <-time.After(30 * time.Millisecond):
	}

	g.release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("acquire never unblocked after release")
	}
}

func TestGate_AcquireRespectsContextCancellation(t *testing.T) {
	t.Parallel()
	g := newGate(1)
	require.NoError(t, g.acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- g.acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("acquire did not observe cancellation")
	}

	// The cancelled acquire must not have consumed the permit: a fresh
	// acquire should succeed immediately.
	require.NoError(t, g.acquire(context.Background()))
}

func TestGate_AcquireRespectsDeadline(t *testing.T) {
	t.Parallel()
	g := newGate(1)
	require.NoError(t, g.acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := g.acquire(ctx)
	require.Error(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGate_CloseWakesWaitersWithErrClosed(t *testing.T) {
	t.Parallel()
	g := newGate(1)
	require.NoError(t, g.acquire(context.Background()))

	errCh := make(chan error, 1)
	go func() { errCh <- g.acquire(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	g.close()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("close did not wake the waiter")
	}
}

func TestGate_AcquireAfterCloseFailsImmediately(t *testing.T) {
	t.Parallel()
	g := newGate(1)
	g.close()
	require.ErrorIs(t, g.acquire(context.Background()), ErrClosed)
}

func TestGate_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	g := newGate(1)
	g.close()
	require.NotPanics(t, g.close)
}

func TestGate_ResizeGrowReleasesNewPermitsImmediately(t *testing.T) {
	t.Parallel()
	g := newGate(1)
	require.NoError(t, g.acquire(context.Background()))

	g.resize(3)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, g.acquire(ctx))
	require.NoError(t, g.acquire(ctx))

	ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel2()
	require.Error(t, g.acquire(ctx2), "must not exceed the resized capacity")
}

func TestGate_ResizeShrink_ForgetsIdlePermitsImmediatelyAndRecordsDeficit(t *testing.T) {
	t.Parallel()
	g := newGate(4)
	// All 4 permits currently idle (unacquired).
	g.resize(1)

	// Only 1 permit should now be acquirable.
	require.NoError(t, g.acquire(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.Error(t, g.acquire(ctx))
}

func TestGate_ResizeShrinkWithOutstandingPermits_PaysDownDeficitOnRelease(t *testing.T) {
	t.Parallel()
	g := newGate(4)
	require.NoError(t, g.acquire(context.Background()))
	require.NoError(t, g.acquire(context.Background()))
	require.NoError(t, g.acquire(context.Background()))
	require.NoError(t, g.acquire(context.Background()))
	// All 4 permits are held; none are idle for TryAcquire to forget, so
	// shrinking to 1 leaves a deficit of 3.
	g.resize(1)

	// Releasing 3 of them should be absorbed by the deficit and must not
	// reopen capacity.
	f1 := g.release()
	f2 := g.release()
	f3 := g.release()
	require.True(t, f1)
	require.True(t, f2)
	require.True(t, f3)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.Error(t, g.acquire(ctx), "deficit must absorb the first 3 releases")

	// The 4th release is the real one: it must return an actual permit.
	f4 := g.release()
	require.False(t, f4)
	require.NoError(t, g.acquire(context.Background()))
}

func TestGate_ResizeGrowAfterShrinkUnderLoadDoesNotPanic(t *testing.T) {
	t.Parallel()
	g := newGate(4)
	require.NoError(t, g.acquire(context.Background()))
	require.NoError(t, g.acquire(context.Background()))
	require.NoError(t, g.acquire(context.Background()))
	require.NoError(t, g.acquire(context.Background()))

	// Shrinking below the number of currently-held permits leaves the
	// whole amount as a deficit (nothing idle for TryAcquire to grab).
	// Growing back before that deficit is paid down must not ask the
	// semaphore to release weight it never acquired.
	require.NotPanics(t, func() { g.resize(1) })
	require.NotPanics(t, func() { g.resize(4) })

	// The shrink's deficit of 3 survives the grow back to 4 (resize never
	// clears a deficit itself, only release() pays it down); the first 3
	// returns are absorbed by it, and only the 4th is a real release.
	require.True(t, g.release())
	require.True(t, g.release())
	require.True(t, g.release())
	require.False(t, g.release())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, g.acquire(ctx))
	require.NoError(t, g.acquire(ctx))
	require.NoError(t, g.acquire(ctx))
	require.NoError(t, g.acquire(ctx))
}

func TestGate_ResizeSameValueIsANoop(t *testing.T) {
	t.Parallel()
	g := newGate(2)
	g.resize(2)
	require.Equal(t, int64(2), g.maxSizeValue())
	require.NoError(t, g.acquire(context.Background()))
	require.NoError(t, g.acquire(context.Background()))
}

func TestGate_WaitingCountTracksBlockedAcquirers(t *testing.T) {
	t.Parallel()
	g := newGate(1)
	require.NoError(t, g.acquire(context.Background()))
	require.Equal(t, int64(0), g.waitingCount())

	var wg sync.WaitGroup
	const n = 3
	release := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				<-release
				cancel()
			}()
			_ = g.acquire(ctx)
		}()
	}

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int64(n), g.waitingCount())
	close(release)
	wg.Wait()
	require.Equal(t, int64(0), g.waitingCount())
}
