package workers_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickward/vesper/internal/workers"
)

func setupWorker(t *testing.T) *workers.BackgroundWorker {
	t.Helper()

	bw := workers.NewBackgroundWorker(context.Background())
	t.Cleanup(bw.Shutdown)
	return bw
}

func TestBackgroundWorker_Go(t *testing.T) {
	t.Parallel()
	bw := setupWorker(t)

	assert.NoError(t, <-bw.Go("ok", func(ctx context.Context) error { return nil }))

	failure := errors.New("failed")
	assert.ErrorIs(t, <-bw.Go("fail", func(ctx context.Context) error { return failure }), failure)
}

func TestBackgroundWorker_GoRecoversPanics(t *testing.T) {
	t.Parallel()
	bw := setupWorker(t)

	err := <-bw.Go("panics", func(ctx context.Context) error {
		panic("boom")
	})
	assert.ErrorIs(t, err, workers.ErrTaskPanicked)
	assert.Contains(t, err.Error(), "boom")
}

func TestBackgroundWorker_ShutdownCancelsTasks(t *testing.T) {
	t.Parallel()
	bw := workers.NewBackgroundWorker(context.Background())

	started := make(chan struct{})
	result := bw.Go("blocking", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	bw.Shutdown()

	assert.ErrorIs(t, <-result, context.Canceled)
}

func TestBackgroundWorker_GoAfterShutdown(t *testing.T) {
	t.Parallel()
	bw := workers.NewBackgroundWorker(context.Background())
	bw.Shutdown()

	var ran atomic.Bool
	err := <-bw.Go("late", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.ErrorIs(t, err, workers.ErrWorkerStopped)
	assert.False(t, ran.Load())
}

func TestBackgroundWorker_AddPeriodicTask(t *testing.T) {
	t.Parallel()
	bw := workers.NewBackgroundWorker(context.Background())

	var runs atomic.Int32
	bw.AddPeriodicTask("tick", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	bw.Shutdown()

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}
