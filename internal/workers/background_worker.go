package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var (
	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("background task panicked")

	// ErrWorkerStopped is returned for tasks submitted after Shutdown.
	ErrWorkerStopped = errors.New("background worker stopped")
)

// BackgroundWorker runs named tasks on their own goroutines and stops them all on shutdown
type BackgroundWorker struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewBackgroundWorker creates a new BackgroundWorker. Tasks receive a context derived
// from ctx that is cancelled on Shutdown.
func NewBackgroundWorker(ctx context.Context) *BackgroundWorker {
	cctx, cancel := context.WithCancel(ctx)
	return &BackgroundWorker{
		ctx:    cctx,
		cancel: cancel,
	}
}

// Go starts a one-time task immediately. The returned channel receives the task's
// result once, then is closed. A panic inside the task is reported as ErrTaskPanicked.
func (bw *BackgroundWorker) Go(name string, handler func(ctx context.Context) error) <-chan error {
	result := make(chan error, 1)

	if !bw.track() {
		result <- fmt.Errorf("task %s: %w", name, ErrWorkerStopped)
		close(result)
		return result
	}

	go func() {
		defer bw.wg.Done()
		defer close(result)

		err := bw.run(name, handler)
		if err != nil {
			log.Printf("Background task '%s' error: %v", name, err)
		}
		result <- err
	}()

	return result
}

// AddPeriodicTask starts a task that runs immediately and then every interval until
// Shutdown.
func (bw *BackgroundWorker) AddPeriodicTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	if !bw.track() {
		log.Printf("Background task '%s' not started: %v", name, ErrWorkerStopped)
		return
	}

	go func() {
		defer bw.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := bw.run(name, handler); err != nil {
				log.Printf("Background task '%s' error: %v", name, err)
			}

			select {
			case <-bw.ctx.Done():
				log.Printf("Background task '%s' stopping", name)
				return
			case <-ticker.C:
			}
		}
	}()
}

// track registers a new task with the wait group unless the worker is shutting down.
func (bw *BackgroundWorker) track() bool {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.stopped {
		return false
	}
	bw.wg.Add(1)
	return true
}

// run invokes handler, converting a panic into an error.
func (bw *BackgroundWorker) run(name string, handler func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s: %w: %v", name, ErrTaskPanicked, r)
		}
	}()

	return handler(bw.ctx)
}

// Shutdown cancels every running task and waits for them to return
func (bw *BackgroundWorker) Shutdown() {
	bw.mu.Lock()
	bw.stopped = true
	bw.mu.Unlock()

	log.Println("Shutting down background tasks...")
	bw.cancel()
	bw.wg.Wait()
	log.Println("All background tasks stopped.")
}
