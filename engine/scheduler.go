package engine

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run by the TaskScheduler.
type Task func(ctx context.Context) error

// TaskScheduler runs tasks on a fixed number of threads.
//
// Run returns the first task error; the context passed to the remaining tasks
// is canceled at that point so they can stop early.
type TaskScheduler struct {
	threads int
	closed  atomic.Bool
}

// NewTaskScheduler creates a scheduler with threads workers.
//
// Recommended sizing:
//   - CPU-bound builds: runtime.GOMAXPROCS(0) (the default for threads <= 0)
//   - Tests that need interleaving: a small fixed number
func NewTaskScheduler(threads int) *TaskScheduler {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	return &TaskScheduler{threads: threads}
}

// NumberOfThreads returns the pool size.
func (s *TaskScheduler) NumberOfThreads() int {
	return s.threads
}

// Run executes tasks with at most NumberOfThreads running at once and waits
// for all of them.
func (s *TaskScheduler) Run(ctx context.Context, tasks []Task) error {
	if s.closed.Load() {
		return ErrSchedulerClosed
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)
	for _, task := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Close rejects further Run calls. Running tasks are not interrupted.
func (s *TaskScheduler) Close() {
	s.closed.Store(true)
}
