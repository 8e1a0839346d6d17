package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskScheduler_Run(t *testing.T) {
	s := NewTaskScheduler(3)
	assert.Equal(t, 3, s.NumberOfThreads())

	var (
		running atomic.Int64
		peak    atomic.Int64
		done    atomic.Int64
	)
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			done.Add(1)
			running.Add(-1)
			return nil
		}
	}

	require.NoError(t, s.Run(context.Background(), tasks))
	assert.Equal(t, int64(20), done.Load())
	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestTaskScheduler_FirstErrorCancels(t *testing.T) {
	s := NewTaskScheduler(1)
	boom := errors.New("boom")

	var ran atomic.Int64
	tasks := []Task{
		func(context.Context) error { ran.Add(1); return boom },
		func(ctx context.Context) error { ran.Add(1); return ctx.Err() },
		func(ctx context.Context) error { ran.Add(1); return ctx.Err() },
	}

	err := s.Run(context.Background(), tasks)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), ran.Load())
}

func TestTaskScheduler_Closed(t *testing.T) {
	s := NewTaskScheduler(1)
	s.Close()

	err := s.Run(context.Background(), []Task{func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrSchedulerClosed)
}
