package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	err := c.AcquireMemory(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	err = c.AcquireMemory(context.Background(), 40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Over the limit
	ok := c.TryAcquireMemory(20)
	assert.False(t, ok)
	assert.Equal(t, int64(90), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = c.AcquireMemory(ctx, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	err = c.AcquireMemory(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(90), c.PeakMemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	err := c.AcquireMemory(context.Background(), 1000)
	require.NoError(t, err)
	assert.True(t, c.TryAcquireMemory(1<<40))

	c.ReleaseMemory(1 << 40)
	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_NilIsUnlimited(t *testing.T) {
	var c *Controller

	assert.True(t, c.TryAcquireMemory(1<<20))
	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireRows(context.Background(), 1<<20))
	c.ReleaseWorker()
	assert.Zero(t, c.MemoryUsage())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxBuildWorkers: 2})

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))

	assert.False(t, c.TryAcquireWorker())

	c.ReleaseWorker()

	assert.True(t, c.TryAcquireWorker())
}

func TestController_UnlimitedWorkers(t *testing.T) {
	for _, n := range []int64{0, -3} {
		c := NewController(Config{MaxBuildWorkers: n})
		assert.Zero(t, c.Config().MaxBuildWorkers)

		for range 16 {
			require.NoError(t, c.AcquireWorker(context.Background()))
		}
		assert.True(t, c.TryAcquireWorker())
		for range 17 {
			c.ReleaseWorker()
		}
	}
}

func TestController_RowsLargerThanBurst(t *testing.T) {
	c := NewController(Config{BuildRowsPerSec: 1000})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 1500 rows with a burst of 1000 needs two waits, not an error.
	require.NoError(t, c.AcquireRows(ctx, 1500))
}

func TestController_RowsCanceled(t *testing.T) {
	c := NewController(Config{BuildRowsPerSec: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.AcquireRows(ctx, 10))
}
