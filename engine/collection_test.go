package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intChunk(start, n int) *Chunk {
	c := NewChunk([]LogicalType{BigInt}, n)
	for i := 0; i < n; i++ {
		c.AppendRow([]Value{Int(int64(start + i))})
	}
	return c
}

func TestColumnDataCollection_Append(t *testing.T) {
	c := NewColumnDataCollection([]LogicalType{BigInt}, 4)

	require.NoError(t, c.Append(intChunk(0, 3)))
	require.NoError(t, c.Append(intChunk(3, 6)))

	assert.Equal(t, 9, c.Count())
	assert.Equal(t, 3, c.ChunkCount())

	err := c.Append(NewChunk([]LogicalType{BigInt, Blob}, 0))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestColumnDataCollection_Combine(t *testing.T) {
	a := NewColumnDataCollection([]LogicalType{BigInt}, 4)
	b := NewColumnDataCollection([]LogicalType{BigInt}, 4)
	require.NoError(t, a.Append(intChunk(0, 5)))
	require.NoError(t, b.Append(intChunk(5, 5)))

	require.NoError(t, a.Combine(b))

	assert.Equal(t, 10, a.Count())
	assert.Zero(t, b.Count())
}

func TestColumnDataCollection_ParallelScan(t *testing.T) {
	c := NewColumnDataCollection([]LogicalType{BigInt}, 16)
	require.NoError(t, c.Append(intChunk(0, 1000)))

	state := c.InitializeParallelScan()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]int)
		rows atomic.Int64
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				chunk, ok := c.Scan(state)
				if !ok {
					return
				}
				rows.Add(int64(chunk.Size()))
				mu.Lock()
				for _, v := range chunk.Columns[0] {
					seen[v.I64]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), rows.Load())
	require.Len(t, seen, 1000)
	for v, n := range seen {
		assert.Equal(t, 1, n, "value %d", v)
	}
}
