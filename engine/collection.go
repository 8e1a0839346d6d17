package engine

import (
	"fmt"
	"sync/atomic"
)

// ColumnDataCollection is an append-only collection of fixed-capacity chunks.
//
// Appends and Combine are not synchronized; callers guard a shared collection
// themselves. Parallel scans over a collection that is no longer appended to
// are safe.
type ColumnDataCollection struct {
	types    []LogicalType
	capacity int
	chunks   []*Chunk
	count    int
}

// NewColumnDataCollection returns an empty collection whose chunks hold at most
// capacity rows. A capacity <= 0 means StandardVectorSize.
func NewColumnDataCollection(types []LogicalType, capacity int) *ColumnDataCollection {
	if capacity <= 0 {
		capacity = StandardVectorSize
	}
	return &ColumnDataCollection{types: types, capacity: capacity}
}

// Types returns the column types.
func (c *ColumnDataCollection) Types() []LogicalType {
	return c.types
}

// Count returns the number of rows.
func (c *ColumnDataCollection) Count() int {
	return c.count
}

// ChunkCount returns the number of chunks.
func (c *ColumnDataCollection) ChunkCount() int {
	return len(c.chunks)
}

// Append copies the rows of chunk into the collection.
func (c *ColumnDataCollection) Append(chunk *Chunk) error {
	if chunk.ColumnCount() != len(c.types) {
		return fmt.Errorf("%w: collection has %d columns, chunk has %d", ErrTypeMismatch, len(c.types), chunk.ColumnCount())
	}
	for row := 0; row < chunk.Size(); {
		last := c.tail()
		n := min(c.capacity-last.Size(), chunk.Size()-row)
		for col := range last.Columns {
			last.Columns[col] = append(last.Columns[col], chunk.Columns[col][row:row+n]...)
		}
		row += n
		c.count += n
	}
	return nil
}

func (c *ColumnDataCollection) tail() *Chunk {
	if len(c.chunks) == 0 || c.chunks[len(c.chunks)-1].Size() == c.capacity {
		c.chunks = append(c.chunks, NewChunk(c.types, c.capacity))
	}
	return c.chunks[len(c.chunks)-1]
}

// Combine moves every chunk of other into c. other is empty afterwards.
func (c *ColumnDataCollection) Combine(other *ColumnDataCollection) error {
	if len(other.types) != len(c.types) {
		return fmt.Errorf("%w: cannot combine collections with %d and %d columns", ErrTypeMismatch, len(c.types), len(other.types))
	}
	c.chunks = append(c.chunks, other.chunks...)
	c.count += other.count
	other.chunks = nil
	other.count = 0
	return nil
}

// ParallelScanState is a forward-only cursor shared by concurrent scanners.
// Each chunk is handed out exactly once.
type ParallelScanState struct {
	next atomic.Int64
}

// InitializeParallelScan returns a fresh cursor positioned at the first chunk.
func (c *ColumnDataCollection) InitializeParallelScan() *ParallelScanState {
	return &ParallelScanState{}
}

// Scan claims the next unclaimed chunk. It returns false once every chunk has
// been claimed.
func (c *ColumnDataCollection) Scan(state *ParallelScanState) (*Chunk, bool) {
	i := state.next.Add(1) - 1
	if i >= int64(len(c.chunks)) {
		return nil, false
	}
	return c.chunks[i], true
}
