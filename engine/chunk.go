package engine

// StandardVectorSize is the maximum number of rows in a Chunk produced by a
// scan.
const StandardVectorSize = 2048

// RowID identifies a row in table storage.
type RowID = int64

// Chunk is a columnar batch of rows.
type Chunk struct {
	Types   []LogicalType
	Columns [][]Value
}

// NewChunk returns an empty chunk with room for capacity rows.
func NewChunk(types []LogicalType, capacity int) *Chunk {
	c := &Chunk{
		Types:   types,
		Columns: make([][]Value, len(types)),
	}
	for i := range c.Columns {
		c.Columns[i] = make([]Value, 0, capacity)
	}
	return c
}

// ChunkFromRows builds a chunk from row-major values.
func ChunkFromRows(types []LogicalType, rows [][]Value) *Chunk {
	c := NewChunk(types, len(rows))
	for _, r := range rows {
		c.AppendRow(r)
	}
	return c
}

// Size returns the number of rows.
func (c *Chunk) Size() int {
	if c == nil || len(c.Columns) == 0 {
		return 0
	}
	return len(c.Columns[0])
}

// ColumnCount returns the number of columns.
func (c *Chunk) ColumnCount() int {
	return len(c.Columns)
}

// AppendRow appends one row. The row must have one value per column.
func (c *Chunk) AppendRow(row []Value) {
	for i := range c.Columns {
		c.Columns[i] = append(c.Columns[i], row[i])
	}
}

// Value returns the cell at (col, row).
func (c *Chunk) Value(col, row int) Value {
	return c.Columns[col][row]
}

// Row returns a copy of row i.
func (c *Chunk) Row(i int) []Value {
	out := make([]Value, len(c.Columns))
	for col := range c.Columns {
		out[col] = c.Columns[col][i]
	}
	return out
}

// Rows returns all rows in row-major order.
func (c *Chunk) Rows() [][]Value {
	out := make([][]Value, c.Size())
	for i := range out {
		out[i] = c.Row(i)
	}
	return out
}

// Reset truncates every column to zero rows, keeping capacity.
func (c *Chunk) Reset() {
	for i := range c.Columns {
		c.Columns[i] = c.Columns[i][:0]
	}
}

// Slice returns the rows [start, end) sharing the backing arrays.
func (c *Chunk) Slice(start, end int) *Chunk {
	out := &Chunk{Types: c.Types, Columns: make([][]Value, len(c.Columns))}
	for i := range c.Columns {
		out.Columns[i] = c.Columns[i][start:end:end]
	}
	return out
}
