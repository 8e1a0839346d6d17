package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// ColumnDefinition is a table column.
type ColumnDefinition struct {
	Name string
	Type LogicalType
}

// Table is an append-only row store.
//
// Row ids are dense positions assigned in append order. Deleted rows are
// tombstoned and skipped by scans and fetches.
type Table struct {
	name    string
	columns []ColumnDefinition

	mu      sync.RWMutex
	rows    [][]Value
	deleted *roaring64.Bitmap
	indexes []Index
}

func newTable(name string, columns []ColumnDefinition) *Table {
	return &Table{
		name:    name,
		columns: slices.Clone(columns),
		deleted: roaring64.New(),
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns the column definitions.
func (t *Table) Columns() []ColumnDefinition {
	return t.columns
}

// Types returns the column types.
func (t *Table) Types() []LogicalType {
	out := make([]LogicalType, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Type
	}
	return out
}

// ColumnIndex returns the storage column id of name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.columns {
		if strings.EqualFold(c.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Count returns the number of live rows.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows) - int(t.deleted.GetCardinality())
}

// RowCount returns the number of appended rows, including deleted ones.
func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Append adds rows and forwards them to every bound index. If an index
// rejects the rows, the append fails and the new rows are tombstoned. Their
// row ids are never handed out again, so entries already added by the
// indexes before the failing one point at deleted rows only.
func (t *Table) Append(ctx context.Context, rows [][]Value) ([]RowID, error) {
	for i, r := range rows {
		if len(r) != len(t.columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, table %s has %d columns", ErrTypeMismatch, i, len(r), t.name, len(t.columns))
		}
		for c, v := range r {
			if !CheckType(t.columns[c].Type, v) {
				return nil, fmt.Errorf("%w: column %s expects %s", ErrTypeMismatch, t.columns[c].Name, t.columns[c].Type)
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	start := RowID(len(t.rows))
	ids := make([]RowID, len(rows))
	for i, r := range rows {
		ids[i] = start + RowID(i)
		t.rows = append(t.rows, slices.Clone(r))
	}

	for _, idx := range t.indexes {
		chunk := t.projectLocked(ids, idx.ColumnIDs())
		if err := idx.Append(ctx, chunk, ids); err != nil {
			for _, id := range ids {
				t.deleted.Add(uint64(id))
			}
			return nil, fmt.Errorf("append to index %s: %w", idx.Name(), err)
		}
	}
	return ids, nil
}

// Delete tombstones rows. Every bound index is asked to delete first; if any
// index fails, nothing is deleted.
func (t *Table) Delete(ctx context.Context, rowIDs []RowID) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	live := make([]RowID, 0, len(rowIDs))
	for _, id := range rowIDs {
		if id >= 0 && id < RowID(len(t.rows)) && !t.deleted.Contains(uint64(id)) {
			live = append(live, id)
		}
	}
	if len(live) == 0 {
		return 0, nil
	}

	for _, idx := range t.indexes {
		chunk := t.projectLocked(live, idx.ColumnIDs())
		if err := idx.Delete(ctx, chunk, live); err != nil {
			return 0, fmt.Errorf("delete from index %s: %w", idx.Name(), err)
		}
	}
	for _, id := range live {
		t.deleted.Add(uint64(id))
	}
	return len(live), nil
}

// Fetch returns the columns columnIDs of the given rows. Deleted or unknown
// row ids are skipped. A column id of ColumnRowID yields the row id.
func (t *Table) Fetch(rowIDs []RowID, columnIDs []int) *Chunk {
	t.mu.RLock()
	defer t.mu.RUnlock()

	live := make([]RowID, 0, len(rowIDs))
	for _, id := range rowIDs {
		if id >= 0 && id < RowID(len(t.rows)) && !t.deleted.Contains(uint64(id)) {
			live = append(live, id)
		}
	}
	return t.projectLocked(live, columnIDs)
}

// ColumnRowID is the pseudo storage column id of the row identifier.
const ColumnRowID = -1

func (t *Table) columnType(id int) LogicalType {
	if id == ColumnRowID {
		return RowIDType
	}
	return t.columns[id].Type
}

func (t *Table) projectLocked(rowIDs []RowID, columnIDs []int) *Chunk {
	types := make([]LogicalType, len(columnIDs))
	for i, id := range columnIDs {
		types[i] = t.columnType(id)
	}
	out := NewChunk(types, len(rowIDs))
	for i, colID := range columnIDs {
		col := out.Columns[i]
		for _, id := range rowIDs {
			if colID == ColumnRowID {
				col = append(col, Int(id))
				continue
			}
			col = append(col, t.rows[id][colID])
		}
		out.Columns[i] = col
	}
	return out
}

// Partition is a half-open row id range [Start, End).
type Partition struct {
	Start, End RowID
}

// Partitions splits the current rows into at most n contiguous ranges.
func (t *Table) Partitions(n int) []Partition {
	total := RowID(t.RowCount())
	if n <= 0 {
		n = 1
	}
	if total == 0 {
		return nil
	}
	size := (total + RowID(n) - 1) / RowID(n)
	var out []Partition
	for start := RowID(0); start < total; start += size {
		out = append(out, Partition{Start: start, End: min(start+size, total)})
	}
	return out
}

// ScanPartition visits the live rows of p in chunks of at most
// StandardVectorSize rows. Each chunk holds columnIDs; rowIDs holds the row id
// of every chunk row.
func (t *Table) ScanPartition(ctx context.Context, p Partition, columnIDs []int, fn func(chunk *Chunk, rowIDs []RowID) error) error {
	ids := make([]RowID, 0, StandardVectorSize)
	flush := func() error {
		if len(ids) == 0 {
			return nil
		}
		t.mu.RLock()
		chunk := t.projectLocked(ids, columnIDs)
		t.mu.RUnlock()
		if err := fn(chunk, ids); err != nil {
			return err
		}
		ids = make([]RowID, 0, StandardVectorSize)
		return nil
	}

	for id := p.Start; id < p.End; id++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.mu.RLock()
		dead := t.deleted.Contains(uint64(id))
		t.mu.RUnlock()
		if dead {
			continue
		}
		ids = append(ids, id)
		if len(ids) == StandardVectorSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// AddIndex binds idx to the table.
func (t *Table) AddIndex(idx Index) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indexes = append(t.indexes, idx)
}

// AttachIndex forwards the live rows appended at or after from to idx and
// binds it, holding the table lock so no append is missed in between. If
// the catch up fails, idx is not bound.
func (t *Table) AttachIndex(ctx context.Context, idx Index, from RowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pending []RowID
	for id := max(from, 0); id < RowID(len(t.rows)); id++ {
		if !t.deleted.Contains(uint64(id)) {
			pending = append(pending, id)
		}
	}
	if len(pending) > 0 {
		chunk := t.projectLocked(pending, idx.ColumnIDs())
		if err := idx.Append(ctx, chunk, pending); err != nil {
			return fmt.Errorf("catch up index %s: %w", idx.Name(), err)
		}
	}
	t.indexes = append(t.indexes, idx)
	return nil
}

// RemoveIndex unbinds and returns the index called name.
func (t *Table) RemoveIndex(name string) (Index, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, idx := range t.indexes {
		if idx.Name() == name {
			t.indexes = slices.Delete(t.indexes, i, i+1)
			return idx, true
		}
	}
	return nil, false
}

// Indexes returns the bound indexes in creation order.
func (t *Table) Indexes() []Index {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.indexes)
}

// Index returns the bound index called name.
func (t *Table) Index(name string) (Index, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, idx := range t.indexes {
		if idx.Name() == name {
			return idx, true
		}
	}
	return nil, false
}
