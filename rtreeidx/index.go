package rtreeidx

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/rangeindex"
	"github.com/hupe1980/stboxidx/stbox"
)

// STBoxType is the column type TRTREE indexes are declared over.
var STBoxType = engine.Blob.WithAlias("stbox")

// approxEntryBytes estimates the memory held per indexed row: the decoded box,
// the row id and the tree node share.
const approxEntryBytes = stbox.Size + 8 + 32

// Index is a TRTREE index over a single stbox column.
//
// All tree calls go through a rangeindex.Synchronized handle, so Insert,
// BulkConstruct and Search may be called from any goroutine.
type Index struct {
	name      string
	table     string
	columnIDs []int
	keyType   engine.LogicalType
	options   map[string]engine.Value

	tree   rangeindex.RangeIndex
	closed atomic.Bool

	cfg    *Config
	logger *slog.Logger
}

// NewIndex returns an empty index keyed on the storage column columnID of
// table.
func NewIndex(name, table string, columnID int, keyType engine.LogicalType, options map[string]engine.Value, cfg *Config) (*Index, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	inner := cfg.newRangeIndex()
	if inner == nil {
		return nil, fmt.Errorf("%w: could not create tree for index %s", ErrInternal, name)
	}
	return &Index{
		name:      name,
		table:     table,
		columnIDs: []int{columnID},
		keyType:   keyType,
		options:   maps.Clone(options),
		tree:      rangeindex.NewSynchronized(inner),
		cfg:       cfg,
		logger:    cfg.Logger.With("index", name, "table", table),
	}, nil
}

// Name implements engine.Index.
func (idx *Index) Name() string { return idx.name }

// TypeName implements engine.Index.
func (idx *Index) TypeName() string { return TypeName }

// ColumnIDs implements engine.Index.
func (idx *Index) ColumnIDs() []int { return slices.Clone(idx.columnIDs) }

// Table returns the name of the indexed table.
func (idx *Index) Table() string { return idx.table }

// Options returns the options given at creation.
func (idx *Index) Options() map[string]engine.Value { return maps.Clone(idx.options) }

// UnboundExpression returns the indexed column as a reference to output
// column 0 of table index 0. The rewrite rule rebinds it against a scan.
func (idx *Index) UnboundExpression() *engine.ColumnRef {
	return &engine.ColumnRef{Type: idx.keyType}
}

// Len returns the number of indexed rows.
func (idx *Index) Len() int {
	return idx.tree.Len()
}

// Append implements engine.Index; it is Insert.
func (idx *Index) Append(ctx context.Context, chunk *engine.Chunk, rowIDs []engine.RowID) error {
	return idx.Insert(ctx, chunk, rowIDs)
}

// Insert adds the rows of chunk, whose first column holds the keys.
// Null keys are not indexed; a malformed key or a negative row id fails the
// whole insert.
func (idx *Index) Insert(ctx context.Context, chunk *engine.Chunk, rowIDs []engine.RowID) (err error) {
	start := time.Now()
	defer func() {
		idx.cfg.Metrics.OnInsert(time.Since(start), len(rowIDs), err)
	}()

	if idx.closed.Load() {
		return ErrClosed
	}
	if chunk.Size() != len(rowIDs) {
		return fmt.Errorf("%w: %d keys for %d row ids", ErrInvalidArgument, chunk.Size(), len(rowIDs))
	}

	boxes := make([]stbox.BoundingBox, 0, len(rowIDs))
	ids := make([]int64, 0, len(rowIDs))
	for row, id := range rowIDs {
		if id < 0 {
			return fmt.Errorf("%w: negative row id %d", ErrInvalidArgument, id)
		}
		key := chunk.Value(0, row)
		if key.IsNull() {
			continue
		}
		box, err := decodeKey(key)
		if err != nil {
			return fmt.Errorf("row %d: %w", id, err)
		}
		boxes = append(boxes, box)
		ids = append(ids, id)
	}
	if len(boxes) == 0 {
		return nil
	}
	if err := idx.tree.BulkInsert(boxes, ids); err != nil {
		return err
	}
	idx.logger.DebugContext(ctx, "rows inserted", "rows", len(boxes))
	return nil
}

// BulkConstruct inserts already decoded boxes. Boxes are normalized before
// insertion; boxes[i] is keyed to rowIDs[i]. Row ids must not be negative.
func (idx *Index) BulkConstruct(ctx context.Context, boxes []stbox.BoundingBox, rowIDs []int64) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	if len(boxes) != len(rowIDs) {
		return fmt.Errorf("%w: %d boxes for %d row ids", ErrInvalidArgument, len(boxes), len(rowIDs))
	}
	for _, id := range rowIDs {
		if id < 0 {
			return fmt.Errorf("%w: negative row id %d", ErrInvalidArgument, id)
		}
	}
	if err := idx.cfg.Resources.AcquireRows(ctx, len(boxes)); err != nil {
		return err
	}
	normalized := make([]stbox.BoundingBox, len(boxes))
	for i, b := range boxes {
		normalized[i] = stbox.Normalize(b)
	}
	return idx.tree.BulkInsert(normalized, rowIDs)
}

// Delete implements engine.Index. TRTREE indexes cannot delete.
func (idx *Index) Delete(context.Context, *engine.Chunk, []engine.RowID) error {
	return fmt.Errorf("%w: delete from TRTREE index %s", ErrUnsupported, idx.name)
}

// MergeIndexes implements engine.Index. TRTREE indexes cannot merge.
func (idx *Index) MergeIndexes(engine.Index) error {
	return fmt.Errorf("%w: merge into TRTREE index %s", ErrUnsupported, idx.name)
}

// Vacuum implements engine.Index. TRTREE indexes cannot vacuum.
func (idx *Index) Vacuum() error {
	return fmt.Errorf("%w: vacuum of TRTREE index %s", ErrUnsupported, idx.name)
}

// CommitDrop implements engine.Index. It frees the tree; every later call
// returns ErrClosed.
func (idx *Index) CommitDrop() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return idx.tree.Close()
}

// InMemorySize implements engine.Index.
func (idx *Index) InMemorySize() int64 {
	if idx.closed.Load() {
		return 0
	}
	return int64(idx.tree.Len()) * approxEntryBytes
}

// String implements engine.Index.
func (idx *Index) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s ON %s", TypeName, idx.name, idx.table)
	if idx.closed.Load() {
		sb.WriteString(" (dropped)")
		return sb.String()
	}
	fmt.Fprintf(&sb, " entries=%d", idx.tree.Len())
	if len(idx.options) > 0 {
		keys := slices.Sorted(maps.Keys(idx.options))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + idx.options[k].String()
		}
		fmt.Fprintf(&sb, " options={%s}", strings.Join(parts, ", "))
	}
	return sb.String()
}

// Search returns the row id of every entry overlapping query, ascending and
// without duplicates.
func (idx *Index) Search(query stbox.BoundingBox) ([]int64, error) {
	if idx.closed.Load() {
		return nil, ErrClosed
	}
	hits, err := idx.tree.Search(stbox.Normalize(query))
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	set := roaring64.New()
	for _, id := range hits {
		set.Add(uint64(id))
	}
	out := make([]int64, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		out = append(out, int64(it.Next()))
	}
	return out, nil
}

func decodeKey(v engine.Value) (stbox.BoundingBox, error) {
	data, ok := v.AsBlob()
	if !ok {
		return stbox.BoundingBox{}, fmt.Errorf("%w: key is not a box", ErrInvalidArgument)
	}
	return stbox.DecodeNormalized(data)
}
