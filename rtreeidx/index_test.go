package rtreeidx

import (
	"context"
	"testing"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/rangeindex"
	"github.com/hupe1980/stboxidx/stbox"
	"github.com/hupe1980/stboxidx/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, opts ...Option) *Index {
	t.Helper()
	idx, err := NewIndex("trips_bbox", "trips", 1, STBoxType, nil, NewConfig(opts...))
	require.NoError(t, err)
	return idx
}

func keyChunk(keys ...engine.Value) *engine.Chunk {
	rows := make([][]engine.Value, len(keys))
	for i, k := range keys {
		rows[i] = []engine.Value{k}
	}
	return engine.ChunkFromRows([]engine.LogicalType{STBoxType}, rows)
}

func TestIndex_InsertSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunk := keyChunk(xyValue(0, 0, 10, 10, 4326), xyValue(20, 20, 30, 30, 4326))
	require.NoError(t, idx.Insert(ctx, chunk, []engine.RowID{1, 2}))
	assert.Equal(t, 2, idx.Len())

	got, err := idx.Search(stbox.NewXY(5, 5, 25, 25, 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got)

	got, err = idx.Search(stbox.NewXY(11, 11, 19, 19, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndex_InsertSkipsNullKeys(t *testing.T) {
	idx := newTestIndex(t)

	chunk := keyChunk(engine.Null(), xyValue(0, 0, 1, 1, 0))
	require.NoError(t, idx.Insert(context.Background(), chunk, []engine.RowID{7, 8}))

	got, err := idx.Search(stbox.NewXY(-1, -1, 2, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, got)
}

func TestIndex_InsertRejectsMalformedKey(t *testing.T) {
	idx := newTestIndex(t)

	chunk := keyChunk(engine.BlobValue([]byte{1, 2, 3}))
	err := idx.Insert(context.Background(), chunk, []engine.RowID{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = idx.Insert(context.Background(), keyChunk(engine.Int(4)), []engine.RowID{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = idx.Insert(context.Background(), keyChunk(xyValue(0, 0, 1, 1, 0)), []engine.RowID{1, 2})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, idx.Len())
}

func TestIndex_BulkConstructNormalizes(t *testing.T) {
	idx := newTestIndex(t)

	boxes := []stbox.BoundingBox{
		stbox.NewXY(0, 0, 10, 10, 4326),
		stbox.NewXY(20, 20, 30, 30, 3857),
	}
	require.NoError(t, idx.BulkConstruct(context.Background(), boxes, []int64{1, 2}))

	got, err := idx.Search(stbox.NewXY(5, 5, 25, 25, 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got)

	err = idx.BulkConstruct(context.Background(), boxes, []int64{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIndex_RejectsNegativeRowIDs(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.BulkConstruct(ctx, []stbox.BoundingBox{stbox.NewXY(0, 0, 1, 1, 0)}, []int64{-1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = idx.Insert(ctx, keyChunk(xyValue(0, 0, 1, 1, 0), xyValue(2, 2, 3, 3, 0)), []engine.RowID{4, -2})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, idx.Len())

	require.NoError(t, idx.BulkConstruct(ctx,
		[]stbox.BoundingBox{stbox.NewXY(0, 0, 1, 1, 0), stbox.NewXY(0, 0, 1, 1, 0), stbox.NewXY(0, 0, 1, 1, 0)},
		[]int64{1 << 40, 0, 7},
	))
	got, err := idx.Search(stbox.NewXY(0, 0, 1, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 7, 1 << 40}, got)
}

func TestIndex_UnsupportedOperations(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(context.Background(), keyChunk(xyValue(0, 0, 1, 1, 0)), []engine.RowID{0}))

	err := idx.Delete(context.Background(), keyChunk(xyValue(0, 0, 1, 1, 0)), []engine.RowID{0})
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, idx.MergeIndexes(newTestIndex(t)), ErrUnsupported)
	assert.ErrorIs(t, idx.Vacuum(), ErrUnsupported)

	got, err := idx.Search(stbox.NewXY(0, 0, 1, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, got)
}

func TestIndex_CommitDrop(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(context.Background(), keyChunk(xyValue(0, 0, 1, 1, 0)), []engine.RowID{0}))
	assert.Positive(t, idx.InMemorySize())

	require.NoError(t, idx.CommitDrop())
	assert.ErrorIs(t, idx.CommitDrop(), ErrClosed)

	_, err := idx.Search(stbox.NewXY(0, 0, 1, 1, 0))
	assert.ErrorIs(t, err, ErrClosed)
	err = idx.Insert(context.Background(), keyChunk(xyValue(0, 0, 1, 1, 0)), []engine.RowID{1})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = idx.InitializeScanBox(stbox.NewXY(0, 0, 1, 1, 0))
	assert.ErrorIs(t, err, ErrClosed)

	assert.Zero(t, idx.InMemorySize())
	assert.Equal(t, "TRTREE trips_bbox ON trips (dropped)", idx.String())
}

func TestIndex_String(t *testing.T) {
	options := map[string]engine.Value{"fill": engine.Int(4), "kind": engine.String("xy")}
	idx, err := NewIndex("trips_bbox", "trips", 1, STBoxType, options, NewConfig())
	require.NoError(t, err)

	assert.Equal(t, `TRTREE trips_bbox ON trips entries=0 options={fill=4, kind="xy"}`, idx.String())
	assert.Equal(t, options, idx.Options())
	assert.Equal(t, []int{1}, idx.ColumnIDs())
	assert.Equal(t, TypeName, idx.TypeName())
}

func TestIndex_FactoryFailure(t *testing.T) {
	cfg := NewConfig(WithRangeIndexFactory(func() rangeindex.RangeIndex { return nil }))
	_, err := NewIndex("i", "t", 0, STBoxType, nil, cfg)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestIndex_NoFalseNegatives(t *testing.T) {
	rng := testutil.NewRNG(42)
	boxes := rng.STBoxes(2000, 1000, 50, 48)
	ids := testutil.SequentialIDs(0, len(boxes))

	idx := newTestIndex(t)
	require.NoError(t, idx.BulkConstruct(context.Background(), boxes, ids))

	for range 50 {
		query := rng.XYBox(1000, 200, 0).WithPeriod(rng.Period(48))
		got, err := idx.Search(query)
		require.NoError(t, err)
		assert.Equal(t, testutil.BruteForceOverlaps(boxes, ids, query), got)
	}
}
