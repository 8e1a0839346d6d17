package rtreeidx

import (
	"testing"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	db := engine.Open()
	cfg, err := Register(db, WithScanBatchSize(64))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.ScanBatchSize)
	assert.Equal(t, DefaultOverlapFunctions, cfg.OverlapFunctions)

	reg := db.Registry()
	_, ok := reg.IndexType("trtree")
	assert.True(t, ok)
	_, ok = reg.TableFunction(ScanFunctionName)
	assert.True(t, ok)
	_, ok = reg.ScalarFunction("overlaps")
	assert.True(t, ok)
	_, ok = reg.Pragma(PragmaIndexInfo)
	assert.True(t, ok)
	require.Len(t, reg.Optimizers(), 1)
	assert.Equal(t, "rtree_index_scan_rewrite", reg.Optimizers()[0].Name())

	_, err = Register(db)
	assert.ErrorIs(t, err, engine.ErrAlreadyExists)
}

func TestIndexType_CreateInstance(t *testing.T) {
	db, table := newTripsDB(t, nil)
	it, ok := db.Registry().IndexType(TypeName)
	require.True(t, ok)

	info := &engine.CreateIndexInfo{IndexName: "empty", TableName: "trips", IndexType: TypeName, Columns: []string{"bbox"}}
	idx, err := it.CreateInstance(engine.CreateIndexInput{Info: info, Table: table, ColumnIDs: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, "empty", idx.Name())
	assert.Zero(t, idx.(*Index).Len())

	_, err = it.CreateInstance(engine.CreateIndexInput{Info: info, Table: table, ColumnIDs: []int{2}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = it.CreateInstance(engine.CreateIndexInput{Info: info, Table: table, ColumnIDs: []int{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig(WithLogger(nil), WithMetricsObserver(nil), WithScanBatchSize(-1), WithOverlapFunctions())
	assert.NotNil(t, cfg.Logger)
	assert.Equal(t, NoopMetricsObserver{}, cfg.Metrics)
	assert.Equal(t, DefaultScanBatchSize, cfg.ScanBatchSize)
	assert.Equal(t, DefaultOverlapFunctions, cfg.OverlapFunctions)
	assert.NotNil(t, cfg.newRangeIndex())
}
