package rtreeidx

import (
	"context"
	"testing"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPragma_IndexInfo(t *testing.T) {
	db, _ := newTripsDB(t, nil)
	ctx := context.Background()

	res, err := db.Pragma(ctx, PragmaIndexInfo)
	require.NoError(t, err)
	assert.Zero(t, res.Len())
	assert.Equal(t, []string{"catalog_name", "schema_name", "index_name", "table_name", "type", "memory_usage"}, res.Names)

	idx := createTRTree(t, db, "trips_bbox", "trips", "bbox")
	res, err = db.Pragma(ctx, PragmaIndexInfo)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, []engine.Value{
		engine.String(engine.DefaultCatalog),
		engine.String(engine.DefaultSchema),
		engine.String("trips_bbox"),
		engine.String("trips"),
		engine.String("TRTREE (stbox)"),
		engine.Int(idx.InMemorySize()),
	}, res.Rows[0])
}

func TestPragma_AllIndexes(t *testing.T) {
	db, _ := newTripsDB(t, nil)
	createTRTree(t, db, "b_idx", "trips", "bbox")
	createTRTree(t, db, "a_idx", "trips", "bbox")

	res, err := db.Pragma(context.Background(), PragmaAllIndexes)
	require.NoError(t, err)
	assert.Equal(t, []engine.Value{engine.String("a_idx"), engine.String("b_idx")}, res.Column(2))
	assert.Equal(t, []engine.Value{engine.String(TypeName), engine.String(TypeName)}, res.Column(4))
}

func TestPragma_VacuumIndex(t *testing.T) {
	db, _ := newTripsDB(t, nil)
	createTRTree(t, db, "trips_bbox", "trips", "bbox")
	ctx := context.Background()

	_, err := db.Pragma(ctx, PragmaVacuumIndex, engine.String("trips_bbox"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = db.Pragma(ctx, PragmaVacuumIndex, engine.String("missing"))
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = db.Pragma(ctx, PragmaVacuumIndex)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = db.Pragma(ctx, PragmaVacuumIndex, engine.Int(1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
