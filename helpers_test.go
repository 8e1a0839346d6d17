package stboxidx

import (
	"context"
	"testing"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/rtreeidx"
	"github.com/hupe1980/stboxidx/stbox"
	"github.com/stretchr/testify/require"
)

func xyValue(xmin, ymin, xmax, ymax float64) engine.Value {
	return engine.BlobValue(stbox.Encode(stbox.NewXY(xmin, ymin, xmax, ymax, 0)))
}

// newTrips returns a database with the extension loaded and a trips table
// (id BIGINT, bbox stbox) holding boxes [0,10], [20,30] and [100,110].
func newTrips(t *testing.T, opts ...Option) (*engine.DB, *Extension) {
	t.Helper()
	db := engine.Open(engine.WithThreads(2))
	t.Cleanup(func() { _ = db.Close() })

	ext, err := Load(db, opts...)
	require.NoError(t, err)

	_, err = db.CreateTable("trips",
		engine.ColumnDefinition{Name: "id", Type: engine.BigInt},
		engine.ColumnDefinition{Name: "bbox", Type: rtreeidx.STBoxType},
	)
	require.NoError(t, err)

	_, err = db.Insert(context.Background(), "trips",
		[]engine.Value{engine.Int(1), xyValue(0, 0, 10, 10)},
		[]engine.Value{engine.Int(2), xyValue(20, 20, 30, 30)},
		[]engine.Value{engine.Int(3), xyValue(100, 100, 110, 110)},
	)
	require.NoError(t, err)
	return db, ext
}

// overlapQuery returns `SELECT id FROM trips WHERE bbox && [5,25]x[5,25]`.
func overlapQuery(t *testing.T, db *engine.DB) engine.LogicalOperator {
	t.Helper()
	get, err := db.Get("trips", "id", "bbox")
	require.NoError(t, err)
	bbox, err := get.Column("bbox")
	require.NoError(t, err)
	id, err := get.Column("id")
	require.NoError(t, err)

	filter := &engine.LogicalFilter{
		Expressions: []engine.Expression{&engine.Function{
			Name: "&&",
			Args: []engine.Expression{bbox, &engine.Constant{Value: xyValue(5, 5, 25, 25), Type: rtreeidx.STBoxType}},
			Type: engine.Boolean,
		}},
		Child: get,
	}
	return &engine.LogicalProjection{
		TableIndex:  db.NextTableIndex(),
		Expressions: []engine.Expression{id},
		Child:       filter,
	}
}
