package rtreeidx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/stbox"
	"github.com/stretchr/testify/require"
)

func encodeXY(xmin, ymin, xmax, ymax float64, srid int32) []byte {
	return stbox.Encode(stbox.NewXY(xmin, ymin, xmax, ymax, srid))
}

func xyValue(xmin, ymin, xmax, ymax float64, srid int32) engine.Value {
	return engine.BlobValue(encodeXY(xmin, ymin, xmax, ymax, srid))
}

func boxConstant(xmin, ymin, xmax, ymax float64) *engine.Constant {
	return &engine.Constant{Value: xyValue(xmin, ymin, xmax, ymax, 0), Type: STBoxType}
}

// newTripsDB returns a database with the extension registered and a trips
// table (id BIGINT, bbox stbox, speed DOUBLE) holding three rows:
//
//	row 0: id 1, [0,10]x[0,10] SRID 4326, speed 30
//	row 1: id 2, [20,30]x[20,30] SRID 4326, speed 80
//	row 2: id 3, [100,110]x[100,110], speed 90
func newTripsDB(t testing.TB, dbOpts []engine.Option, opts ...Option) (*engine.DB, *engine.Table) {
	t.Helper()
	db := engine.Open(dbOpts...)
	_, err := Register(db, opts...)
	require.NoError(t, err)

	table, err := db.CreateTable("trips",
		engine.ColumnDefinition{Name: "id", Type: engine.BigInt},
		engine.ColumnDefinition{Name: "bbox", Type: STBoxType},
		engine.ColumnDefinition{Name: "speed", Type: engine.Double},
	)
	require.NoError(t, err)

	_, err = db.Insert(context.Background(), "trips",
		[]engine.Value{engine.Int(1), xyValue(0, 0, 10, 10, 4326), engine.Float(30)},
		[]engine.Value{engine.Int(2), xyValue(20, 20, 30, 30, 4326), engine.Float(80)},
		[]engine.Value{engine.Int(3), xyValue(100, 100, 110, 110, 0), engine.Float(90)},
	)
	require.NoError(t, err)
	return db, table
}

func createTRTree(t testing.TB, db *engine.DB, name, table, column string) *Index {
	t.Helper()
	err := db.CreateIndex(context.Background(), &engine.CreateIndexInfo{
		IndexName: name,
		TableName: table,
		IndexType: TypeName,
		Columns:   []string{column},
	})
	require.NoError(t, err)

	tbl, err := db.Catalog().GetTable(table)
	require.NoError(t, err)
	idx, ok := tbl.Index(name)
	require.True(t, ok)
	return idx.(*Index)
}

// countingObserver records every metrics event.
type countingObserver struct {
	mu        sync.Mutex
	builds    int
	buildErrs int
	builtRows int64
	inserts   int
	scans     int
	matched   int
	unmatched int
}

func (o *countingObserver) OnBuild(_ time.Duration, _, built int64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.builds++
	o.builtRows += built
	if err != nil {
		o.buildErrs++
	}
}

func (o *countingObserver) OnInsert(time.Duration, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inserts++
}

func (o *countingObserver) OnScan(time.Duration, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scans++
}

func (o *countingObserver) OnRewrite(matched bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if matched {
		o.matched++
	} else {
		o.unmatched++
	}
}
