package rtreeidx

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/stboxidx/engine"
)

// Pragma names.
const (
	PragmaIndexInfo   = "pragma_rtree_index_info"
	PragmaAllIndexes  = "debug_all_indexes"
	PragmaVacuumIndex = "rtree_vacuum_index"
)

// Pragmas returns the administrative calls of the extension.
func Pragmas() []engine.Pragma {
	return []engine.Pragma{
		{Name: PragmaIndexInfo, Fn: indexInfo},
		{Name: PragmaAllIndexes, Fn: allIndexes},
		{Name: PragmaVacuumIndex, Fn: vacuumIndex},
	}
}

// indexInfo lists every TRTREE index with its memory usage.
func indexInfo(_ context.Context, db *engine.DB, _ []engine.Value) (*engine.Result, error) {
	res := &engine.Result{
		Names: []string{"catalog_name", "schema_name", "index_name", "table_name", "type", "memory_usage"},
		Types: []engine.LogicalType{engine.Varchar, engine.Varchar, engine.Varchar, engine.Varchar, engine.Varchar, engine.BigInt},
	}
	for _, entry := range db.Catalog().Indexes() {
		if !strings.EqualFold(entry.IndexType, TypeName) {
			continue
		}
		usage := entry.InitialIndexSize
		if idx, ok := liveIndex(db, entry); ok {
			usage = idx.InMemorySize()
		}
		res.Rows = append(res.Rows, []engine.Value{
			engine.String(entry.Catalog),
			engine.String(entry.Schema),
			engine.String(entry.Name),
			engine.String(entry.Table),
			engine.String(TypeName + " (stbox)"),
			engine.Int(usage),
		})
	}
	return res, nil
}

// allIndexes lists every index regardless of its type.
func allIndexes(_ context.Context, db *engine.DB, _ []engine.Value) (*engine.Result, error) {
	res := &engine.Result{
		Names: []string{"catalog_name", "schema_name", "index_name", "table_name", "index_type"},
		Types: []engine.LogicalType{engine.Varchar, engine.Varchar, engine.Varchar, engine.Varchar, engine.Varchar},
	}
	for _, entry := range db.Catalog().Indexes() {
		res.Rows = append(res.Rows, []engine.Value{
			engine.String(entry.Catalog),
			engine.String(entry.Schema),
			engine.String(entry.Name),
			engine.String(entry.Table),
			engine.String(entry.IndexType),
		})
	}
	return res, nil
}

// vacuumIndex checks that the named TRTREE index exists and asks it to
// vacuum, which TRTREE indexes do not support.
func vacuumIndex(_ context.Context, db *engine.DB, args []engine.Value) (*engine.Result, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s expects one argument, got %d", ErrInvalidArgument, PragmaVacuumIndex, len(args))
	}
	name, ok := args[0].AsString()
	if !ok {
		return nil, fmt.Errorf("%w: %s expects a string argument", ErrInvalidArgument, PragmaVacuumIndex)
	}
	entry, err := db.Catalog().GetIndex(name)
	if err != nil || !strings.EqualFold(entry.IndexType, TypeName) {
		return nil, fmt.Errorf("%w: %s index %s", engine.ErrNotFound, TypeName, name)
	}
	idx, ok := liveIndex(db, entry)
	if !ok {
		return nil, fmt.Errorf("%w: %s index %s", engine.ErrNotFound, TypeName, name)
	}
	if err := idx.Vacuum(); err != nil {
		return nil, err
	}
	return &engine.Result{}, nil
}

func liveIndex(db *engine.DB, entry *engine.IndexEntry) (*Index, bool) {
	table, err := db.Catalog().GetTable(entry.Table)
	if err != nil {
		return nil, false
	}
	idx, ok := table.Index(entry.Name)
	if !ok {
		return nil, false
	}
	ti, ok := idx.(*Index)
	return ti, ok
}
