package engine

import (
	"context"
	"log/slog"
)

// Index is a secondary index bound to a table.
type Index interface {
	// Name returns the index name.
	Name() string

	// TypeName returns the registered index type, e.g. "TRTREE".
	TypeName() string

	// ColumnIDs returns the storage column ids the index is keyed on.
	ColumnIDs() []int

	// Append adds rows appended to the table. chunk holds the indexed
	// columns in ColumnIDs order.
	Append(ctx context.Context, chunk *Chunk, rowIDs []RowID) error

	// Delete removes rows. Index types that cannot delete return an error,
	// which aborts the table delete.
	Delete(ctx context.Context, chunk *Chunk, rowIDs []RowID) error

	// MergeIndexes folds other into the index.
	MergeIndexes(other Index) error

	// Vacuum compacts the index.
	Vacuum() error

	// CommitDrop releases the index once its drop has been committed.
	CommitDrop() error

	// InMemorySize returns an estimate of the bytes held by the index.
	InMemorySize() int64

	// String verifies the index and renders a short description.
	String() string
}

// OnConflict controls what CREATE does when the entry already exists.
type OnConflict uint8

const (
	// OnConflictError fails with ErrAlreadyExists.
	OnConflictError OnConflict = iota
	// OnConflictIgnore leaves the existing entry in place (IF NOT EXISTS).
	OnConflictIgnore
)

// CreateIndexInfo describes a CREATE INDEX statement.
type CreateIndexInfo struct {
	IndexName  string
	TableName  string
	IndexType  string
	Columns    []string
	Options    map[string]Value
	OnConflict OnConflict
}

// IndexType is a registered index implementation.
type IndexType struct {
	Name string

	// CreateInstance creates an empty index bound to a table.
	CreateInstance func(input CreateIndexInput) (Index, error)

	// CreatePlan returns the sink that builds the index during CREATE INDEX.
	CreatePlan func(input PlanIndexInput) (IndexSink, error)
}

// CreateIndexInput is passed to IndexType.CreateInstance.
type CreateIndexInput struct {
	Info      *CreateIndexInfo
	Table     *Table
	ColumnIDs []int
	Logger    *slog.Logger
}

// PlanIndexInput is passed to IndexType.CreatePlan.
type PlanIndexInput struct {
	Info                 *CreateIndexInfo
	Table                *Table
	Catalog              *Catalog
	ColumnIDs            []int
	Types                []LogicalType
	EstimatedCardinality int
	Threads              int
	Logger               *slog.Logger
}

// IndexSink is the build operator of an index type.
//
// The driver calls NewLocalSink once per producer, feeds it chunks holding the
// indexed columns plus a trailing ROW_ID column, calls Combine once per
// producer, and finally calls Finalize once.
type IndexSink interface {
	NewLocalSink() LocalSink
	Combine(ctx context.Context, local LocalSink) error
	Finalize(ctx context.Context, input FinalizeInput) error
	Progress() float64
}

// LocalSink receives the chunks of one producer.
type LocalSink interface {
	Sink(ctx context.Context, chunk *Chunk) error
}

// FinalizeInput is passed to IndexSink.Finalize.
type FinalizeInput struct {
	Scheduler *TaskScheduler
	Catalog   *Catalog
	Table     *Table
	Info      *CreateIndexInfo

	// ScannedRows is the end of the row id range the producers scanned.
	// Rows appended after it must be caught up when the index is attached
	// (see Table.AttachIndex).
	ScannedRows RowID
}
