package engine

import (
	"context"
	"errors"
	"sync"
)

var (
	errDeleteRejected = errors.New("delete rejected")
	errAppendRejected = errors.New("append rejected")
)

// recordingIndex keeps every appended row id.
type recordingIndex struct {
	name      string
	columnIDs []int

	// rejectAppends makes Append fail without recording anything.
	rejectAppends bool

	mu      sync.Mutex
	rowIDs  []RowID
	dropped bool
}

func (r *recordingIndex) Name() string        { return r.name }
func (r *recordingIndex) TypeName() string    { return "RECORDING" }
func (r *recordingIndex) ColumnIDs() []int    { return r.columnIDs }
func (r *recordingIndex) Vacuum() error       { return nil }
func (r *recordingIndex) InMemorySize() int64 { return int64(len(r.rowIDs)) * 8 }
func (r *recordingIndex) String() string      { return r.name }

func (r *recordingIndex) Append(_ context.Context, _ *Chunk, rowIDs []RowID) error {
	if r.rejectAppends {
		return errAppendRejected
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rowIDs = append(r.rowIDs, rowIDs...)
	return nil
}

func (r *recordingIndex) Delete(context.Context, *Chunk, []RowID) error {
	return errDeleteRejected
}

func (r *recordingIndex) MergeIndexes(Index) error {
	return errors.ErrUnsupported
}

func (r *recordingIndex) CommitDrop() error {
	r.dropped = true
	return nil
}

func (r *recordingIndex) ids() []RowID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RowID(nil), r.rowIDs...)
}

// recordingSink builds a recordingIndex from the CREATE INDEX producers.
type recordingSink struct {
	input PlanIndexInput

	mu       sync.Mutex
	index    *recordingIndex
	combines int
	scanned  RowID
}

type recordingLocal struct {
	rowIDs []RowID
}

func (l *recordingLocal) Sink(_ context.Context, chunk *Chunk) error {
	rowCol := chunk.ColumnCount() - 1
	for _, v := range chunk.Columns[rowCol] {
		l.rowIDs = append(l.rowIDs, v.I64)
	}
	return nil
}

func (s *recordingSink) NewLocalSink() LocalSink { return &recordingLocal{} }

func (s *recordingSink) Combine(_ context.Context, local LocalSink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combines++
	s.index.rowIDs = append(s.index.rowIDs, local.(*recordingLocal).rowIDs...)
	return nil
}

func (s *recordingSink) Finalize(ctx context.Context, in FinalizeInput) error {
	s.scanned = in.ScannedRows
	entry, err := in.Catalog.CreateIndexEntry(in.Info, s.index.InMemorySize())
	if err != nil || entry == nil {
		return err
	}
	return in.Table.AttachIndex(ctx, s.index, in.ScannedRows)
}

func (s *recordingSink) Progress() float64 { return 1 }

func recordingIndexType(sinks *[]*recordingSink) IndexType {
	return IndexType{
		Name: "RECORDING",
		CreateInstance: func(in CreateIndexInput) (Index, error) {
			return &recordingIndex{name: in.Info.IndexName, columnIDs: in.ColumnIDs}, nil
		},
		CreatePlan: func(in PlanIndexInput) (IndexSink, error) {
			s := &recordingSink{
				input: in,
				index: &recordingIndex{name: in.Info.IndexName, columnIDs: in.ColumnIDs},
			}
			*sinks = append(*sinks, s)
			return s, nil
		},
	}
}

func newPeopleDB(opts ...Option) (*DB, *Table) {
	db := Open(opts...)
	t, err := db.CreateTable("people",
		ColumnDefinition{Name: "id", Type: BigInt},
		ColumnDefinition{Name: "name", Type: Varchar},
		ColumnDefinition{Name: "age", Type: BigInt},
	)
	if err != nil {
		panic(err)
	}
	_, err = db.Insert(context.Background(), "people",
		[]Value{Int(1), String("ada"), Int(36)},
		[]Value{Int(2), String("brian"), Int(17)},
		[]Value{Int(3), String("cleo"), Int(52)},
	)
	if err != nil {
		panic(err)
	}
	return db, t
}
