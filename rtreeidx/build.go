package rtreeidx

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/stbox"
)

// BuildPhase is the lifecycle position of a CreateIndexOperator.
type BuildPhase int32

const (
	PhaseCollecting BuildPhase = iota
	PhaseCombining
	PhaseBuilding
	PhaseReady
	PhaseFailed
)

func (p BuildPhase) String() string {
	switch p {
	case PhaseCollecting:
		return "collecting"
	case PhaseCombining:
		return "combining"
	case PhaseBuilding:
		return "building"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// scratchEntryBytes is the scratch memory reserved per row of a batch while
// it is decoded.
const scratchEntryBytes = stbox.Size + 8

// CreateIndexOperator builds a TRTREE index during CREATE INDEX.
//
// Producers sink rows into local collections which are merged into one shared
// collection. Finalize then runs one construct task per scheduler thread; the
// tasks claim chunks of the shared collection through a lock-free cursor and
// bulk-insert them into the single tree of the new index.
type CreateIndexOperator struct {
	info      *engine.CreateIndexInfo
	table     *engine.Table
	columnID  int
	keyType   engine.LogicalType
	estimated int
	cfg       *Config
	logger    *slog.Logger

	mu         sync.Mutex
	collection *engine.ColumnDataCollection

	phase    atomic.Int32
	loaded   atomic.Int64
	built    atomic.Int64
	skipped  atomic.Int64
	nullKeys atomic.Int64
}

// NewCreateIndexOperator validates the index definition and returns its
// build operator.
func NewCreateIndexOperator(in engine.PlanIndexInput, cfg *Config) (*CreateIndexOperator, error) {
	if len(in.ColumnIDs) != 1 {
		return nil, fmt.Errorf("%w: %s index %s must be on exactly one column, got %d", ErrInvalidArgument, TypeName, in.Info.IndexName, len(in.ColumnIDs))
	}
	if in.Types[0].ID != engine.TypeBlob {
		return nil, fmt.Errorf("%w: %s index %s cannot be built over column %s of type %s", ErrInvalidArgument, TypeName, in.Info.IndexName, in.Info.Columns[0], in.Types[0])
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	return &CreateIndexOperator{
		info:       in.Info,
		table:      in.Table,
		columnID:   in.ColumnIDs[0],
		keyType:    in.Types[0],
		estimated:  in.EstimatedCardinality,
		cfg:        cfg,
		logger:     cfg.Logger.With("index", in.Info.IndexName, "table", in.Info.TableName),
		collection: engine.NewColumnDataCollection([]engine.LogicalType{in.Types[0], engine.RowIDType}, 0),
	}, nil
}

// Phase returns the current build phase.
func (op *CreateIndexOperator) Phase() BuildPhase {
	return BuildPhase(op.phase.Load())
}

// Loaded returns the number of rows sunk so far.
func (op *CreateIndexOperator) Loaded() int64 { return op.loaded.Load() }

// Built returns the number of rows processed by construct tasks so far.
func (op *CreateIndexOperator) Built() int64 { return op.built.Load() }

// Skipped returns the number of rows left out of the index because their key
// or row id was null or malformed.
func (op *CreateIndexOperator) Skipped() int64 { return op.skipped.Load() }

type localSink struct {
	op         *CreateIndexOperator
	collection *engine.ColumnDataCollection
}

// NewLocalSink implements engine.IndexSink.
func (op *CreateIndexOperator) NewLocalSink() engine.LocalSink {
	return &localSink{
		op:         op,
		collection: engine.NewColumnDataCollection(op.collection.Types(), 0),
	}
}

// Sink appends a chunk of (key, row id) rows. Null keys are kept and
// counted; they are skipped when the tree is built.
func (s *localSink) Sink(_ context.Context, chunk *engine.Chunk) error {
	if err := s.collection.Append(chunk); err != nil {
		return err
	}
	nulls := 0
	for row := 0; row < chunk.Size(); row++ {
		if chunk.Value(0, row).IsNull() {
			nulls++
		}
	}
	s.op.nullKeys.Add(int64(nulls))
	s.op.loaded.Add(int64(chunk.Size()))
	return nil
}

// Combine implements engine.IndexSink.
func (op *CreateIndexOperator) Combine(_ context.Context, local engine.LocalSink) error {
	ls, ok := local.(*localSink)
	if !ok || ls.op != op {
		return fmt.Errorf("%w: foreign local sink", ErrInternal)
	}
	op.phase.CompareAndSwap(int32(PhaseCollecting), int32(PhaseCombining))

	op.mu.Lock()
	defer op.mu.Unlock()
	return op.collection.Combine(ls.collection)
}

// Finalize builds the tree and registers the index. Rows appended after
// the producers' scan are caught up while the index is attached. Nothing is
// registered when a construct task or the catch up fails.
func (op *CreateIndexOperator) Finalize(ctx context.Context, in engine.FinalizeInput) (err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			op.phase.Store(int32(PhaseFailed))
		}
		op.cfg.Metrics.OnBuild(time.Since(start), op.loaded.Load(), op.built.Load(), err)
	}()

	op.phase.Store(int32(PhaseBuilding))

	idx, err := NewIndex(op.info.IndexName, op.info.TableName, op.columnID, op.keyType, op.info.Options, op.cfg)
	if err != nil {
		return err
	}

	state := op.collection.InitializeParallelScan()
	tasks := make([]engine.Task, in.Scheduler.NumberOfThreads())
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			return op.construct(ctx, idx, state)
		}
	}
	if err := in.Scheduler.Run(ctx, tasks); err != nil {
		_ = idx.CommitDrop()
		return err
	}

	entry, err := in.Catalog.CreateIndexEntry(op.info, idx.InMemorySize())
	if err != nil {
		_ = idx.CommitDrop()
		return err
	}
	if entry == nil {
		// IF NOT EXISTS raced with another CREATE INDEX of the same name.
		_ = idx.CommitDrop()
		op.phase.Store(int32(PhaseReady))
		return nil
	}
	if err := in.Table.AttachIndex(ctx, idx, in.ScannedRows); err != nil {
		_, _ = in.Catalog.DropIndexEntry(op.info.IndexName)
		_ = idx.CommitDrop()
		return err
	}
	op.phase.Store(int32(PhaseReady))

	op.logger.InfoContext(ctx, "index built",
		"rows", op.loaded.Load(),
		"built", op.built.Load(),
		"skipped", op.skipped.Load(),
		"null_keys", op.nullKeys.Load(),
		"entries", idx.Len(),
		"duration", time.Since(start),
	)
	return nil
}

// construct processes chunks until the shared cursor is exhausted.
func (op *CreateIndexOperator) construct(ctx context.Context, idx *Index, state *engine.ParallelScanState) error {
	if err := op.cfg.Resources.AcquireWorker(ctx); err != nil {
		return err
	}
	defer op.cfg.Resources.ReleaseWorker()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, ok := op.collection.Scan(state)
		if !ok {
			return nil
		}
		if err := op.constructChunk(ctx, idx, chunk); err != nil {
			return err
		}
		op.built.Add(int64(chunk.Size()))
	}
}

func (op *CreateIndexOperator) constructChunk(ctx context.Context, idx *Index, chunk *engine.Chunk) error {
	n := chunk.Size()
	scratch := int64(n) * scratchEntryBytes
	if !op.cfg.Resources.TryAcquireMemory(scratch) {
		return fmt.Errorf("%w: cannot allocate %d bytes of scratch space for %d rows", ErrInternal, scratch, n)
	}
	defer op.cfg.Resources.ReleaseMemory(scratch)

	boxes := make([]stbox.BoundingBox, 0, n)
	ids := make([]int64, 0, n)
	for row := range n {
		key, rowID := chunk.Value(0, row), chunk.Value(1, row)
		if key.IsNull() || rowID.IsNull() {
			op.skipped.Add(1)
			continue
		}
		box, err := decodeKey(key)
		if err != nil {
			op.skipped.Add(1)
			op.logger.DebugContext(ctx, "skipping malformed key", "error", err)
			continue
		}
		id, _ := rowID.AsInt64()
		boxes = append(boxes, box)
		ids = append(ids, id)
	}
	if len(boxes) == 0 {
		return nil
	}
	return idx.BulkConstruct(ctx, boxes, ids)
}

// Progress implements engine.IndexSink. Collecting accounts for the first
// half of the work and building for the second.
func (op *CreateIndexOperator) Progress() float64 {
	loaded := float64(op.loaded.Load())
	switch op.Phase() {
	case PhaseCollecting, PhaseCombining:
		if op.estimated <= 0 {
			return 0
		}
		return min(loaded/(2*float64(op.estimated)), 0.5)
	case PhaseBuilding:
		if loaded == 0 {
			return 0.5
		}
		return (loaded + float64(op.built.Load())) / (2 * loaded)
	case PhaseReady:
		return 1
	default:
		return 0
	}
}
