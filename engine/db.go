package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// Config holds the settings of a DB.
type Config struct {
	// Threads is the scheduler pool size. If 0, defaults to GOMAXPROCS.
	Threads int

	// Logger receives engine logs. If nil, logs are discarded.
	Logger *slog.Logger

	// FilterPushdown enables the built-in filter pushdown pass.
	FilterPushdown bool
}

// Option configures a DB.
type Option func(*Config)

// WithThreads sets the scheduler pool size.
func WithThreads(n int) Option {
	return func(c *Config) {
		c.Threads = n
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithFilterPushdown enables or disables the built-in filter pushdown pass.
func WithFilterPushdown(enabled bool) Option {
	return func(c *Config) {
		c.FilterPushdown = enabled
	}
}

// DB is an in-process database instance.
type DB struct {
	cfg       Config
	logger    *slog.Logger
	catalog   *Catalog
	registry  *Registry
	scheduler *TaskScheduler
	optimizer *optimizer
	executor  *executor

	nextTableIndex atomic.Int64
	closed         atomic.Bool
}

// Open creates a database with the built-in seq_scan table function.
func Open(opts ...Option) *DB {
	cfg := Config{FilterPushdown: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	registry := NewRegistry()
	_ = registry.RegisterTableFunction(SeqScanFunction())

	return &DB{
		cfg:       cfg,
		logger:    logger,
		catalog:   NewCatalog(),
		registry:  registry,
		scheduler: NewTaskScheduler(cfg.Threads),
		optimizer: &optimizer{registry: registry, logger: logger, filterPushdown: cfg.FilterPushdown},
		executor:  &executor{eval: NewEvalContext(registry)},
	}
}

// Catalog returns the catalog.
func (db *DB) Catalog() *Catalog { return db.catalog }

// Registry returns the extension registry.
func (db *DB) Registry() *Registry { return db.registry }

// Scheduler returns the task scheduler.
func (db *DB) Scheduler() *TaskScheduler { return db.scheduler }

// Logger returns the engine logger.
func (db *DB) Logger() *slog.Logger { return db.logger }

// EvalContext returns an evaluation context bound to the registry.
func (db *DB) EvalContext() *EvalContext { return db.executor.eval }

// CreateTable adds a table.
func (db *DB) CreateTable(name string, columns ...ColumnDefinition) (*Table, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	return db.catalog.CreateTable(name, columns, OnConflictError)
}

// Insert appends rows to a table.
func (db *DB) Insert(ctx context.Context, table string, rows ...[]Value) ([]RowID, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	t, err := db.catalog.GetTable(table)
	if err != nil {
		return nil, err
	}
	return t.Append(ctx, rows)
}

// Delete tombstones rows of a table.
func (db *DB) Delete(ctx context.Context, table string, rowIDs ...RowID) (int, error) {
	if db.closed.Load() {
		return 0, ErrClosed
	}
	t, err := db.catalog.GetTable(table)
	if err != nil {
		return 0, err
	}
	return t.Delete(ctx, rowIDs)
}

// NextTableIndex allocates a binding table index.
func (db *DB) NextTableIndex() int {
	return int(db.nextTableIndex.Add(1) - 1)
}

// Get binds a seq_scan over the named columns of a table.
func (db *DB) Get(table string, columns ...string) (*LogicalGet, error) {
	t, err := db.catalog.GetTable(table)
	if err != nil {
		return nil, err
	}
	fn, _ := db.registry.TableFunction(SeqScanName)
	get := &LogicalGet{
		TableIndex: db.NextTableIndex(),
		Table:      t,
		Function:   fn,
		BindData:   &SeqScanBindData{Table: t},
	}
	for _, c := range columns {
		if _, err := get.Column(c); err != nil {
			return nil, err
		}
	}
	get.EstimatedCardinality, get.HasEstimatedCardinality = fn.Cardinality(get.BindData)
	return get, nil
}

// Optimize runs the optimizer over plan.
func (db *DB) Optimize(ctx context.Context, plan LogicalOperator) (LogicalOperator, error) {
	return db.optimizer.optimize(ctx, plan)
}

// Execute runs plan as is.
func (db *DB) Execute(ctx context.Context, plan LogicalOperator) (*Result, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := db.executor.execute(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &Result{Types: plan.Types(), Rows: rows}, nil
}

// Query optimizes and executes plan.
func (db *DB) Query(ctx context.Context, plan LogicalOperator) (*Result, error) {
	optimized, err := db.Optimize(ctx, plan)
	if err != nil {
		return nil, err
	}
	return db.Execute(ctx, optimized)
}

// CreateIndex builds and registers an index.
//
// One producer per scheduler thread scans a table partition into a local sink
// and combines it into the index type's sink; Finalize then builds the index
// and registers it.
func (db *DB) CreateIndex(ctx context.Context, info *CreateIndexInfo) error {
	if db.closed.Load() {
		return ErrClosed
	}
	start := time.Now()

	table, err := db.catalog.GetTable(info.TableName)
	if err != nil {
		return err
	}
	if db.catalog.HasIndex(info.IndexName) {
		if info.OnConflict == OnConflictIgnore {
			return nil
		}
		return fmt.Errorf("%w: index %s", ErrAlreadyExists, info.IndexName)
	}
	it, ok := db.registry.IndexType(info.IndexType)
	if !ok {
		return fmt.Errorf("%w: index type %s", ErrNotFound, info.IndexType)
	}

	columnIDs := make([]int, len(info.Columns))
	types := make([]LogicalType, len(info.Columns))
	for i, name := range info.Columns {
		id, ok := table.ColumnIndex(name)
		if !ok {
			return fmt.Errorf("%w: column %s not found in table %s", ErrBinder, name, table.Name())
		}
		columnIDs[i] = id
		types[i] = table.columnType(id)
	}

	sink, err := it.CreatePlan(PlanIndexInput{
		Info:                 info,
		Table:                table,
		Catalog:              db.catalog,
		ColumnIDs:            columnIDs,
		Types:                types,
		EstimatedCardinality: table.Count(),
		Threads:              db.scheduler.NumberOfThreads(),
		Logger:               db.logger,
	})
	if err != nil {
		return err
	}

	scanIDs := append(append([]int(nil), columnIDs...), ColumnRowID)
	partitions := table.Partitions(db.scheduler.NumberOfThreads())
	var scanned RowID
	if len(partitions) > 0 {
		scanned = partitions[len(partitions)-1].End
	}
	tasks := make([]Task, len(partitions))
	for i, p := range partitions {
		tasks[i] = func(ctx context.Context) error {
			local := sink.NewLocalSink()
			err := table.ScanPartition(ctx, p, scanIDs, func(chunk *Chunk, _ []RowID) error {
				return local.Sink(ctx, chunk)
			})
			if err != nil {
				return err
			}
			return sink.Combine(ctx, local)
		}
	}
	if err := db.scheduler.Run(ctx, tasks); err != nil {
		return fmt.Errorf("create index %s: %w", info.IndexName, err)
	}

	if err := sink.Finalize(ctx, FinalizeInput{
		Scheduler: db.scheduler,
		Catalog:   db.catalog,
		Table:     table,
		Info:      info,

		ScannedRows: scanned,
	}); err != nil {
		return fmt.Errorf("create index %s: %w", info.IndexName, err)
	}

	db.logger.InfoContext(ctx, "index created",
		"index", info.IndexName,
		"table", info.TableName,
		"type", info.IndexType,
		"duration", time.Since(start),
	)
	return nil
}

// DropIndex removes an index and releases it.
func (db *DB) DropIndex(ctx context.Context, name string, ifExists bool) error {
	entry, err := db.catalog.GetIndex(name)
	if err != nil {
		if ifExists && errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if _, err := db.catalog.DropIndexEntry(name); err != nil {
		return err
	}

	table, err := db.catalog.GetTable(entry.Table)
	if err != nil {
		return err
	}
	idx, ok := table.RemoveIndex(entry.Name)
	if !ok {
		return nil
	}
	db.logger.InfoContext(ctx, "index dropped", "index", name, "table", entry.Table)
	return idx.CommitDrop()
}

// Pragma runs a registered pragma.
func (db *DB) Pragma(ctx context.Context, name string, args ...Value) (*Result, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	p, ok := db.registry.Pragma(name)
	if !ok {
		return nil, fmt.Errorf("%w: pragma %s", ErrNotFound, name)
	}
	return p.Fn(ctx, db, args)
}

// Close releases every index. Further calls fail with ErrClosed.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	db.scheduler.Close()

	var errs []error
	for _, t := range db.catalog.Tables() {
		for _, idx := range t.Indexes() {
			t.RemoveIndex(idx.Name())
			if err := idx.CommitDrop(); err != nil {
				errs = append(errs, fmt.Errorf("drop index %s: %w", idx.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
