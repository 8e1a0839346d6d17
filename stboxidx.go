package stboxidx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/resource"
	"github.com/hupe1980/stboxidx/rtreeidx"
	"github.com/hupe1980/stboxidx/stbox"
)

// Extension is the TRTREE extension loaded into a database.
type Extension struct {
	db        *engine.DB
	cfg       *rtreeidx.Config
	logger    *Logger
	metrics   MetricsCollector
	resources *resource.Controller
}

// IndexDefinition describes a TRTREE index to create.
type IndexDefinition struct {
	Name   string
	Table  string
	Column string

	// Options are stored on the index and reported by its String method.
	Options map[string]engine.Value

	// IfNotExists makes CreateIndex a no-op when the name is taken.
	IfNotExists bool
}

// IndexInfo describes a TRTREE index known to the catalog.
type IndexInfo struct {
	Catalog     string
	Schema      string
	Name        string
	Table       string
	Type        string
	MemoryUsage int64
}

// Load registers the TRTREE index type, the rtree_index_scan table function,
// the overlap functions, the index pragmas and the rewrite rule with db.
//
// Load may be called once per database; a second call fails with
// ErrAlreadyExists.
func Load(db *engine.DB, optFns ...Option) (*Extension, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		if o.logLevel != nil {
			logger = NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *o.logLevel}))
		} else {
			logger = NoopLogger()
		}
	}
	metrics := o.metricsCollector
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	resources := resource.NewController(o.resourceConfig)

	cfg, err := rtreeidx.Register(db,
		rtreeidx.WithLogger(logger.Logger),
		rtreeidx.WithMetricsObserver(&metricsObserver{collector: metrics, logger: logger}),
		rtreeidx.WithResourceController(resources),
		rtreeidx.WithOverlapFunctions(o.overlapFunctions...),
		rtreeidx.WithScanBatchSize(o.scanBatchSize),
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &Extension{
		db:        db,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		resources: resources,
	}, nil
}

// Config returns the index configuration shared by every TRTREE index of
// the database.
func (e *Extension) Config() *rtreeidx.Config {
	return e.cfg
}

// Resources returns the controller bounding build memory, workers and rate.
func (e *Extension) Resources() *resource.Controller {
	return e.resources
}

// CreateIndex builds a TRTREE index over def.Column and registers it.
func (e *Extension) CreateIndex(ctx context.Context, def IndexDefinition) error {
	if def.Name == "" || def.Table == "" || def.Column == "" {
		return indexError(def.Name, "create", fmt.Errorf("%w: index name, table and column are required", ErrInvalidArgument))
	}
	onConflict := engine.OnConflictError
	if def.IfNotExists {
		onConflict = engine.OnConflictIgnore
	}
	err := e.db.CreateIndex(ctx, &engine.CreateIndexInfo{
		IndexName:  def.Name,
		TableName:  def.Table,
		IndexType:  rtreeidx.TypeName,
		Columns:    []string{def.Column},
		Options:    def.Options,
		OnConflict: onConflict,
	})

	entries := 0
	if err == nil {
		if idx, ierr := e.Index(def.Name); ierr == nil {
			entries = idx.Len()
		}
	}
	e.logger.LogBuild(ctx, def.Name, def.Table, entries, err)
	return indexError(def.Name, "create", err)
}

// DropIndex drops the named index. With ifExists a missing index is not an
// error.
func (e *Extension) DropIndex(ctx context.Context, name string, ifExists bool) error {
	return indexError(name, "drop", e.db.DropIndex(ctx, name, ifExists))
}

// Index returns the live TRTREE index called name.
func (e *Extension) Index(name string) (*rtreeidx.Index, error) {
	entry, err := e.db.Catalog().GetIndex(name)
	if err != nil {
		return nil, indexError(name, "lookup", err)
	}
	if !strings.EqualFold(entry.IndexType, rtreeidx.TypeName) {
		return nil, indexError(name, "lookup", fmt.Errorf("%w: index is of type %s", ErrInvalidArgument, entry.IndexType))
	}
	table, err := e.db.Catalog().GetTable(entry.Table)
	if err != nil {
		return nil, indexError(name, "lookup", err)
	}
	idx, ok := table.Index(entry.Name)
	if !ok {
		return nil, indexError(name, "lookup", engine.ErrNotFound)
	}
	tidx, ok := idx.(*rtreeidx.Index)
	if !ok {
		return nil, indexError(name, "lookup", fmt.Errorf("%w: unexpected index implementation %T", ErrInternal, idx))
	}
	return tidx, nil
}

// Search returns the row ids of every entry of the named index whose box
// overlaps query, ascending and without duplicates.
func (e *Extension) Search(ctx context.Context, name string, query stbox.BoundingBox) ([]int64, error) {
	idx, err := e.Index(name)
	if err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, indexError(name, "search", err)
	}

	start := time.Now()
	rowIDs, err := idx.Search(query)
	e.metrics.RecordScan(len(rowIDs), time.Since(start), err)
	e.logger.WithTable(idx.Table()).LogScan(ctx, name, len(rowIDs), err)
	if err != nil {
		return nil, indexError(name, "search", err)
	}
	return rowIDs, nil
}

// Vacuum runs the rtree_vacuum_index pragma. TRTREE indexes cannot be
// vacuumed, so an existing index yields ErrUnsupported.
func (e *Extension) Vacuum(ctx context.Context, name string) error {
	_, err := e.db.Pragma(ctx, rtreeidx.PragmaVacuumIndex, engine.String(name))
	return indexError(name, "vacuum", err)
}

// Indexes lists the TRTREE indexes of the database.
func (e *Extension) Indexes(ctx context.Context) ([]IndexInfo, error) {
	res, err := e.db.Pragma(ctx, rtreeidx.PragmaIndexInfo)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]IndexInfo, 0, res.Len())
	for _, row := range res.Rows {
		info := IndexInfo{}
		info.Catalog, _ = row[0].AsString()
		info.Schema, _ = row[1].AsString()
		info.Name, _ = row[2].AsString()
		info.Table, _ = row[3].AsString()
		info.Type, _ = row[4].AsString()
		info.MemoryUsage, _ = row[5].AsInt64()
		out = append(out, info)
	}
	return out, nil
}
