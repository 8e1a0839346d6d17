// Package stboxidx adds a spatiotemporal R-tree index (TRTREE) to the
// in-process analytical engine in package engine.
//
// Load registers the index type, its scan function, the overlap predicates,
// the index pragmas and the query rewrite rule with a database:
//
//	db := engine.Open()
//	ext, _ := stboxidx.Load(db,
//	    stboxidx.WithLogger(stboxidx.NewTextLogger(slog.LevelInfo)),
//	    stboxidx.WithBuildThreads(4),
//	)
//
// After that, a TRTREE index over a column of type stbox is built with
// CreateIndex and used transparently: a filter `bbox && <constant box>` over
// a scan of the indexed table is rewritten into an index scan.
//
//	err := ext.CreateIndex(ctx, stboxidx.IndexDefinition{
//	    Name: "trips_bbox", Table: "trips", Column: "bbox",
//	})
//
// # Errors
//
// Errors returned by the extension match the sentinels of this package with
// errors.Is (ErrInvalidArgument, ErrInternal, ErrUnsupported, ErrNotFound,
// ErrAlreadyExists, ErrClosed). Index operations return an *IndexError.
//
// # Observability
//
// Metrics are reported through a MetricsCollector. BasicMetricsCollector
// keeps counters in memory; PrometheusCollector exports them with
// client_golang.
package stboxidx
