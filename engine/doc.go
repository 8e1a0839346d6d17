// Package engine provides the in-process analytical host that the spatial
// index plugs into.
//
// The host is plan driven: callers build logical plans directly (there is no
// SQL parser) and hand them to the optimizer and executor. It carries the
// pieces an index extension needs from a real engine:
//   - Row-store tables with fetch-by-row-id and tombstone deletes
//   - A catalog with index entries and conflict handling
//   - An extension registry for index types, table functions, scalar
//     functions, optimizer extensions and pragmas
//   - Logical plans (get, filter, projection) with column bindings
//   - A rule-based optimizer with filter pushdown
//   - A materializing executor and a CREATE INDEX driver
//   - A fixed-size task scheduler
//
// # Column Bindings
//
// A LogicalGet binds its outputs as (TableIndex, i) where i is a position in
// ColumnIDs, and ColumnIDs holds storage column ids. Table filters are keyed by
// storage column id and expressed over BoundRef{Index: 0}. Operators above a
// get reference its columns by binding, so a plan stays valid when an
// optimizer swaps the scan function or inserts a filter node.
//
// # Index Construction
//
// CreateIndex runs one producer per scheduler thread over disjoint table
// partitions. Each producer feeds a local sink and then combines it into the
// index type's global state; Finalize builds and registers the index.
package engine
