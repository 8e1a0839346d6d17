// Package rtreeidx implements TRTREE, a spatiotemporal R-tree index over
// stbox columns of the engine package.
//
// The package contributes four pieces to a database:
//
//   - the TRTREE index type, whose CREATE INDEX operator collects the rows in
//     parallel and bulk-loads one shared tree from a pool of construct tasks
//   - the rtree_index_scan table function, which searches the tree once and
//     streams the matching rows in batches
//   - an optimizer rule that replaces a sequential scan by an index scan when
//     a predicate `&&(column, constant)` can be answered by an index
//   - the scalar overlap functions and the index pragmas
//
// Use Register to install everything:
//
//	db := engine.Open()
//	if _, err := rtreeidx.Register(db); err != nil {
//		return err
//	}
//
// Deletes are not supported. A table with a TRTREE index rejects deletes.
package rtreeidx
