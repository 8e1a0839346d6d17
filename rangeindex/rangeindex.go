// Package rangeindex provides the range-query engine behind the TRTREE index.
//
// The engine is consumed through the RangeIndex interface so the packing
// algorithm can change without touching the build pipeline or the scan code.
// Implementations are not required to be safe for concurrent writers; wrap a
// shared handle with Synchronized.
package rangeindex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/stboxidx/stbox"
)

var (
	// ErrClosed is returned when a freed handle is used.
	ErrClosed = errors.New("range index is closed")

	// ErrLengthMismatch is returned by BulkInsert when boxes and ids differ in length.
	ErrLengthMismatch = errors.New("boxes and ids length mismatch")
)

// RangeIndex is an overlap-query structure over (box, id) entries.
type RangeIndex interface {
	// Insert adds a single entry.
	Insert(box stbox.BoundingBox, id int64) error

	// BulkInsert adds len(boxes) entries; boxes[i] is keyed to ids[i].
	BulkInsert(boxes []stbox.BoundingBox, ids []int64) error

	// Search returns the id of every entry whose box overlaps query.
	// The order is unspecified.
	Search(query stbox.BoundingBox) ([]int64, error)

	// Len returns the number of stored entries.
	Len() int

	// Close releases the structure. Any later call returns ErrClosed.
	Close() error
}

func checkBulk(boxes []stbox.BoundingBox, ids []int64) error {
	if len(boxes) != len(ids) {
		return fmt.Errorf("%w: %d boxes, %d ids", ErrLengthMismatch, len(boxes), len(ids))
	}
	return nil
}
