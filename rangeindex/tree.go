package rangeindex

import (
	"fmt"

	"github.com/hupe1980/stboxidx/stbox"
	"github.com/tidwall/rtree"
)

type entry struct {
	box stbox.BoundingBox
	id  int64
}

// Tree is a RangeIndex backed by tidwall/rtree.
//
// Boxes with a spatial extent are keyed on X/Y in one tree; time-only boxes
// are keyed on their period in a second tree. Candidates from either tree are
// confirmed with stbox.Overlaps, so Z and time extents are honored exactly.
//
// Tree is not safe for concurrent writers.
type Tree struct {
	spatial  *rtree.RTreeG[entry]
	temporal *rtree.RTreeG[entry]
	closed   bool
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		spatial:  &rtree.RTreeG[entry]{},
		temporal: &rtree.RTreeG[entry]{},
	}
}

// Insert implements RangeIndex.
func (t *Tree) Insert(box stbox.BoundingBox, id int64) error {
	if t.closed {
		return ErrClosed
	}
	if err := box.Validate(); err != nil {
		return fmt.Errorf("insert id %d: %w", id, err)
	}

	e := entry{box: box, id: id}
	if box.HasX {
		lo, hi := spatialKey(box)
		t.spatial.Insert(lo, hi, e)
		return nil
	}
	lo, hi := temporalKey(box)
	t.temporal.Insert(lo, hi, e)
	return nil
}

// BulkInsert implements RangeIndex.
func (t *Tree) BulkInsert(boxes []stbox.BoundingBox, ids []int64) error {
	if err := checkBulk(boxes, ids); err != nil {
		return err
	}
	for i := range boxes {
		if err := t.Insert(boxes[i], ids[i]); err != nil {
			return err
		}
	}
	return nil
}

// Search implements RangeIndex.
func (t *Tree) Search(query stbox.BoundingBox) ([]int64, error) {
	if t.closed {
		return nil, ErrClosed
	}

	var out []int64
	collect := func(_, _ [2]float64, e entry) bool {
		if stbox.Overlaps(e.box, query) {
			out = append(out, e.id)
		}
		return true
	}

	switch {
	case query.HasX:
		lo, hi := spatialKey(query)
		t.spatial.Search(lo, hi, collect)
	case query.HasT:
		// The spatial tree is not keyed on time.
		t.spatial.Scan(collect)
	}
	if query.HasT {
		lo, hi := temporalKey(query)
		t.temporal.Search(lo, hi, collect)
	}
	return out, nil
}

// Len implements RangeIndex.
func (t *Tree) Len() int {
	if t.closed {
		return 0
	}
	return t.spatial.Len() + t.temporal.Len()
}

// Close implements RangeIndex.
func (t *Tree) Close() error {
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	t.spatial = nil
	t.temporal = nil
	return nil
}

func spatialKey(b stbox.BoundingBox) (lo, hi [2]float64) {
	return [2]float64{b.XMin, b.YMin}, [2]float64{b.XMax, b.YMax}
}

func temporalKey(b stbox.BoundingBox) (lo, hi [2]float64) {
	return [2]float64{float64(b.Period.Lower), 0}, [2]float64{float64(b.Period.Upper), 0}
}
