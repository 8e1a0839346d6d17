package rangeindex

import (
	"sync"

	"github.com/hupe1980/stboxidx/stbox"
)

// Synchronized serializes writers on a shared RangeIndex handle.
//
// Every Insert, BulkInsert and Close holds the write lock for the whole call,
// so a bulk insert of a local batch is one critical section. Searches share
// the read lock.
type Synchronized struct {
	mu    sync.RWMutex
	inner RangeIndex
}

// NewSynchronized wraps inner.
func NewSynchronized(inner RangeIndex) *Synchronized {
	return &Synchronized{inner: inner}
}

// Insert implements RangeIndex.
func (s *Synchronized) Insert(box stbox.BoundingBox, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Insert(box, id)
}

// BulkInsert implements RangeIndex.
func (s *Synchronized) BulkInsert(boxes []stbox.BoundingBox, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.BulkInsert(boxes, ids)
}

// Search implements RangeIndex.
func (s *Synchronized) Search(query stbox.BoundingBox) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Search(query)
}

// Len implements RangeIndex.
func (s *Synchronized) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Len()
}

// Close implements RangeIndex.
func (s *Synchronized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}
