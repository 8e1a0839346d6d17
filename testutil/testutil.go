package testutil

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/stboxidx/stbox"
)

// Epoch is the base time of generated periods.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// XYBox returns a 2D box with its lower corner in [0,extent)² and sides in
// [0,maxSide).
func (r *RNG) XYBox(extent, maxSide float64, srid int32) stbox.BoundingBox {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.xyBoxLocked(extent, maxSide, srid)
}

func (r *RNG) xyBoxLocked(extent, maxSide float64, srid int32) stbox.BoundingBox {
	x := r.rand.Float64() * extent
	y := r.rand.Float64() * extent
	w := r.rand.Float64() * maxSide
	h := r.rand.Float64() * maxSide
	return stbox.NewXY(x, y, x+w, y+h, srid)
}

// XYBoxes returns num boxes generated by XYBox with SRID 0.
func (r *RNG) XYBoxes(num int, extent, maxSide float64) []stbox.BoundingBox {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stbox.BoundingBox, num)
	for i := range out {
		out[i] = r.xyBoxLocked(extent, maxSide, 0)
	}
	return out
}

// Period returns a closed period starting within hours of Epoch and lasting
// less than one hour.
func (r *RNG) Period(hours int) stbox.Period {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.periodLocked(hours)
}

func (r *RNG) periodLocked(hours int) stbox.Period {
	start := Epoch.Add(time.Duration(r.rand.Int63n(int64(hours) * int64(time.Hour))))
	length := time.Duration(r.rand.Int63n(int64(time.Hour)))
	return stbox.NewPeriod(start, start.Add(length))
}

// STBoxes returns num boxes with both a spatial extent and a period. Every
// fourth box is time-only.
func (r *RNG) STBoxes(num int, extent, maxSide float64, hours int) []stbox.BoundingBox {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stbox.BoundingBox, num)
	for i := range out {
		p := r.periodLocked(hours)
		if i%4 == 3 {
			out[i] = stbox.NewT(p)
			continue
		}
		out[i] = r.xyBoxLocked(extent, maxSide, 0).WithPeriod(p)
	}
	return out
}

// SequentialIDs returns the ids start, start+1, ..., start+n-1.
func SequentialIDs(start int64, n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = start + int64(i)
	}
	return ids
}

// BruteForceOverlaps returns, in ascending order, every ids[i] whose box
// overlaps query.
func BruteForceOverlaps(boxes []stbox.BoundingBox, ids []int64, query stbox.BoundingBox) []int64 {
	var out []int64
	for i, b := range boxes {
		if stbox.Overlaps(b, query) {
			out = append(out, ids[i])
		}
	}
	SortIDs(out)
	return out
}

// SortIDs sorts ids in place in ascending order.
func SortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
