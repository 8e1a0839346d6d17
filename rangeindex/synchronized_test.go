package rangeindex

import (
	"sync"
	"testing"

	"github.com/hupe1980/stboxidx/stbox"
	"github.com/hupe1980/stboxidx/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronized_ConcurrentBulkInsert(t *testing.T) {
	const (
		workers   = 8
		perWorker = 500
	)

	idx := NewSynchronized(NewTree())
	rng := testutil.NewRNG(7)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		boxes := rng.XYBoxes(perWorker, 100, 5)
		ids := testutil.SequentialIDs(int64(w*perWorker), perWorker)
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Small batches so the calls interleave.
			for i := 0; i < perWorker; i += 50 {
				if err := idx.BulkInsert(boxes[i:i+50], ids[i:i+50]); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, workers*perWorker, idx.Len())

	got, err := idx.Search(stbox.NewXY(-1, -1, 200, 200, 0))
	require.NoError(t, err)
	require.Len(t, got, workers*perWorker)

	seen := make(map[int64]struct{}, len(got))
	for _, id := range got {
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
	for id := int64(0); id < workers*perWorker; id++ {
		assert.Contains(t, seen, id)
	}
}

func TestSynchronized_ConcurrentSearch(t *testing.T) {
	idx := NewSynchronized(NewTree())
	require.NoError(t, idx.Insert(stbox.NewXY(0, 0, 10, 10, 0), 1))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := idx.Search(stbox.NewXY(5, 5, 6, 6, 0))
			assert.NoError(t, err)
			assert.Equal(t, []int64{1}, ids)
		}()
	}
	wg.Wait()
}

func TestSynchronized_Close(t *testing.T) {
	idx := NewSynchronized(NewTree())

	require.NoError(t, idx.Close())
	_, err := idx.Search(stbox.NewXY(0, 0, 1, 1, 0))
	assert.ErrorIs(t, err, ErrClosed)
}
