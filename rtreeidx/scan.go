package rtreeidx

import (
	"fmt"
	"time"

	"github.com/hupe1980/stboxidx/stbox"
)

// ScanPhase is the lifecycle position of a ScanState.
type ScanPhase uint8

const (
	ScanInit ScanPhase = iota
	ScanSearching
	ScanStreaming
	ScanExhausted
)

func (p ScanPhase) String() string {
	switch p {
	case ScanInit:
		return "init"
	case ScanSearching:
		return "searching"
	case ScanStreaming:
		return "streaming"
	case ScanExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ScanState streams the result of one index search.
//
// A ScanState is owned by a single consumer. Discarding it cancels the scan.
type ScanState struct {
	query  stbox.BoundingBox
	phase  ScanPhase
	rowIDs []int64
	next   int
}

// Phase returns the current phase.
func (s *ScanState) Phase() ScanPhase { return s.phase }

// Query returns the normalized query box.
func (s *ScanState) Query() stbox.BoundingBox { return s.query }

// Total returns the number of matching row ids.
func (s *ScanState) Total() int { return len(s.rowIDs) }

// Remaining returns the number of row ids not handed out yet.
func (s *ScanState) Remaining() int { return len(s.rowIDs) - s.next }

// InitializeScan decodes the binary query box and runs the search.
// A malformed box fails with ErrInvalidArgument.
func (idx *Index) InitializeScan(query []byte) (*ScanState, error) {
	box, err := stbox.Decode(query)
	if err != nil {
		return nil, fmt.Errorf("index %s: query box: %w", idx.name, err)
	}
	return idx.InitializeScanBox(box)
}

// InitializeScanBox runs the search for an already decoded query box.
func (idx *Index) InitializeScanBox(query stbox.BoundingBox) (*ScanState, error) {
	start := time.Now()
	state := &ScanState{query: stbox.Normalize(query), phase: ScanInit}

	state.phase = ScanSearching
	rowIDs, err := idx.Search(state.query)
	idx.cfg.Metrics.OnScan(time.Since(start), len(rowIDs), err)
	if err != nil {
		return nil, err
	}

	state.rowIDs = rowIDs
	state.phase = ScanStreaming
	if len(rowIDs) == 0 {
		state.phase = ScanExhausted
	}
	idx.logger.Debug("index scan initialized", "matches", len(rowIDs))
	return state, nil
}

// Scan copies up to len(out) unread row ids, but at most the configured batch
// size, into out and returns how many it copied. Once every id has been
// handed out it returns 0.
func (idx *Index) Scan(state *ScanState, out []int64) int {
	if state.phase != ScanStreaming {
		return 0
	}
	n := min(len(out), idx.cfg.ScanBatchSize, state.Remaining())
	copy(out, state.rowIDs[state.next:state.next+n])
	state.next += n
	if state.Remaining() == 0 {
		state.phase = ScanExhausted
	}
	return n
}
