package rtreeidx

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/stbox"
)

// ScanBindData is the bind data of the index scan table function.
type ScanBindData struct {
	Table *engine.Table
	Index *Index

	// Query is the normalized query box.
	Query stbox.BoundingBox
}

type scanGlobalState struct {
	bind      *ScanBindData
	state     *ScanState
	rowIDs    []int64
	columnIDs []int
}

// ScanFunction returns the table function that serves a LogicalGet from an
// index: it searches once and then fetches the matching rows batch by batch.
func ScanFunction() *engine.TableFunction {
	return &engine.TableFunction{
		Name:        ScanFunctionName,
		InitGlobal:  initIndexScan,
		Execute:     executeIndexScan,
		Cardinality: indexScanCardinality,
		ToString:    indexScanToString,
	}
}

func initIndexScan(_ context.Context, in *engine.TableFunctionInitInput) (any, error) {
	bind, ok := in.BindData.(*ScanBindData)
	if !ok {
		return nil, fmt.Errorf("%w: %s bind data is %T", ErrInternal, ScanFunctionName, in.BindData)
	}
	if len(in.Filters) > 0 {
		return nil, fmt.Errorf("%w: %s does not evaluate table filters", ErrInternal, ScanFunctionName)
	}
	state, err := bind.Index.InitializeScanBox(bind.Query)
	if err != nil {
		return nil, err
	}
	return &scanGlobalState{
		bind:      bind,
		state:     state,
		rowIDs:    make([]int64, bind.Index.cfg.ScanBatchSize),
		columnIDs: in.OutputColumnIDs(),
	}, nil
}

func executeIndexScan(_ context.Context, in *engine.TableFunctionInput, out *engine.Chunk) error {
	gs, ok := in.GlobalState.(*scanGlobalState)
	if !ok {
		return fmt.Errorf("%w: %s global state is %T", ErrInternal, ScanFunctionName, in.GlobalState)
	}
	// Rows deleted since the search are dropped by Fetch; keep pulling until
	// something survives or the scan is exhausted.
	for out.Size() == 0 {
		n := gs.bind.Index.Scan(gs.state, gs.rowIDs)
		if n == 0 {
			return nil
		}
		chunk := gs.bind.Table.Fetch(gs.rowIDs[:n], gs.columnIDs)
		for row := 0; row < chunk.Size(); row++ {
			out.AppendRow(chunk.Row(row))
		}
	}
	return nil
}

func indexScanCardinality(bindData any) (int, bool) {
	bind, ok := bindData.(*ScanBindData)
	if !ok {
		return 0, false
	}
	return bind.Index.Len(), true
}

func indexScanToString(bindData any) map[string]string {
	bind, ok := bindData.(*ScanBindData)
	if !ok {
		return nil
	}
	return map[string]string{
		"index":         bind.Index.Name(),
		"index_type":    TypeName,
		"query":         bind.Query.String(),
		"index_entries": strconv.Itoa(bind.Index.Len()),
	}
}
