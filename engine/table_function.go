package engine

import (
	"context"
	"fmt"
	"sync"
)

// SeqScanName is the name of the built-in sequential scan.
const SeqScanName = "seq_scan"

// TableFunction produces the rows of a LogicalGet.
type TableFunction struct {
	Name string

	// InitGlobal creates the per-execution state passed to Execute.
	InitGlobal func(ctx context.Context, input *TableFunctionInitInput) (any, error)

	// Execute fills out with up to StandardVectorSize rows. Leaving out empty
	// signals the end of the scan.
	Execute func(ctx context.Context, input *TableFunctionInput, out *Chunk) error

	// Cardinality estimates the number of produced rows.
	Cardinality func(bindData any) (int, bool)

	// ToString adds function specific explain details.
	ToString func(bindData any) map[string]string
}

// TableFunctionInitInput is passed to TableFunction.InitGlobal.
type TableFunctionInitInput struct {
	BindData      any
	Table         *Table
	ColumnIDs     []int
	ProjectionIDs []int
	Filters       TableFilterSet
	Eval          *EvalContext
}

// OutputColumnIDs returns the storage column ids emitted, in output order.
func (in *TableFunctionInitInput) OutputColumnIDs() []int {
	if len(in.ProjectionIDs) == 0 {
		return in.ColumnIDs
	}
	out := make([]int, len(in.ProjectionIDs))
	for i, p := range in.ProjectionIDs {
		out[i] = in.ColumnIDs[p]
	}
	return out
}

// TableFunctionInput is passed to TableFunction.Execute.
type TableFunctionInput struct {
	BindData    any
	GlobalState any
}

// SeqScanBindData is the bind data of seq_scan.
type SeqScanBindData struct {
	Table *Table
}

type seqScanState struct {
	mu      sync.Mutex
	table   *Table
	next    RowID
	end     RowID
	output  []int
	filters []compiledFilter
	eval    *EvalContext
}

type compiledFilter struct {
	column int
	expr   Expression
}

// SeqScanFunction returns the built-in sequential scan. It evaluates pushed
// down table filters before emitting a row.
func SeqScanFunction() *TableFunction {
	return &TableFunction{
		Name: SeqScanName,
		InitGlobal: func(_ context.Context, in *TableFunctionInitInput) (any, error) {
			state := &seqScanState{
				table:  in.Table,
				end:    RowID(in.Table.RowCount()),
				output: in.OutputColumnIDs(),
				eval:   in.Eval,
			}
			for _, col := range in.Filters.Columns() {
				column := &BoundRef{Index: 0, Type: in.Table.columnType(col)}
				state.filters = append(state.filters, compiledFilter{
					column: col,
					expr:   in.Filters[col].ToExpression(column),
				})
			}
			return state, nil
		},
		Execute: func(ctx context.Context, in *TableFunctionInput, out *Chunk) error {
			state, ok := in.GlobalState.(*seqScanState)
			if !ok {
				return fmt.Errorf("%w: seq_scan state", ErrTypeMismatch)
			}
			return state.execute(ctx, out)
		},
		Cardinality: func(bindData any) (int, bool) {
			bd, ok := bindData.(*SeqScanBindData)
			if !ok {
				return 0, false
			}
			return bd.Table.Count(), true
		},
	}
}

func (s *seqScanState) execute(ctx context.Context, out *Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Read the filter columns together with the output columns.
	columnIDs := append([]int(nil), s.output...)
	filterPos := make([]int, len(s.filters))
	for i, f := range s.filters {
		filterPos[i] = len(columnIDs)
		columnIDs = append(columnIDs, f.column)
	}

	for out.Size() == 0 && s.next < s.end {
		p := Partition{Start: s.next, End: min(s.next+StandardVectorSize, s.end)}
		s.next = p.End
		err := s.table.ScanPartition(ctx, p, columnIDs, func(chunk *Chunk, _ []RowID) error {
			for row := 0; row < chunk.Size(); row++ {
				keep, err := s.matches(chunk, row, filterPos)
				if err != nil {
					return err
				}
				if !keep {
					continue
				}
				r := chunk.Row(row)
				out.AppendRow(r[:len(s.output)])
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *seqScanState) matches(chunk *Chunk, row int, filterPos []int) (bool, error) {
	for i, f := range s.filters {
		v, err := f.expr.Eval(s.eval, []Value{chunk.Value(filterPos[i], row)})
		if err != nil {
			return false, err
		}
		if b, ok := v.AsBool(); !ok || !b {
			return false, nil
		}
	}
	return true, nil
}
