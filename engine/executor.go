package engine

import (
	"context"
	"fmt"

	"github.com/hupe1980/stboxidx/codec"
)

// Result is a materialized result set.
type Result struct {
	Names []string
	Types []LogicalType
	Rows  [][]Value
}

// Len returns the number of rows.
func (r *Result) Len() int {
	return len(r.Rows)
}

// Column returns every value of column i.
func (r *Result) Column(i int) []Value {
	out := make([]Value, len(r.Rows))
	for row := range r.Rows {
		out[row] = r.Rows[row][i]
	}
	return out
}

// MarshalJSON encodes the rows as an array of objects keyed by column name.
func (r *Result) MarshalJSON() ([]byte, error) {
	rows := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		obj := make(map[string]any, len(row))
		for j, v := range row {
			obj[r.Names[j]] = v.Interface()
		}
		rows[i] = obj
	}
	return codec.Default.Marshal(rows)
}

// executor runs logical operators directly, materializing every operator's
// output before the parent consumes it.
type executor struct {
	eval *EvalContext
}

func (x *executor) execute(ctx context.Context, op LogicalOperator) ([][]Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch op := op.(type) {
	case *LogicalGet:
		return x.executeGet(ctx, op)
	case *LogicalFilter:
		return x.executeFilter(ctx, op)
	case *LogicalProjection:
		return x.executeProjection(ctx, op)
	default:
		return nil, fmt.Errorf("%w: cannot execute operator %T", ErrBinder, op)
	}
}

func (x *executor) executeGet(ctx context.Context, g *LogicalGet) ([][]Value, error) {
	fn := g.Function
	state, err := fn.InitGlobal(ctx, &TableFunctionInitInput{
		BindData:      g.BindData,
		Table:         g.Table,
		ColumnIDs:     g.ColumnIDs,
		ProjectionIDs: g.ProjectionIDs,
		Filters:       g.TableFilters,
		Eval:          x.eval,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: init: %w", fn.Name, err)
	}

	input := &TableFunctionInput{BindData: g.BindData, GlobalState: state}
	types := g.Types()
	var rows [][]Value
	for {
		out := NewChunk(types, StandardVectorSize)
		if err := fn.Execute(ctx, input, out); err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name, err)
		}
		if out.Size() == 0 {
			return rows, nil
		}
		rows = append(rows, out.Rows()...)
	}
}

func (x *executor) executeFilter(ctx context.Context, f *LogicalFilter) ([][]Value, error) {
	input, err := x.execute(ctx, f.Child)
	if err != nil {
		return nil, err
	}
	bindings := f.Child.Bindings()
	exprs := make([]Expression, len(f.Expressions))
	for i, e := range f.Expressions {
		if exprs[i], err = BindExpression(e, bindings); err != nil {
			return nil, err
		}
	}

	var rows [][]Value
	for _, row := range input {
		keep := true
		for _, e := range exprs {
			v, err := e.Eval(x.eval, row)
			if err != nil {
				return nil, err
			}
			if b, ok := v.AsBool(); !ok || !b {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, projectSlice(row, f.ProjectionMap))
		}
	}
	return rows, nil
}

func (x *executor) executeProjection(ctx context.Context, p *LogicalProjection) ([][]Value, error) {
	input, err := x.execute(ctx, p.Child)
	if err != nil {
		return nil, err
	}
	bindings := p.Child.Bindings()
	exprs := make([]Expression, len(p.Expressions))
	for i, e := range p.Expressions {
		if exprs[i], err = BindExpression(e, bindings); err != nil {
			return nil, err
		}
	}

	rows := make([][]Value, len(input))
	for r, row := range input {
		out := make([]Value, len(exprs))
		for i, e := range exprs {
			if out[i], err = e.Eval(x.eval, row); err != nil {
				return nil, err
			}
		}
		rows[r] = out
	}
	return rows, nil
}
