package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// optimizer applies the built-in passes and then every registered extension.
type optimizer struct {
	registry       *Registry
	logger         *slog.Logger
	filterPushdown bool
}

func (o *optimizer) optimize(ctx context.Context, plan LogicalOperator) (LogicalOperator, error) {
	if o.filterPushdown {
		plan = pushdownFilters(plan)
	}
	for _, ext := range o.registry.Optimizers() {
		next, err := ext.Optimize(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("optimizer %s: %w", ext.Name(), err)
		}
		o.logger.DebugContext(ctx, "optimizer extension applied", "extension", ext.Name())
		plan = next
	}
	return plan, nil
}

// pushdownFilters moves single-column conjuncts of a filter sitting directly
// on a seq_scan into the scan's table filters. A filter left without
// expressions and without a projection map is removed.
func pushdownFilters(op LogicalOperator) LogicalOperator {
	for i, c := range op.Children() {
		op.SetChild(i, pushdownFilters(c))
	}

	f, ok := op.(*LogicalFilter)
	if !ok {
		return op
	}
	get, ok := f.Child.(*LogicalGet)
	if !ok || get.Function.Name != SeqScanName {
		return op
	}

	var remaining []Expression
	for _, e := range f.Expressions {
		for _, conjunct := range SplitConjunction(e) {
			if !pushFilter(get, conjunct) {
				remaining = append(remaining, conjunct)
			}
		}
	}
	f.Expressions = remaining
	if len(remaining) == 0 && len(f.ProjectionMap) == 0 {
		return get
	}
	return f
}

func pushFilter(get *LogicalGet, e Expression) bool {
	bindings := ColumnBindings(e)
	if len(bindings) == 0 {
		return false
	}
	b := bindings[0]
	for _, other := range bindings[1:] {
		if other != b {
			return false
		}
	}
	if b.TableIndex != get.TableIndex || b.ColumnIndex >= len(get.ColumnIDs) {
		return false
	}
	column := get.ColumnIDs[b.ColumnIndex]
	if get.TableFilters == nil {
		get.TableFilters = make(TableFilterSet)
	}

	if cmp, ok := e.(*Comparison); ok {
		if _, isRef := cmp.Left.(*ColumnRef); isRef {
			if c, isConst := cmp.Right.(*Constant); isConst {
				get.TableFilters.Push(column, &ConstantFilter{Op: cmp.Op, Value: c.Value})
				return true
			}
		}
		if c, isConst := cmp.Left.(*Constant); isConst {
			if _, isRef := cmp.Right.(*ColumnRef); isRef {
				get.TableFilters.Push(column, &ConstantFilter{Op: flip(cmp.Op), Value: c.Value})
				return true
			}
		}
	}

	expr, _ := RewriteExpression(e, func(n Expression) (Expression, error) {
		if ref, ok := n.(*ColumnRef); ok {
			return &BoundRef{Index: 0, Type: ref.Type}, nil
		}
		return n, nil
	})
	get.TableFilters.Push(column, &ExpressionFilter{Expr: expr})
	return true
}

func flip(op CompareOp) CompareOp {
	switch op {
	case CompareLessThan:
		return CompareGreaterThan
	case CompareLessEqual:
		return CompareGreaterEqual
	case CompareGreaterThan:
		return CompareLessThan
	case CompareGreaterEqual:
		return CompareLessEqual
	default:
		return op
	}
}
