package rtreeidx

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/stbox"
)

// ScanOptimizer rewrites sequential scans into TRTREE index scans.
//
// A scan is rewritten when one of its predicates is an overlap function
// between an indexed column and a constant box. Two shapes are recognized:
// a pushed-down table filter on the indexed column, and a filter node
// directly above the scan. The matched table filter is answered by the index;
// every other table filter is pulled up into a filter node above the scan.
// A filter node that matched is kept as is.
type ScanOptimizer struct {
	cfg     *Config
	matcher overlapMatcher
	scan    *engine.TableFunction
	logger  *slog.Logger
}

// NewScanOptimizer returns the rewrite rule. scan is the table function the
// rewritten scans run; nil selects ScanFunction().
func NewScanOptimizer(cfg *Config, scan *engine.TableFunction) *ScanOptimizer {
	if cfg == nil {
		cfg = NewConfig()
	}
	if scan == nil {
		scan = ScanFunction()
	}
	return &ScanOptimizer{
		cfg:     cfg,
		matcher: overlapMatcher{names: cfg.overlapNames()},
		scan:    scan,
		logger:  cfg.Logger,
	}
}

// Name implements engine.OptimizerExtension.
func (o *ScanOptimizer) Name() string { return "rtree_index_scan_rewrite" }

// Optimize implements engine.OptimizerExtension. It visits the plan bottom-up.
func (o *ScanOptimizer) Optimize(ctx context.Context, plan engine.LogicalOperator) (engine.LogicalOperator, error) {
	return o.optimize(ctx, plan), nil
}

func (o *ScanOptimizer) optimize(ctx context.Context, op engine.LogicalOperator) engine.LogicalOperator {
	for i, c := range op.Children() {
		op.SetChild(i, o.optimize(ctx, c))
	}
	rewritten, err := o.TryRewrite(ctx, op)
	if err != nil {
		return op
	}
	return rewritten
}

// TryRewrite rewrites op if it is a sequential scan, or a filter directly
// above one, with a predicate an index can answer. It returns the operator
// that replaces op, or ErrNoMatch and leaves op untouched.
func (o *ScanOptimizer) TryRewrite(ctx context.Context, op engine.LogicalOperator) (engine.LogicalOperator, error) {
	switch op := op.(type) {
	case *engine.LogicalGet:
		return o.rewriteGet(ctx, op, nil)
	case *engine.LogicalFilter:
		if get, ok := op.Child.(*engine.LogicalGet); ok {
			return o.rewriteGet(ctx, get, op)
		}
	}
	return nil, ErrNoMatch
}

func (o *ScanOptimizer) rewriteGet(ctx context.Context, get *engine.LogicalGet, filter *engine.LogicalFilter) (engine.LogicalOperator, error) {
	if get.Function == nil || get.Function.Name != engine.SeqScanName || get.Table == nil {
		return nil, ErrNoMatch
	}
	indexes := tableIndexes(get.Table)
	if len(indexes) == 0 {
		return nil, ErrNoMatch
	}

	var (
		idx       *Index
		query     stbox.BoundingBox
		remaining engine.TableFilterSet
		found     bool
	)
	for _, candidate := range indexes {
		if filter != nil {
			query, found = o.matchFilter(candidate, get, filter)
			remaining = get.TableFilters
		} else {
			query, remaining, found = o.matchTableFilters(candidate, get)
		}
		if found {
			idx = candidate
			break
		}
	}
	if !found {
		o.cfg.Metrics.OnRewrite(false)
		return nil, ErrNoMatch
	}

	// Everything that can fail is computed before the plan is touched.
	pulled, err := pullUpFilters(get, remaining)
	if err != nil {
		o.cfg.Metrics.OnRewrite(false)
		o.logger.DebugContext(ctx, "index rewrite abandoned", "index", idx.Name(), "table", get.Table.Name(), "error", err)
		return nil, ErrNoMatch
	}

	bind := &ScanBindData{Table: get.Table, Index: idx, Query: query}
	get.Function = o.scan
	get.BindData = bind
	get.EstimatedCardinality, get.HasEstimatedCardinality = o.scan.Cardinality(bind)
	get.TableFilters = nil

	var out engine.LogicalOperator = get
	if filter != nil {
		out = filter
	}
	if len(pulled) > 0 {
		pulledFilter := &engine.LogicalFilter{
			Expressions:   pulled,
			ProjectionMap: get.ProjectionIDs,
			Child:         get,
		}
		get.ProjectionIDs = nil
		if filter != nil {
			filter.Child = pulledFilter
		} else {
			out = pulledFilter
		}
	}

	o.cfg.Metrics.OnRewrite(true)
	o.logger.InfoContext(ctx, "scan rewritten to index scan",
		"index", idx.Name(),
		"table", get.Table.Name(),
		"query", query.String(),
		"pulled_up", len(pulled),
	)
	return out, nil
}

// matchFilter looks for a matching conjunct in a filter above the scan. The
// index column is rebound to its position in the scan output.
func (o *ScanOptimizer) matchFilter(idx *Index, get *engine.LogicalGet, filter *engine.LogicalFilter) (stbox.BoundingBox, bool) {
	pos := slices.Index(get.ColumnIDs, idx.columnIDs[0])
	if pos < 0 {
		return stbox.BoundingBox{}, false
	}
	column := idx.UnboundExpression()
	column.Binding = engine.ColumnBinding{TableIndex: get.TableIndex, ColumnIndex: pos}

	for _, e := range filter.Expressions {
		for _, conjunct := range engine.SplitConjunction(e) {
			if box, ok := o.matcher.match(conjunct, column); ok {
				return box, true
			}
		}
	}
	return stbox.BoundingBox{}, false
}

// matchTableFilters looks for a matching table filter on the indexed column.
// It returns the table filters left once the match is removed.
func (o *ScanOptimizer) matchTableFilters(idx *Index, get *engine.LogicalGet) (stbox.BoundingBox, engine.TableFilterSet, bool) {
	col := idx.columnIDs[0]
	f, ok := get.TableFilters[col]
	if !ok {
		return stbox.BoundingBox{}, nil, false
	}
	// Table filters reference their column as input 0.
	column := &engine.BoundRef{Index: 0, Type: idx.keyType}

	switch f := f.(type) {
	case *engine.ExpressionFilter:
		box, ok := o.matcher.match(f.Expr, column)
		if !ok {
			return stbox.BoundingBox{}, nil, false
		}
		remaining := get.TableFilters.Copy()
		delete(remaining, col)
		return box, remaining, true
	case *engine.ConjunctionAndFilter:
		for i, child := range f.Children {
			ef, ok := child.(*engine.ExpressionFilter)
			if !ok {
				continue
			}
			box, ok := o.matcher.match(ef.Expr, column)
			if !ok {
				continue
			}
			remaining := get.TableFilters.Copy()
			rest := remaining[col].(*engine.ConjunctionAndFilter)
			rest.Children = slices.Delete(rest.Children, i, i+1)
			switch len(rest.Children) {
			case 0:
				delete(remaining, col)
			case 1:
				remaining[col] = rest.Children[0]
			}
			return box, remaining, true
		}
	}
	return stbox.BoundingBox{}, nil, false
}

// pullUpFilters turns table filters into expressions over the scan output.
// Each filter column is rebound from its storage id to its position in the
// scan's column list.
func pullUpFilters(get *engine.LogicalGet, filters engine.TableFilterSet) ([]engine.Expression, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	out := make([]engine.Expression, 0, len(filters))
	for _, col := range filters.Columns() {
		pos := slices.Index(get.ColumnIDs, col)
		if pos < 0 {
			return nil, fmt.Errorf("filter column %s is not read by the scan", get.ColumnName(col))
		}
		ref := &engine.ColumnRef{
			Binding: engine.ColumnBinding{TableIndex: get.TableIndex, ColumnIndex: pos},
			Type:    columnType(get.Table, col),
			Name:    get.ColumnName(col),
		}
		out = append(out, filters[col].ToExpression(ref))
	}
	return out, nil
}

func columnType(t *engine.Table, col int) engine.LogicalType {
	if col == engine.ColumnRowID {
		return engine.RowIDType
	}
	return t.Columns()[col].Type
}

func tableIndexes(t *engine.Table) []*Index {
	var out []*Index
	for _, idx := range t.Indexes() {
		if ti, ok := idx.(*Index); ok && !ti.closed.Load() {
			out = append(out, ti)
		}
	}
	return out
}
