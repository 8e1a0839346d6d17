package engine

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// OperatorType identifies a logical operator.
type OperatorType uint8

const (
	OperatorGet OperatorType = iota
	OperatorFilter
	OperatorProjection
)

func (t OperatorType) String() string {
	switch t {
	case OperatorGet:
		return "GET"
	case OperatorFilter:
		return "FILTER"
	case OperatorProjection:
		return "PROJECTION"
	default:
		return "UNKNOWN"
	}
}

// LogicalOperator is a node of a logical plan.
type LogicalOperator interface {
	OperatorType() OperatorType
	Children() []LogicalOperator
	SetChild(i int, child LogicalOperator)

	// Bindings returns the binding of every output column.
	Bindings() []ColumnBinding

	// Types returns the type of every output column.
	Types() []LogicalType

	// ExplainParams returns the operator details shown by Explain.
	ExplainParams() map[string]string
}

// LogicalGet reads from a table through a table function.
//
// Output column i is bound as (TableIndex, i) where i indexes ColumnIDs. When
// ProjectionIDs is set, only those positions are emitted, in that order, with
// their original bindings.
type LogicalGet struct {
	TableIndex int
	Table      *Table
	Function   *TableFunction
	BindData   any

	// ColumnIDs are storage column ids; ColumnRowID selects the row id.
	ColumnIDs     []int
	ProjectionIDs []int

	// TableFilters are keyed by storage column id.
	TableFilters TableFilterSet

	EstimatedCardinality    int
	HasEstimatedCardinality bool
}

func (g *LogicalGet) OperatorType() OperatorType    { return OperatorGet }
func (g *LogicalGet) Children() []LogicalOperator   { return nil }
func (g *LogicalGet) SetChild(int, LogicalOperator) { panic("logical get has no children") }

// OutputPositions returns the ColumnIDs positions emitted by the get.
func (g *LogicalGet) OutputPositions() []int {
	if len(g.ProjectionIDs) > 0 {
		return g.ProjectionIDs
	}
	out := make([]int, len(g.ColumnIDs))
	for i := range out {
		out[i] = i
	}
	return out
}

func (g *LogicalGet) Bindings() []ColumnBinding {
	pos := g.OutputPositions()
	out := make([]ColumnBinding, len(pos))
	for i, p := range pos {
		out[i] = ColumnBinding{TableIndex: g.TableIndex, ColumnIndex: p}
	}
	return out
}

func (g *LogicalGet) Types() []LogicalType {
	pos := g.OutputPositions()
	out := make([]LogicalType, len(pos))
	for i, p := range pos {
		out[i] = g.Table.columnType(g.ColumnIDs[p])
	}
	return out
}

// ColumnName returns the name of a storage column id.
func (g *LogicalGet) ColumnName(id int) string {
	if id == ColumnRowID {
		return "rowid"
	}
	return g.Table.columns[id].Name
}

// Column returns a reference to the named column, adding it to ColumnIDs if
// the get does not read it yet.
func (g *LogicalGet) Column(name string) (*ColumnRef, error) {
	id := ColumnRowID
	if !strings.EqualFold(name, "rowid") {
		var ok bool
		id, ok = g.Table.ColumnIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: column %s not found in table %s", ErrBinder, name, g.Table.Name())
		}
	}
	pos := slices.Index(g.ColumnIDs, id)
	if pos < 0 {
		g.ColumnIDs = append(g.ColumnIDs, id)
		pos = len(g.ColumnIDs) - 1
		if len(g.ProjectionIDs) > 0 {
			g.ProjectionIDs = append(g.ProjectionIDs, pos)
		}
	}
	return &ColumnRef{
		Binding: ColumnBinding{TableIndex: g.TableIndex, ColumnIndex: pos},
		Type:    g.Table.columnType(id),
		Name:    g.ColumnName(id),
	}, nil
}

func (g *LogicalGet) ExplainParams() map[string]string {
	params := map[string]string{
		"function": g.Function.Name,
		"table":    g.Table.Name(),
	}
	names := make([]string, len(g.ColumnIDs))
	for i, id := range g.ColumnIDs {
		names[i] = g.ColumnName(id)
	}
	params["columns"] = strings.Join(names, ", ")
	if len(g.ProjectionIDs) > 0 {
		params["projection"] = joinInts(g.ProjectionIDs)
	}
	if len(g.TableFilters) > 0 {
		filters := make([]string, 0, len(g.TableFilters))
		for _, col := range g.TableFilters.Columns() {
			filters = append(filters, g.TableFilters[col].String(g.ColumnName(col)))
		}
		params["filters"] = strings.Join(filters, " AND ")
	}
	if g.HasEstimatedCardinality {
		params["estimated_cardinality"] = strconv.Itoa(g.EstimatedCardinality)
	}
	if g.Function.ToString != nil {
		for k, v := range g.Function.ToString(g.BindData) {
			params[k] = v
		}
	}
	return params
}

// LogicalFilter keeps the rows for which every expression is true.
type LogicalFilter struct {
	Expressions []Expression

	// ProjectionMap selects child output positions; empty emits all.
	ProjectionMap []int

	Child LogicalOperator
}

func (f *LogicalFilter) OperatorType() OperatorType  { return OperatorFilter }
func (f *LogicalFilter) Children() []LogicalOperator { return []LogicalOperator{f.Child} }

func (f *LogicalFilter) SetChild(i int, child LogicalOperator) {
	if i != 0 {
		panic("logical filter has one child")
	}
	f.Child = child
}

func (f *LogicalFilter) Bindings() []ColumnBinding {
	return projectSlice(f.Child.Bindings(), f.ProjectionMap)
}

func (f *LogicalFilter) Types() []LogicalType {
	return projectSlice(f.Child.Types(), f.ProjectionMap)
}

func (f *LogicalFilter) ExplainParams() map[string]string {
	params := map[string]string{"expressions": joinExpressions(f.Expressions, " AND ")}
	if len(f.ProjectionMap) > 0 {
		params["projection"] = joinInts(f.ProjectionMap)
	}
	return params
}

// LogicalProjection computes expressions over its child.
type LogicalProjection struct {
	TableIndex  int
	Expressions []Expression
	Child       LogicalOperator
}

func (p *LogicalProjection) OperatorType() OperatorType  { return OperatorProjection }
func (p *LogicalProjection) Children() []LogicalOperator { return []LogicalOperator{p.Child} }

func (p *LogicalProjection) SetChild(i int, child LogicalOperator) {
	if i != 0 {
		panic("logical projection has one child")
	}
	p.Child = child
}

func (p *LogicalProjection) Bindings() []ColumnBinding {
	out := make([]ColumnBinding, len(p.Expressions))
	for i := range out {
		out[i] = ColumnBinding{TableIndex: p.TableIndex, ColumnIndex: i}
	}
	return out
}

func (p *LogicalProjection) Types() []LogicalType {
	out := make([]LogicalType, len(p.Expressions))
	for i, e := range p.Expressions {
		out[i] = e.ReturnType()
	}
	return out
}

func (p *LogicalProjection) ExplainParams() map[string]string {
	return map[string]string{"expressions": joinExpressions(p.Expressions, ", ")}
}

func projectSlice[T any](in []T, positions []int) []T {
	if len(positions) == 0 {
		return in
	}
	out := make([]T, len(positions))
	for i, p := range positions {
		out[i] = in[p]
	}
	return out
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

// BindExpression resolves every ColumnRef in e to a BoundRef at its position
// in bindings.
func BindExpression(e Expression, bindings []ColumnBinding) (Expression, error) {
	return RewriteExpression(e, func(n Expression) (Expression, error) {
		ref, ok := n.(*ColumnRef)
		if !ok {
			return n, nil
		}
		pos := slices.Index(bindings, ref.Binding)
		if pos < 0 {
			return nil, fmt.Errorf("%w: column %s (%s) is not produced by the child operator", ErrBinder, ref.Name, ref.Binding)
		}
		return &BoundRef{Index: pos, Type: ref.Type, Name: ref.Name}, nil
	})
}

// Walk visits op and its descendants in pre-order.
func Walk(op LogicalOperator, fn func(LogicalOperator)) {
	fn(op)
	for _, c := range op.Children() {
		Walk(c, fn)
	}
}
