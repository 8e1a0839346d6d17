package engine

import (
	"maps"
	"slices"
	"strings"
)

// TableFilterType identifies a TableFilter implementation.
type TableFilterType uint8

const (
	ConstantComparisonFilter TableFilterType = iota
	ExpressionFilterType
	ConjunctionAndFilterType
)

// TableFilter is a single-column predicate pushed into a scan.
type TableFilter interface {
	// FilterType identifies the implementation.
	FilterType() TableFilterType

	// ToExpression rebuilds the predicate over column.
	ToExpression(column Expression) Expression

	// Copy returns a deep copy.
	Copy() TableFilter

	// Equals reports structural equality.
	Equals(other TableFilter) bool

	// String renders the predicate over a column called name.
	String(name string) string
}

// ConstantFilter is `column <op> constant`.
type ConstantFilter struct {
	Op    CompareOp
	Value Value
}

func (f *ConstantFilter) FilterType() TableFilterType { return ConstantComparisonFilter }

func (f *ConstantFilter) ToExpression(column Expression) Expression {
	return &Comparison{Op: f.Op, Left: column, Right: &Constant{Value: f.Value, Type: column.ReturnType()}}
}

func (f *ConstantFilter) Copy() TableFilter {
	return &ConstantFilter{Op: f.Op, Value: f.Value.Copy()}
}

func (f *ConstantFilter) Equals(other TableFilter) bool {
	o, ok := other.(*ConstantFilter)
	return ok && o.Op == f.Op && o.Value.Equal(f.Value)
}

func (f *ConstantFilter) String(name string) string {
	return name + " " + f.Op.String() + " " + f.Value.String()
}

// ExpressionFilter is an arbitrary predicate whose only column reference is
// BoundRef{Index: 0}.
type ExpressionFilter struct {
	Expr Expression
}

func (f *ExpressionFilter) FilterType() TableFilterType { return ExpressionFilterType }

func (f *ExpressionFilter) ToExpression(column Expression) Expression {
	out, _ := RewriteExpression(f.Expr, func(e Expression) (Expression, error) {
		if ref, ok := e.(*BoundRef); ok && ref.Index == 0 {
			return column.Copy(), nil
		}
		return e, nil
	})
	return out
}

func (f *ExpressionFilter) Copy() TableFilter {
	return &ExpressionFilter{Expr: f.Expr.Copy()}
}

func (f *ExpressionFilter) Equals(other TableFilter) bool {
	o, ok := other.(*ExpressionFilter)
	return ok && o.Expr.Equals(f.Expr)
}

func (f *ExpressionFilter) String(name string) string {
	return f.ToExpression(&BoundRef{Name: name}).String()
}

// ConjunctionAndFilter holds several filters on the same column.
type ConjunctionAndFilter struct {
	Children []TableFilter
}

func (f *ConjunctionAndFilter) FilterType() TableFilterType { return ConjunctionAndFilterType }

func (f *ConjunctionAndFilter) ToExpression(column Expression) Expression {
	exprs := make([]Expression, len(f.Children))
	for i, c := range f.Children {
		exprs[i] = c.ToExpression(column)
	}
	return And(exprs...)
}

func (f *ConjunctionAndFilter) Copy() TableFilter {
	out := &ConjunctionAndFilter{Children: make([]TableFilter, len(f.Children))}
	for i, c := range f.Children {
		out.Children[i] = c.Copy()
	}
	return out
}

func (f *ConjunctionAndFilter) Equals(other TableFilter) bool {
	o, ok := other.(*ConjunctionAndFilter)
	if !ok || len(o.Children) != len(f.Children) {
		return false
	}
	for i := range f.Children {
		if !f.Children[i].Equals(o.Children[i]) {
			return false
		}
	}
	return true
}

func (f *ConjunctionAndFilter) String(name string) string {
	parts := make([]string, len(f.Children))
	for i, c := range f.Children {
		parts[i] = c.String(name)
	}
	return strings.Join(parts, " AND ")
}

// TableFilterSet maps storage column ids to pushed-down filters.
type TableFilterSet map[int]TableFilter

// Push adds f for column, combining with an existing filter through AND.
func (s TableFilterSet) Push(column int, f TableFilter) {
	existing, ok := s[column]
	if !ok {
		s[column] = f
		return
	}
	if and, ok := existing.(*ConjunctionAndFilter); ok {
		and.Children = append(and.Children, f)
		return
	}
	s[column] = &ConjunctionAndFilter{Children: []TableFilter{existing, f}}
}

// Columns returns the filtered storage column ids in ascending order.
func (s TableFilterSet) Columns() []int {
	return slices.Sorted(maps.Keys(s))
}

// Copy returns a deep copy.
func (s TableFilterSet) Copy() TableFilterSet {
	if s == nil {
		return nil
	}
	out := make(TableFilterSet, len(s))
	for k, f := range s {
		out[k] = f.Copy()
	}
	return out
}
