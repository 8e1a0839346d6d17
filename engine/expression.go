package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a bound scalar expression.
type Expression interface {
	// ReturnType returns the type the expression evaluates to.
	ReturnType() LogicalType

	// Children returns the direct sub-expressions.
	Children() []Expression

	// WithChildren returns a copy of the node with children replaced.
	WithChildren(children []Expression) Expression

	// Equals reports structural equality.
	Equals(other Expression) bool

	// Copy returns a deep copy.
	Copy() Expression

	// String renders the expression for explains.
	String() string

	// Eval evaluates the expression against one row. Column references must
	// have been resolved to BoundRef positions first.
	Eval(ec *EvalContext, row []Value) (Value, error)
}

// EvalContext resolves scalar functions during evaluation.
type EvalContext struct {
	registry *Registry
}

// NewEvalContext returns an evaluation context backed by registry.
func NewEvalContext(registry *Registry) *EvalContext {
	return &EvalContext{registry: registry}
}

// ColumnBinding identifies an operator output column.
type ColumnBinding struct {
	TableIndex  int
	ColumnIndex int
}

func (b ColumnBinding) String() string {
	return "#[" + strconv.Itoa(b.TableIndex) + "." + strconv.Itoa(b.ColumnIndex) + "]"
}

// ColumnRef references an output column of a child operator by binding.
type ColumnRef struct {
	Binding ColumnBinding
	Type    LogicalType
	Name    string
}

func (e *ColumnRef) ReturnType() LogicalType              { return e.Type }
func (e *ColumnRef) Children() []Expression               { return nil }
func (e *ColumnRef) WithChildren([]Expression) Expression { return e.Copy() }
func (e *ColumnRef) Copy() Expression                     { c := *e; return &c }

func (e *ColumnRef) Equals(other Expression) bool {
	o, ok := other.(*ColumnRef)
	return ok && o.Binding == e.Binding && o.Type == e.Type
}

func (e *ColumnRef) String() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Binding.String()
}

func (e *ColumnRef) Eval(*EvalContext, []Value) (Value, error) {
	return Value{}, fmt.Errorf("%w: unresolved column reference %s", ErrBinder, e)
}

// BoundRef references a position in the input row.
type BoundRef struct {
	Index int
	Type  LogicalType
	Name  string
}

func (e *BoundRef) ReturnType() LogicalType              { return e.Type }
func (e *BoundRef) Children() []Expression               { return nil }
func (e *BoundRef) WithChildren([]Expression) Expression { return e.Copy() }
func (e *BoundRef) Copy() Expression                     { c := *e; return &c }

func (e *BoundRef) Equals(other Expression) bool {
	o, ok := other.(*BoundRef)
	return ok && o.Index == e.Index && o.Type == e.Type
}

func (e *BoundRef) String() string {
	if e.Name != "" {
		return e.Name
	}
	return "#" + strconv.Itoa(e.Index)
}

func (e *BoundRef) Eval(_ *EvalContext, row []Value) (Value, error) {
	if e.Index < 0 || e.Index >= len(row) {
		return Value{}, fmt.Errorf("%w: reference #%d out of range for %d columns", ErrBinder, e.Index, len(row))
	}
	return row[e.Index], nil
}

// Constant is a literal.
type Constant struct {
	Value Value
	Type  LogicalType
}

func (e *Constant) ReturnType() LogicalType              { return e.Type }
func (e *Constant) Children() []Expression               { return nil }
func (e *Constant) WithChildren([]Expression) Expression { return e.Copy() }
func (e *Constant) Copy() Expression                     { return &Constant{Value: e.Value.Copy(), Type: e.Type} }
func (e *Constant) String() string                       { return e.Value.String() }

func (e *Constant) Equals(other Expression) bool {
	o, ok := other.(*Constant)
	return ok && o.Type == e.Type && o.Value.Equal(e.Value)
}

func (e *Constant) Eval(*EvalContext, []Value) (Value, error) {
	return e.Value, nil
}

// Function is a call of a registered scalar function.
type Function struct {
	Name string
	Args []Expression
	Type LogicalType
}

func (e *Function) ReturnType() LogicalType { return e.Type }
func (e *Function) Children() []Expression  { return e.Args }

func (e *Function) WithChildren(children []Expression) Expression {
	return &Function{Name: e.Name, Args: children, Type: e.Type}
}

func (e *Function) Copy() Expression {
	return e.WithChildren(copyAll(e.Args))
}

func (e *Function) Equals(other Expression) bool {
	o, ok := other.(*Function)
	return ok && o.Name == e.Name && o.Type == e.Type && equalAll(o.Args, e.Args)
}

func (e *Function) String() string {
	if isOperatorName(e.Name) && len(e.Args) == 2 {
		return "(" + e.Args[0].String() + " " + e.Name + " " + e.Args[1].String() + ")"
	}
	return e.Name + "(" + joinExpressions(e.Args, ", ") + ")"
}

func (e *Function) Eval(ec *EvalContext, row []Value) (Value, error) {
	if ec == nil || ec.registry == nil {
		return Value{}, fmt.Errorf("%w: no function registry to evaluate %s", ErrBinder, e.Name)
	}
	fn, ok := ec.registry.ScalarFunction(e.Name)
	if !ok {
		return Value{}, fmt.Errorf("%w: scalar function %s", ErrNotFound, e.Name)
	}
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := a.Eval(ec, row)
		if err != nil {
			return Value{}, err
		}
		if v.IsNull() && !fn.HandlesNull {
			return Null(), nil
		}
		args[i] = v
	}
	return fn.Fn(args)
}

func isOperatorName(name string) bool {
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_' {
			return false
		}
	}
	return name != ""
}

// CompareOp is a comparison operator.
type CompareOp uint8

const (
	CompareEqual CompareOp = iota
	CompareNotEqual
	CompareLessThan
	CompareLessEqual
	CompareGreaterThan
	CompareGreaterEqual
)

func (op CompareOp) String() string {
	switch op {
	case CompareEqual:
		return "="
	case CompareNotEqual:
		return "!="
	case CompareLessThan:
		return "<"
	case CompareLessEqual:
		return "<="
	case CompareGreaterThan:
		return ">"
	case CompareGreaterEqual:
		return ">="
	default:
		return "?"
	}
}

// Holds reports whether the ordering result c satisfies op.
func (op CompareOp) Holds(c int) bool {
	switch op {
	case CompareEqual:
		return c == 0
	case CompareNotEqual:
		return c != 0
	case CompareLessThan:
		return c < 0
	case CompareLessEqual:
		return c <= 0
	case CompareGreaterThan:
		return c > 0
	case CompareGreaterEqual:
		return c >= 0
	default:
		return false
	}
}

// Comparison compares two expressions.
type Comparison struct {
	Op          CompareOp
	Left, Right Expression
}

func (e *Comparison) ReturnType() LogicalType { return Boolean }
func (e *Comparison) Children() []Expression  { return []Expression{e.Left, e.Right} }

func (e *Comparison) WithChildren(children []Expression) Expression {
	return &Comparison{Op: e.Op, Left: children[0], Right: children[1]}
}

func (e *Comparison) Copy() Expression {
	return &Comparison{Op: e.Op, Left: e.Left.Copy(), Right: e.Right.Copy()}
}

func (e *Comparison) Equals(other Expression) bool {
	o, ok := other.(*Comparison)
	return ok && o.Op == e.Op && o.Left.Equals(e.Left) && o.Right.Equals(e.Right)
}

func (e *Comparison) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

func (e *Comparison) Eval(ec *EvalContext, row []Value) (Value, error) {
	l, err := e.Left.Eval(ec, row)
	if err != nil {
		return Value{}, err
	}
	r, err := e.Right.Eval(ec, row)
	if err != nil {
		return Value{}, err
	}
	if l.IsNull() || r.IsNull() {
		return Null(), nil
	}
	c, ok := l.Compare(r)
	if !ok {
		return Value{}, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, l, r)
	}
	return Bool(e.Op.Holds(c)), nil
}

// ConjunctionOp is AND or OR.
type ConjunctionOp uint8

const (
	ConjunctionAnd ConjunctionOp = iota
	ConjunctionOr
)

func (op ConjunctionOp) String() string {
	if op == ConjunctionOr {
		return "OR"
	}
	return "AND"
}

// Conjunction combines boolean expressions with three-valued logic.
type Conjunction struct {
	Op       ConjunctionOp
	Operands []Expression
}

func (e *Conjunction) ReturnType() LogicalType { return Boolean }
func (e *Conjunction) Children() []Expression  { return e.Operands }

func (e *Conjunction) WithChildren(children []Expression) Expression {
	return &Conjunction{Op: e.Op, Operands: children}
}

func (e *Conjunction) Copy() Expression {
	return e.WithChildren(copyAll(e.Operands))
}

func (e *Conjunction) Equals(other Expression) bool {
	o, ok := other.(*Conjunction)
	return ok && o.Op == e.Op && equalAll(o.Operands, e.Operands)
}

func (e *Conjunction) String() string {
	return "(" + joinExpressions(e.Operands, " "+e.Op.String()+" ") + ")"
}

func (e *Conjunction) Eval(ec *EvalContext, row []Value) (Value, error) {
	sawNull := false
	for _, c := range e.Operands {
		v, err := c.Eval(ec, row)
		if err != nil {
			return Value{}, err
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		b, ok := v.AsBool()
		if !ok {
			return Value{}, fmt.Errorf("%w: %s operand %s is not boolean", ErrTypeMismatch, e.Op, c)
		}
		if e.Op == ConjunctionAnd && !b {
			return Bool(false), nil
		}
		if e.Op == ConjunctionOr && b {
			return Bool(true), nil
		}
	}
	if sawNull {
		return Null(), nil
	}
	return Bool(e.Op == ConjunctionAnd), nil
}

func copyAll(es []Expression) []Expression {
	out := make([]Expression, len(es))
	for i, e := range es {
		out[i] = e.Copy()
	}
	return out
}

func equalAll(a, b []Expression) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

func joinExpressions(es []Expression, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

// And returns the conjunction of exprs, or the single expression itself.
func And(exprs ...Expression) Expression {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &Conjunction{Op: ConjunctionAnd, Operands: exprs}
}

// WalkExpression visits e and its descendants in pre-order until fn returns
// false.
func WalkExpression(e Expression, fn func(Expression) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.Children() {
		if !WalkExpression(c, fn) {
			return false
		}
	}
	return true
}

// RewriteExpression rebuilds e bottom-up, replacing every node with fn(node).
// e itself is not modified.
func RewriteExpression(e Expression, fn func(Expression) (Expression, error)) (Expression, error) {
	node := e
	if children := e.Children(); len(children) > 0 {
		rewritten := make([]Expression, len(children))
		for i, c := range children {
			r, err := RewriteExpression(c, fn)
			if err != nil {
				return nil, err
			}
			rewritten[i] = r
		}
		node = e.WithChildren(rewritten)
	} else {
		node = e.Copy()
	}
	return fn(node)
}

// ColumnBindings returns the bindings referenced by e in visit order.
func ColumnBindings(e Expression) []ColumnBinding {
	var out []ColumnBinding
	WalkExpression(e, func(n Expression) bool {
		if ref, ok := n.(*ColumnRef); ok {
			out = append(out, ref.Binding)
		}
		return true
	})
	return out
}

// SplitConjunction flattens nested ANDs into their operands.
func SplitConjunction(e Expression) []Expression {
	c, ok := e.(*Conjunction)
	if !ok || c.Op != ConjunctionAnd {
		return []Expression{e}
	}
	var out []Expression
	for _, child := range c.Operands {
		out = append(out, SplitConjunction(child)...)
	}
	return out
}
