package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScalarFunction is a registered row-wise function.
type ScalarFunction struct {
	Name       string
	Arguments  []LogicalType
	ReturnType LogicalType

	// HandlesNull makes the function receive null arguments instead of
	// short-circuiting to null.
	HandlesNull bool

	Fn func(args []Value) (Value, error)
}

// OptimizerExtension rewrites a logical plan after the built-in passes.
type OptimizerExtension interface {
	Name() string
	Optimize(ctx context.Context, plan LogicalOperator) (LogicalOperator, error)
}

// Pragma is a named administrative call returning a result set.
type Pragma struct {
	Name string
	Fn   func(ctx context.Context, db *DB, args []Value) (*Result, error)
}

// Registry holds everything extensions register with the host.
type Registry struct {
	mu              sync.RWMutex
	indexTypes      map[string]IndexType
	tableFunctions  map[string]*TableFunction
	scalarFunctions map[string]*ScalarFunction
	optimizers      []OptimizerExtension
	pragmas         map[string]Pragma
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		indexTypes:      make(map[string]IndexType),
		tableFunctions:  make(map[string]*TableFunction),
		scalarFunctions: make(map[string]*ScalarFunction),
		pragmas:         make(map[string]Pragma),
	}
}

func registryKey(name string) string {
	return strings.ToLower(name)
}

// RegisterIndexType adds an index implementation.
func (r *Registry) RegisterIndexType(t IndexType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.indexTypes[registryKey(t.Name)]; ok {
		return fmt.Errorf("%w: index type %s", ErrAlreadyExists, t.Name)
	}
	r.indexTypes[registryKey(t.Name)] = t
	return nil
}

// IndexType looks up an index implementation.
func (r *Registry) IndexType(name string) (IndexType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.indexTypes[registryKey(name)]
	return t, ok
}

// RegisterTableFunction adds a table function.
func (r *Registry) RegisterTableFunction(fn *TableFunction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tableFunctions[registryKey(fn.Name)]; ok {
		return fmt.Errorf("%w: table function %s", ErrAlreadyExists, fn.Name)
	}
	r.tableFunctions[registryKey(fn.Name)] = fn
	return nil
}

// TableFunction looks up a table function.
func (r *Registry) TableFunction(name string) (*TableFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.tableFunctions[registryKey(name)]
	return fn, ok
}

// RegisterScalarFunction adds a scalar function.
func (r *Registry) RegisterScalarFunction(fn *ScalarFunction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scalarFunctions[registryKey(fn.Name)]; ok {
		return fmt.Errorf("%w: scalar function %s", ErrAlreadyExists, fn.Name)
	}
	r.scalarFunctions[registryKey(fn.Name)] = fn
	return nil
}

// ScalarFunction looks up a scalar function.
func (r *Registry) ScalarFunction(name string) (*ScalarFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.scalarFunctions[registryKey(name)]
	return fn, ok
}

// RegisterOptimizer appends an optimizer extension. Extensions run in
// registration order.
func (r *Registry) RegisterOptimizer(ext OptimizerExtension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optimizers = append(r.optimizers, ext)
}

// Optimizers returns the registered optimizer extensions.
func (r *Registry) Optimizers() []OptimizerExtension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]OptimizerExtension(nil), r.optimizers...)
}

// RegisterPragma adds a pragma.
func (r *Registry) RegisterPragma(p Pragma) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pragmas[registryKey(p.Name)]; ok {
		return fmt.Errorf("%w: pragma %s", ErrAlreadyExists, p.Name)
	}
	r.pragmas[registryKey(p.Name)] = p
	return nil
}

// Pragma looks up a pragma.
func (r *Registry) Pragma(name string) (Pragma, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pragmas[registryKey(name)]
	return p, ok
}
