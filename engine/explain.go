package engine

import (
	"github.com/hupe1980/stboxidx/codec"
)

// ExplainNode is the rendering of one operator.
type ExplainNode struct {
	Operator string            `json:"operator"`
	Params   map[string]string `json:"params,omitempty"`
	Children []ExplainNode     `json:"children,omitempty"`
}

// ExplainTree renders op and its descendants.
func ExplainTree(op LogicalOperator) ExplainNode {
	n := ExplainNode{
		Operator: op.OperatorType().String(),
		Params:   op.ExplainParams(),
	}
	for _, c := range op.Children() {
		n.Children = append(n.Children, ExplainTree(c))
	}
	return n
}

// Explain encodes the plan with the default codec. Map keys are emitted in
// sorted order, so equal plans produce equal bytes.
func Explain(op LogicalOperator) ([]byte, error) {
	return codec.Default.Marshal(ExplainTree(op))
}
