// Package eligibility implements the construction-time check every
// optimised graph must pass before it may be wrapped in an
// InferenceModule (§4.3): the graph must be fully frozen (no remaining
// attribute reads) and every graph output must be a shape the Memory
// Planner and Processed Node dispatcher know how to manage.
package eligibility

import (
	"errors"
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
)

// ErrUnfrozenGraph is returned when a node still reads a module attribute
// — the Inline/ConstantPropagation passes should have erased every such
// node from a truly frozen graph.
var ErrUnfrozenGraph = errors.New("eligibility: graph is not frozen (attribute read present)")

// ErrUnsupportedOutputType is returned when a graph output's type is
// anything other than Tensor, None, or a Tuple/List whose every element
// is a Tensor.
var ErrUnsupportedOutputType = errors.New("eligibility: unsupported graph output type")

// Check runs both eligibility rules against g and returns the first
// violation found, wrapped with enough context to locate it. A nil
// return means g is eligible to become an InferenceModule.
func Check(g *ir.Graph) error {
	for _, n := range g.Nodes {
		if n.Kind == ir.KindAttributeRead {
			return fmt.Errorf("%w: node %d", ErrUnfrozenGraph, n.ID)
		}
	}

	for i, out := range g.Outputs {
		if !outputSupported(out) {
			return fmt.Errorf("%w: output %d has type %s", ErrUnsupportedOutputType, i, out.Type)
		}
	}

	return nil
}

// outputSupported reports whether out is Tensor, None, or a Tuple/List
// all of whose elements are Tensor-typed. Value.Type alone can't encode
// "tuple of tensors" vs. "tuple of other tuples" — that requires walking
// the TupleConstruct/ListConstruct producer's inputs, which
// IsTensorOnlyAggregate does.
func outputSupported(out *ir.Value) bool {
	switch out.Type {
	case ir.TypeTensor, ir.TypeNone:
		return true
	case ir.TypeTuple, ir.TypeList:
		return out.IsTensorOnlyAggregate()
	default:
		return false
	}
}
