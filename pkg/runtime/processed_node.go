package runtime

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

// ProcessedNode is one graph node precompiled for repeated invocation
// (§4.7): its input and output slots are resolved once, at Runtime
// construction, to stable addresses in the value table, and its dispatch
// function was chosen once and never reconsidered afterward.
//
// Implements registry.OpContext so the same dispatch functions pkg/kernels
// and pkg/optimizer's constant folder use can run unmodified against a
// live Runtime invocation.
type ProcessedNode struct {
	node    *ir.Node
	inputs  []*tensor.IValue
	outputs []*tensor.IValue

	outFn    registry.OutVariantFn
	nativeFn registry.NativeFn
}

func newProcessedNode(n *ir.Node, inputs, outputs []*tensor.IValue, outFn registry.OutVariantFn, nativeFn registry.NativeFn) *ProcessedNode {
	return &ProcessedNode{node: n, inputs: inputs, outputs: outputs, outFn: outFn, nativeFn: nativeFn}
}

func (p *ProcessedNode) NumInputs() int             { return len(p.inputs) }
func (p *ProcessedNode) Input(i int) tensor.IValue   { return *p.inputs[i] }
func (p *ProcessedNode) NumOutputs() int             { return len(p.outputs) }
func (p *ProcessedNode) Output(i int) *tensor.IValue { return p.outputs[i] }

// Run executes the node once, writing its result(s) into its bound output
// slots. Aggregate construction/unpacking kinds are handled inline, with
// no operator lookup at all; everything else dispatches to whichever of
// outFn/nativeFn Runtime construction selected.
func (p *ProcessedNode) Run() error {
	switch p.node.Kind {
	case ir.KindTupleConstruct:
		elems := make([]tensor.IValue, len(p.inputs))
		for i, in := range p.inputs {
			elems[i] = *in
		}
		*p.outputs[0] = tensor.NewTuple(elems...)
		return nil

	case ir.KindListConstruct:
		elems := make([]tensor.IValue, len(p.inputs))
		for i, in := range p.inputs {
			elems[i] = *in
		}
		*p.outputs[0] = tensor.NewList(elems...)
		return nil

	case ir.KindListUnpack:
		in := *p.inputs[0]
		if !in.IsList() {
			return fmt.Errorf("runtime: list_unpack input is %s, not a list", in.Kind())
		}
		elems := in.Elements()
		if len(elems) != len(p.outputs) {
			return fmt.Errorf("%w: list_unpack has %d elements, %d outputs", ErrArityMismatch, len(elems), len(p.outputs))
		}
		for i, e := range elems {
			*p.outputs[i] = e
		}
		return nil

	default:
		if p.outFn != nil {
			// The Memory Planner resets an unmanaged out-variant output (a
			// tuple/list element) to none after each run; give it a fresh
			// placeholder to write into, as Runtime construction did.
			for i, v := range p.node.Outputs {
				if v.Type == ir.TypeTensor && p.outputs[i].IsNone() {
					*p.outputs[i] = tensor.FromTensor(tensor.New([]int{0}))
				}
			}
			return p.outFn(p, p.node)
		}
		if p.nativeFn != nil {
			return p.nativeFn(p, p.node)
		}
		// Unreachable: Runtime construction rejects any non-special node
		// with neither dispatch function bound (ErrOperatorMissing).
		return fmt.Errorf("%w: %s", ErrOperatorMissing, p.node.Kind)
	}
}
