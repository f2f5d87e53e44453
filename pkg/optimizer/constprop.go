package optimizer

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

// ConstantPropagationPass folds any node whose kind has a registered
// operator and whose every input traces back to a Constant node,
// evaluating it eagerly and rewriting it into a Constant in place. Runs
// four times in the fixed sequence (§4.2): after Inline, after
// Canonicalise, after RemoveMutation, and once more after the domain
// fusions, since each of those can expose fresh folding opportunities.
type ConstantPropagationPass struct {
	Registry *registry.Registry
}

func (ConstantPropagationPass) Name() string { return "constant-propagation" }

func (p ConstantPropagationPass) Run(g *ir.Graph) error {
	for {
		folded := false
		for _, n := range g.Nodes {
			if !foldable(n) {
				continue
			}
			if !allInputsConstant(n) {
				continue
			}
			if !p.Registry.HasAnyOperation(n) {
				continue
			}
			result, err := evalConstant(p.Registry, n)
			if err != nil {
				continue
			}
			foldInPlace(n, result)
			folded = true
		}
		if !folded {
			return nil
		}
	}
}

func foldable(n *ir.Node) bool {
	if n.IsSpecial() {
		return false
	}
	switch n.Kind {
	case ir.KindParam, ir.KindConstant, ir.KindCall, ir.KindAttributeRead:
		return false
	}
	return len(n.Outputs) == 1
}

func allInputsConstant(n *ir.Node) bool {
	for _, in := range n.Inputs {
		if in == nil || in.Producer == nil || in.Producer.Kind != ir.KindConstant {
			return false
		}
	}
	return len(n.Inputs) > 0
}

// constFoldCtx is a registry.OpContext over constant-valued inputs, used
// only during constant folding — a real Processed Node's context is
// pkg/runtime's, this one exists purely so the optimizer can reuse the
// same dispatch functions pkg/kernels registers.
type constFoldCtx struct {
	inputs  []tensor.IValue
	outputs []tensor.IValue
}

func (c *constFoldCtx) NumInputs() int             { return len(c.inputs) }
func (c *constFoldCtx) Input(i int) tensor.IValue   { return c.inputs[i] }
func (c *constFoldCtx) NumOutputs() int             { return len(c.outputs) }
func (c *constFoldCtx) Output(i int) *tensor.IValue { return &c.outputs[i] }

func constantValue(v *ir.Value) (tensor.IValue, error) {
	attrs := v.Producer.Attrs
	shape, _ := attrs["shape"].([]int)
	values, _ := attrs["value"].([]float32)
	if shape == nil && values == nil {
		return tensor.IValue{}, fmt.Errorf("optimizer: constant node %d carries no foldable value", v.Producer.ID)
	}
	return tensor.FromTensor(tensor.FromFloat32(shape, values)), nil
}

func evalConstant(r *registry.Registry, n *ir.Node) (*tensor.Tensor, error) {
	ctx := &constFoldCtx{
		inputs:  make([]tensor.IValue, len(n.Inputs)),
		outputs: make([]tensor.IValue, len(n.Outputs)),
	}
	for i, in := range n.Inputs {
		iv, err := constantValue(in)
		if err != nil {
			return nil, err
		}
		ctx.inputs[i] = iv
	}
	fn, ok := r.GetNativeOperation(n)
	if !ok {
		return nil, fmt.Errorf("optimizer: %s has no native operation to fold with", n.Kind)
	}
	if err := fn(ctx, n); err != nil {
		return nil, err
	}
	out := ctx.outputs[0]
	if !out.IsTensor() {
		return nil, fmt.Errorf("optimizer: folded %s did not produce a tensor", n.Kind)
	}
	return out.Tensor(), nil
}

// foldInPlace turns n into a Constant node carrying result, preserving
// its single output Value's identity so every existing use stays valid
// without any graph surgery beyond detaching n's old inputs.
func foldInPlace(n *ir.Node, result *tensor.Tensor) {
	for slot, in := range n.Inputs {
		if in != nil {
			in.RemoveUse(n, slot)
		}
	}
	n.Inputs = nil
	n.Kind = ir.KindConstant
	n.Attrs = map[string]any{
		"shape": result.Shape(),
		"value": result.Data(),
	}
}
