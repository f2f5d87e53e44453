// Package kernels implements the numeric and view operations the op
// registry dispatches to. It is the pure-Go replacement for the teacher's
// cgo-backed pkg/engine/ggml: same "classify once, dispatch fast" shape,
// no cgo, one dtype (float32).
package kernels

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

func inputTensor(ctx registry.OpContext, slot int) (*tensor.Tensor, error) {
	v := ctx.Input(slot)
	if !v.IsTensor() {
		return nil, fmt.Errorf("kernels: input %d is not a tensor (kind %s)", slot, v.Kind())
	}
	return v.Tensor(), nil
}

// elementwiseBinary applies fn(a[i], b[i]) into a freshly shaped output,
// shared by the Add and Mul out-variants and natives. a and b must have
// identical shapes — this runtime does not implement broadcasting.
func elementwiseBinary(a, b *tensor.Tensor, fn func(x, y float32) float32) (*tensor.Tensor, error) {
	if !tensor.SameShape(a, b) {
		return nil, fmt.Errorf("kernels: elementwise op shape mismatch %v vs %v", a.Shape(), b.Shape())
	}
	ad, bd := a.Data(), b.Data()
	out := make([]float32, len(ad))
	for i := range ad {
		out[i] = fn(ad[i], bd[i])
	}
	return tensor.FromFloat32(a.Shape(), out), nil
}

// elementwiseBinaryInto writes fn(a[i], b[i]) directly into dst's
// storage, for the out-variant path where the Processed Node has already
// bound an output slot — possibly still holding whatever shape it was
// last resized to, or none at all on a node's very first execution. Like
// the real tensor library's out-variant kernels, it resizes dst to the
// correct shape before writing rather than requiring the caller to have
// pre-sized it.
func elementwiseBinaryInto(dst, a, b *tensor.Tensor, fn func(x, y float32) float32) error {
	if !tensor.SameShape(a, b) {
		return fmt.Errorf("kernels: elementwise op shape mismatch %v vs %v", a.Shape(), b.Shape())
	}
	ad, bd := a.Data(), b.Data()
	out := make([]float32, len(ad))
	for i := range ad {
		out[i] = fn(ad[i], bd[i])
	}
	dst.Resize(a.Shape())
	dst.Storage().SetFloat32(out)
	return nil
}

func addFn(alpha float64) func(x, y float32) float32 {
	a := float32(alpha)
	return func(x, y float32) float32 { return x + a*y }
}

func mulFn() func(x, y float32) float32 {
	return func(x, y float32) float32 { return x * y }
}

// addOut is aten::add's out-variant: self + alpha*other, written into the
// output slot the Processed Node already bound to managed storage.
func addOut(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	other, err := inputTensor(ctx, 1)
	if err != nil {
		return err
	}
	outSlot := ctx.Output(0)
	if !outSlot.IsTensor() {
		return fmt.Errorf("kernels: add out-variant requires a pre-bound tensor output slot")
	}
	return elementwiseBinaryInto(outSlot.Tensor(), self, other, addFn(node.AttrFloat("alpha", 1)))
}

// addNative is aten::add's native (non-out-variant) implementation: it
// allocates its own output tensor. Used when the module disables
// out-variants (EnableOutVariant off), and by constant propagation when
// folding.
func addNative(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	other, err := inputTensor(ctx, 1)
	if err != nil {
		return err
	}
	out, err := elementwiseBinary(self, other, addFn(node.AttrFloat("alpha", 1)))
	if err != nil {
		return err
	}
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}

func mulOut(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	other, err := inputTensor(ctx, 1)
	if err != nil {
		return err
	}
	outSlot := ctx.Output(0)
	if !outSlot.IsTensor() {
		return fmt.Errorf("kernels: mul out-variant requires a pre-bound tensor output slot")
	}
	return elementwiseBinaryInto(outSlot.Tensor(), self, other, mulFn())
}

func mulNative(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	other, err := inputTensor(ctx, 1)
	if err != nil {
		return err
	}
	out, err := elementwiseBinary(self, other, mulFn())
	if err != nil {
		return err
	}
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}

func reluData(a *tensor.Tensor) *tensor.Tensor {
	data := a.Data()
	out := make([]float32, len(data))
	for i, v := range data {
		if v > 0 {
			out[i] = v
		}
	}
	return tensor.FromFloat32(a.Shape(), out)
}

func reluOut(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	outSlot := ctx.Output(0)
	if !outSlot.IsTensor() {
		return fmt.Errorf("kernels: relu out-variant requires a pre-bound tensor output slot")
	}
	out := reluData(self)
	dst := outSlot.Tensor()
	dst.Resize(out.Shape())
	dst.Storage().SetFloat32(out.Data())
	return nil
}

func reluNative(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	*ctx.Output(0) = tensor.FromTensor(reluData(self))
	return nil
}

// addReluNative implements fused::add_relu, the DomainFusions pass's
// target for an Add immediately followed by a Relu consumer: self +
// alpha*other, clamped at zero. Native-only — fused ops are synthesized
// by the optimizer, not part of any op's original out-variant surface.
func addReluNative(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	other, err := inputTensor(ctx, 1)
	if err != nil {
		return err
	}
	relu := func(x, y float32) float32 {
		v := x + float32(node.AttrFloat("alpha", 1))*y
		if v < 0 {
			return 0
		}
		return v
	}
	out, err := elementwiseBinary(self, other, relu)
	if err != nil {
		return err
	}
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}
