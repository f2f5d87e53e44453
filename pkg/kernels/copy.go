package kernels

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

// Copy variants are what the ReplaceWithCopy pass substitutes for a view
// op whose output aliases storage the optimizer can't prove is safe to
// share (§4.2). Unlike their view counterparts they materialize fresh
// data in the target layout, so they get real out-variants.

func permuteCopyData(self *tensor.Tensor, dims []int) (*tensor.Tensor, error) {
	shape := self.Shape()
	outShape, err := permutedShape(shape, dims)
	if err != nil {
		return nil, err
	}
	data := self.Data()
	srcStrides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		srcStrides[i] = acc
		acc *= shape[i]
	}
	outStrides := make([]int, len(outShape))
	acc = 1
	for i := len(outShape) - 1; i >= 0; i-- {
		outStrides[i] = acc
		acc *= outShape[i]
	}

	out := make([]float32, len(data))
	idx := make([]int, len(outShape))
	for linear := range out {
		rem := linear
		for i := range outShape {
			idx[i] = rem / outStrides[i]
			rem %= outStrides[i]
		}
		srcOffset := 0
		for i, d := range dims {
			srcOffset += idx[i] * srcStrides[d]
		}
		out[linear] = data[srcOffset]
	}
	return tensor.FromFloat32(outShape, out), nil
}

func permuteCopyNode(ctx registry.OpContext, node *ir.Node) (*tensor.Tensor, error) {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return nil, err
	}
	return permuteCopyData(self, node.AttrInts("dims", nil))
}

func permuteCopyOut(ctx registry.OpContext, node *ir.Node) error {
	out, err := permuteCopyNode(ctx, node)
	if err != nil {
		return err
	}
	outSlot := ctx.Output(0)
	if !outSlot.IsTensor() {
		return fmt.Errorf("kernels: permute_copy out-variant requires a pre-bound tensor output slot")
	}
	dst := outSlot.Tensor()
	dst.Resize(out.Shape())
	dst.Storage().SetFloat32(out.Data())
	return nil
}

func permuteCopyNative(ctx registry.OpContext, node *ir.Node) error {
	out, err := permuteCopyNode(ctx, node)
	if err != nil {
		return err
	}
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}

func narrowCopyNode(ctx registry.OpContext, node *ir.Node) (*tensor.Tensor, error) {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return nil, err
	}
	dim := node.AttrInt("dim", 0)
	start := node.AttrInt("start", 0)
	length := node.AttrInt("length", 0)
	if dim != 0 {
		return nil, fmt.Errorf("kernels: narrow_copy only supports dim 0, got %d", dim)
	}
	shape := self.Shape()
	if len(shape) == 0 || start < 0 || start+length > shape[0] {
		return nil, fmt.Errorf("kernels: narrow_copy(start=%d, length=%d) out of range for shape %v", start, length, shape)
	}
	inner := numelOf(shape[1:])
	data := self.Data()
	out := make([]float32, length*inner)
	copy(out, data[start*inner:(start+length)*inner])
	outShape := append([]int{length}, shape[1:]...)
	return tensor.FromFloat32(outShape, out), nil
}

func narrowCopyOut(ctx registry.OpContext, node *ir.Node) error {
	out, err := narrowCopyNode(ctx, node)
	if err != nil {
		return err
	}
	outSlot := ctx.Output(0)
	if !outSlot.IsTensor() {
		return fmt.Errorf("kernels: narrow_copy out-variant requires a pre-bound tensor output slot")
	}
	dst := outSlot.Tensor()
	dst.Resize(out.Shape())
	dst.Storage().SetFloat32(out.Data())
	return nil
}

func narrowCopyNative(ctx registry.OpContext, node *ir.Node) error {
	out, err := narrowCopyNode(ctx, node)
	if err != nil {
		return err
	}
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}
