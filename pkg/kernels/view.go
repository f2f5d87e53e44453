package kernels

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

// View ops (reshape, permute, narrow) never allocate: their output Tensor
// shares its producer's Storage object, which is exactly what lets the
// Memory Planner fold a view node's output into its input's storage group
// instead of giving it a slot of its own (§4.6). They are native-only —
// there is no out-variant for an op that writes nothing.
//
// Permute's non-copy form carries the permuted shape as metadata over the
// same bytes without physically transposing them; only the _copy variant
// materializes data in the permuted order. A consumer that reads a
// permuted view's elements in its own row-major order will see the
// pre-permute layout, same as narrow/reshape are restricted below — this
// runtime's single-dtype, stride-less Tensor does not model arbitrary
// strided access, only the storage-sharing contract the planner needs.

func reshapeNative(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	shape := node.AttrInts("shape", nil)
	if shape == nil {
		return fmt.Errorf("kernels: reshape missing shape attribute")
	}
	if numelOf(shape) != self.Numel() {
		return fmt.Errorf("kernels: reshape %v cannot view %d elements", shape, self.Numel())
	}
	out := tensor.View(self.Storage(), shape)
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}

func permuteNative(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	dims := node.AttrInts("dims", nil)
	permShape, err := permutedShape(self.Shape(), dims)
	if err != nil {
		return err
	}
	out := tensor.View(self.Storage(), permShape)
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}

// narrowNative supports only dim 0 (the outermost dimension). Like
// permute, it shares the producer's Storage object rather than slicing
// out a derived one, so the Memory Planner's storage-group reuse stays
// keyed on a single identity per underlying buffer; the narrowed shape is
// metadata the planner and shape-checking passes use, not a guarantee
// that indexing the view reads only the narrowed byte range.
func narrowNative(ctx registry.OpContext, node *ir.Node) error {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return err
	}
	dim := node.AttrInt("dim", 0)
	start := node.AttrInt("start", 0)
	length := node.AttrInt("length", 0)
	if dim != 0 {
		return fmt.Errorf("kernels: narrow only supports dim 0, got %d", dim)
	}
	shape := self.Shape()
	if len(shape) == 0 || start < 0 || start+length > shape[0] {
		return fmt.Errorf("kernels: narrow(start=%d, length=%d) out of range for shape %v", start, length, shape)
	}
	outShape := append([]int{length}, shape[1:]...)
	out := tensor.View(self.Storage(), outShape)
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}

func numelOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func permutedShape(shape, dims []int) ([]int, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("kernels: permute dims %v length mismatch for shape %v", dims, shape)
	}
	seen := make([]bool, len(shape))
	out := make([]int, len(shape))
	for i, d := range dims {
		if d < 0 || d >= len(shape) || seen[d] {
			return nil, fmt.Errorf("kernels: permute dims %v invalid for shape %v", dims, shape)
		}
		seen[d] = true
		out[i] = shape[d]
	}
	return out, nil
}
