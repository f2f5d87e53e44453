package kernels

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

// sumAlongDim reduces self along dim, optionally keeping it as a
// size-1 dimension. dim defaults to -1, meaning "reduce all dimensions",
// matching aten::sum's no-dim-argument overload.
func sumAlongDim(self *tensor.Tensor, dim int, keepdim bool) (*tensor.Tensor, error) {
	shape := self.Shape()
	data := self.Data()

	if dim < 0 {
		var total float32
		for _, v := range data {
			total += v
		}
		outShape := []int{}
		if keepdim {
			outShape = make([]int, len(shape))
			for i := range outShape {
				outShape[i] = 1
			}
		}
		return tensor.FromFloat32(outShape, []float32{total}), nil
	}

	if dim >= len(shape) {
		return nil, fmt.Errorf("kernels: sum dim %d out of range for shape %v", dim, shape)
	}

	outer, axis, inner := 1, shape[dim], 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	var outShape []int
	for i, d := range shape {
		if i == dim {
			if keepdim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}

	out := make([]float32, outer*inner)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var total float32
			for a := 0; a < axis; a++ {
				total += data[o*axis*inner+a*inner+in]
			}
			out[o*inner+in] = total
		}
	}
	return tensor.FromFloat32(outShape, out), nil
}

func sumNode(ctx registry.OpContext, node *ir.Node) (*tensor.Tensor, error) {
	self, err := inputTensor(ctx, 0)
	if err != nil {
		return nil, err
	}
	dim := node.AttrInt("dim", -1)
	keepdim := node.AttrBool("keepdim", false)
	return sumAlongDim(self, dim, keepdim)
}

func sumOut(ctx registry.OpContext, node *ir.Node) error {
	out, err := sumNode(ctx, node)
	if err != nil {
		return err
	}
	outSlot := ctx.Output(0)
	if !outSlot.IsTensor() {
		return fmt.Errorf("kernels: sum out-variant requires a pre-bound tensor output slot")
	}
	dst := outSlot.Tensor()
	dst.Resize(out.Shape())
	dst.Storage().SetFloat32(out.Data())
	return nil
}

func sumNative(ctx registry.OpContext, node *ir.Node) error {
	out, err := sumNode(ctx, node)
	if err != nil {
		return err
	}
	*ctx.Output(0) = tensor.FromTensor(out)
	return nil
}
