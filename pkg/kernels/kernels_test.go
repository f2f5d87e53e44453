package kernels

import (
	"math"
	"testing"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

// fakeCtx is a minimal registry.OpContext for exercising kernels without a
// full Processed Node.
type fakeCtx struct {
	inputs  []tensor.IValue
	outputs []tensor.IValue
}

func (c *fakeCtx) NumInputs() int             { return len(c.inputs) }
func (c *fakeCtx) Input(i int) tensor.IValue   { return c.inputs[i] }
func (c *fakeCtx) NumOutputs() int             { return len(c.outputs) }
func (c *fakeCtx) Output(i int) *tensor.IValue { return &c.outputs[i] }

func floatsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if math.Abs(float64(v-b[i])) > 1e-6 {
			return false
		}
	}
	return true
}

func TestAddNative(t *testing.T) {
	a := tensor.FromFloat32([]int{3}, []float32{1, 2, 3})
	b := tensor.FromFloat32([]int{3}, []float32{10, 20, 30})
	ctx := &fakeCtx{
		inputs:  []tensor.IValue{tensor.FromTensor(a), tensor.FromTensor(b)},
		outputs: []tensor.IValue{tensor.None()},
	}
	node := ir.NewNode(ir.KindAdd)
	if err := addNative(ctx, node); err != nil {
		t.Fatalf("addNative: %v", err)
	}
	got := ctx.outputs[0].Tensor().Data()
	if !floatsEqual(got, []float32{11, 22, 33}) {
		t.Errorf("expected [11 22 33], got %v", got)
	}
}

func TestAddOutVariantWritesIntoBoundStorage(t *testing.T) {
	a := tensor.FromFloat32([]int{2}, []float32{1, 2})
	b := tensor.FromFloat32([]int{2}, []float32{3, 4})
	bound := tensor.New([]int{2})
	ctx := &fakeCtx{
		inputs:  []tensor.IValue{tensor.FromTensor(a), tensor.FromTensor(b)},
		outputs: []tensor.IValue{tensor.FromTensor(bound)},
	}
	if err := addOut(ctx, ir.NewNode(ir.KindAdd)); err != nil {
		t.Fatalf("addOut: %v", err)
	}
	if !floatsEqual(bound.Data(), []float32{4, 6}) {
		t.Errorf("expected [4 6], got %v", bound.Data())
	}
}

func TestSumAllDims(t *testing.T) {
	a := tensor.FromFloat32([]int{2, 2}, []float32{1, 2, 3, 4})
	ctx := &fakeCtx{
		inputs:  []tensor.IValue{tensor.FromTensor(a)},
		outputs: []tensor.IValue{tensor.None()},
	}
	if err := sumNative(ctx, ir.NewNode(ir.KindSum)); err != nil {
		t.Fatalf("sumNative: %v", err)
	}
	got := ctx.outputs[0].Tensor().Data()
	if !floatsEqual(got, []float32{10}) {
		t.Errorf("expected [10], got %v", got)
	}
}

func TestSumAlongDimKeepdim(t *testing.T) {
	a := tensor.FromFloat32([]int{2, 2}, []float32{1, 2, 3, 4})
	node := ir.NewNode(ir.KindSum)
	node.Attrs["dim"] = 1
	node.Attrs["keepdim"] = true
	ctx := &fakeCtx{
		inputs:  []tensor.IValue{tensor.FromTensor(a)},
		outputs: []tensor.IValue{tensor.None()},
	}
	if err := sumNative(ctx, node); err != nil {
		t.Fatalf("sumNative: %v", err)
	}
	out := ctx.outputs[0].Tensor()
	if out.Shape()[0] != 2 || out.Shape()[1] != 1 {
		t.Fatalf("expected shape [2 1], got %v", out.Shape())
	}
	if !floatsEqual(out.Data(), []float32{3, 7}) {
		t.Errorf("expected [3 7], got %v", out.Data())
	}
}

func TestReshapeAliasesProducerStorage(t *testing.T) {
	a := tensor.FromFloat32([]int{4}, []float32{1, 2, 3, 4})
	node := ir.NewNode(ir.KindReshape)
	node.Attrs["shape"] = []int{2, 2}
	ctx := &fakeCtx{
		inputs:  []tensor.IValue{tensor.FromTensor(a)},
		outputs: []tensor.IValue{tensor.None()},
	}
	if err := reshapeNative(ctx, node); err != nil {
		t.Fatalf("reshapeNative: %v", err)
	}
	out := ctx.outputs[0].Tensor()
	if out.Storage() != a.Storage() {
		t.Errorf("expected reshape output to share producer storage")
	}
	if out.Numel() != 4 {
		t.Errorf("expected 4 elements, got %d", out.Numel())
	}
}

func TestPermuteCopyTransposes(t *testing.T) {
	a := tensor.FromFloat32([]int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	node := ir.NewNode(ir.KindPermuteCopy)
	node.Attrs["dims"] = []int{1, 0}
	ctx := &fakeCtx{
		inputs:  []tensor.IValue{tensor.FromTensor(a)},
		outputs: []tensor.IValue{tensor.None()},
	}
	if err := permuteCopyNative(ctx, node); err != nil {
		t.Fatalf("permuteCopyNative: %v", err)
	}
	out := ctx.outputs[0].Tensor()
	if out.Shape()[0] != 3 || out.Shape()[1] != 2 {
		t.Fatalf("expected shape [3 2], got %v", out.Shape())
	}
	expected := []float32{1, 4, 2, 5, 3, 6}
	if !floatsEqual(out.Data(), expected) {
		t.Errorf("expected %v, got %v", expected, out.Data())
	}
}

func TestNarrowCopySlicesOuterDim(t *testing.T) {
	a := tensor.FromFloat32([]int{4, 2}, []float32{1, 1, 2, 2, 3, 3, 4, 4})
	node := ir.NewNode(ir.KindNarrowCopy)
	node.Attrs["dim"] = 0
	node.Attrs["start"] = 1
	node.Attrs["length"] = 2
	ctx := &fakeCtx{
		inputs:  []tensor.IValue{tensor.FromTensor(a)},
		outputs: []tensor.IValue{tensor.None()},
	}
	if err := narrowCopyNative(ctx, node); err != nil {
		t.Fatalf("narrowCopyNative: %v", err)
	}
	out := ctx.outputs[0].Tensor()
	expected := []float32{2, 2, 3, 3}
	if !floatsEqual(out.Data(), expected) {
		t.Errorf("expected %v, got %v", expected, out.Data())
	}
}

func TestInstallPopulatesRegistry(t *testing.T) {
	r := registry.New()
	Install(r)
	node := ir.NewNode(ir.KindAdd)
	if !r.HasOutVariant(node) {
		t.Errorf("expected aten::add to have an out-variant registered")
	}
	if !r.HasAnyOperation(ir.NewNode(ir.KindReshape)) {
		t.Errorf("expected aten::reshape to have a native operation registered")
	}
}
