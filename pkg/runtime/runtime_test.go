package runtime

import (
	"testing"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/module"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

func addGraph() *ir.Graph {
	g := ir.NewGraph(2)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[1])
	out := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)
	g.Outputs = []*ir.Value{out}
	return g
}

// chainGraph builds a two-node graph (c = a+b, out = c*a) so that c is a
// managed intermediate value: neither an input, a constant, nor a graph
// output.
func chainGraph() *ir.Graph {
	g := ir.NewGraph(2)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[1])
	c := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)

	mul := ir.NewNode(ir.KindMul, c, g.Inputs[0])
	out := mul.AddOutput(ir.TypeTensor)
	g.AppendNode(mul)

	g.Outputs = []*ir.Value{out}
	return g
}

func newTestRegistry() *registry.Registry {
	r := registry.New()
	kernels.Install(r)
	return r
}

func TestRunProducesAddResult(t *testing.T) {
	reg := newTestRegistry()
	m, err := module.New(addGraph(), nil, reg, module.Options{EnableOutVariant: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := New(m, reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := tensor.FromTensor(tensor.FromFloat32([]int{3}, []float32{1, 2, 3}))
	b := tensor.FromTensor(tensor.FromFloat32([]int{3}, []float32{10, 20, 30}))

	out, err := rt.Run([]tensor.IValue{a, b}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.IsTensor() {
		t.Fatalf("expected a tensor result, got %s", out.Kind())
	}
	got := out.Tensor().Data()
	want := []float32{11, 22, 33}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRunTwiceReusesProcessedNodes(t *testing.T) {
	reg := newTestRegistry()
	m, err := module.New(addGraph(), nil, reg, module.Options{EnableOutVariant: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := New(m, reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 1}))
	b := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{2, 2}))
	if _, err := rt.Run([]tensor.IValue{a, b}, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	a2 := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{5, 5}))
	b2 := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{7, 7}))
	out, err := rt.Run([]tensor.IValue{a2, b2}, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	got := out.Tensor().Data()
	if got[0] != 12 || got[1] != 12 {
		t.Errorf("second run result = %v, want [12 12]", got)
	}
}

func TestRunWithArityMismatchFails(t *testing.T) {
	reg := newTestRegistry()
	m, err := module.New(addGraph(), nil, reg, module.Options{EnableOutVariant: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := New(m, reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 1}))
	if _, err := rt.Run([]tensor.IValue{a}, nil); err == nil {
		t.Fatalf("expected an arity mismatch error")
	}
}

func TestRunWithKwargsRequiresSchema(t *testing.T) {
	reg := newTestRegistry()
	m, err := module.New(addGraph(), nil, reg, module.Options{EnableOutVariant: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := New(m, reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	kwargs := map[string]tensor.IValue{"other": tensor.FromTensor(tensor.FromFloat32([]int{1}, []float32{1}))}
	if _, err := rt.Run(nil, kwargs); err != ErrSchemaRequired {
		t.Fatalf("expected ErrSchemaRequired, got %v", err)
	}
}

func TestRunWithSchemaNormalisesKwargs(t *testing.T) {
	reg := newTestRegistry()
	schema := &ir.Schema{ArgNames: []string{"self", "other"}}
	m, err := module.New(addGraph(), schema, reg, module.Options{EnableOutVariant: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := New(m, reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	self := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{3, 4}))
	other := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 1}))
	out, err := rt.Run(nil, map[string]tensor.IValue{"self": self, "other": other})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.Tensor().Data()
	if got[0] != 4 || got[1] != 5 {
		t.Errorf("result = %v, want [4 5]", got)
	}
}

func TestCleanupActivationsResetsInputsAndReportsNoLeak(t *testing.T) {
	reg := newTestRegistry()
	m, err := module.New(addGraph(), nil, reg, module.Options{EnableOutVariant: true, CleanupActivations: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := New(m, reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 1}))
	b := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{2, 2}))
	out, err := rt.Run([]tensor.IValue{a, b}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.IsTensor() {
		t.Fatalf("expected a tensor result, got %s", out.Kind())
	}

	for i, slot := range rt.inputSlots {
		if !slot.IsNone() {
			t.Errorf("expected input slot %d reset to none after cleanup", i)
		}
	}
	if err := rt.CheckForMemoryLeak(true); err != nil {
		t.Errorf("CheckForMemoryLeak(true): %v", err)
	}
}

// TestCleanupActivationsReleasesIntermediateValue exercises a managed
// intermediate slot (chainGraph's c = a+b, consumed only by the second
// node): CheckForMemoryLeak must accept it once its storage's data pointer
// is reset, even though the Memory Planner never resets the slot's IValue
// to none.
func TestCleanupActivationsReleasesIntermediateValue(t *testing.T) {
	reg := newTestRegistry()
	m, err := module.New(chainGraph(), nil, reg, module.Options{EnableOutVariant: true, CleanupActivations: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := New(m, reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 1}))
	b := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{2, 2}))
	out, err := rt.Run([]tensor.IValue{a, b}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.Tensor().Data()
	if got[0] != 3 || got[1] != 3 {
		t.Fatalf("result = %v, want [3 3]", got)
	}

	if err := rt.CheckForMemoryLeak(true); err != nil {
		t.Errorf("CheckForMemoryLeak(true): %v", err)
	}
}
