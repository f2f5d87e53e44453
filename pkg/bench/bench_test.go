package bench

import (
	"testing"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/module"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/runtime"
	"github.com/staticrt/runtime/pkg/tensor"
)

func newAddRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	g := ir.NewGraph(2)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[1])
	out := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)
	g.Outputs = []*ir.Value{out}

	reg := registry.New()
	kernels.Install(reg)

	m, err := module.New(g, nil, reg, module.Options{EnableOutVariant: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := runtime.New(m, reg)
	if err != nil {
		t.Fatalf("runtime.New: %v", err)
	}
	return rt
}

func TestBenchmarkModelRunsWarmupAndMeasuredIterations(t *testing.T) {
	rt := newAddRuntime(t)
	args := []tensor.IValue{
		tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 2})),
		tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{3, 4})),
	}

	result, err := BenchmarkModel(rt, args, nil, 2, 5)
	if err != nil {
		t.Fatalf("BenchmarkModel: %v", err)
	}
	if len(result.Elapsed) != 5 {
		t.Fatalf("expected 5 measured elapsed entries, got %d", len(result.Elapsed))
	}
	if result.Total == nil || result.StartedAt == nil {
		t.Fatalf("expected Total and StartedAt to be populated")
	}
}

func TestBenchmarkIndividualOpsGroupsByNodeType(t *testing.T) {
	rt := newAddRuntime(t)
	args := []tensor.IValue{
		tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 2})),
		tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{3, 4})),
	}

	result, err := BenchmarkIndividualOps(rt, args, nil, 1, 3)
	if err != nil {
		t.Fatalf("BenchmarkIndividualOps: %v", err)
	}
	if len(result.TimePerNode) != 1 {
		t.Fatalf("expected 1 node timing (single add), got %d", len(result.TimePerNode))
	}
	if result.CountPerNodeType[ir.KindAdd] != 1 {
		t.Fatalf("expected 1 aten::add node, got %d", result.CountPerNodeType[ir.KindAdd])
	}
	if _, ok := result.TimePerNodeType[ir.KindAdd]; !ok {
		t.Fatalf("expected a rolled-up timing entry for aten::add")
	}
	if result.SetupTime == nil || result.TotalTime == nil {
		t.Fatalf("expected SetupTime and TotalTime to be populated")
	}
	if pct, ok := result.PercentPerNodeType[ir.KindAdd]; !ok || pct <= 0 || pct > 100 {
		t.Fatalf("expected aten::add's percent of total time in (0, 100], got %v (present=%v)", pct, ok)
	}
}
