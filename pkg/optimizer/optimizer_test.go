package optimizer

import (
	"testing"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/registry"
)

func newTestRegistry() *registry.Registry {
	r := registry.New()
	kernels.Install(r)
	return r
}

func TestConstantPropagationFoldsPureAdd(t *testing.T) {
	g := ir.NewGraph(0)
	a := newConstNode(g, []int{2}, []float32{1, 2})
	b := newConstNode(g, []int{2}, []float32{10, 20})
	add := ir.NewNode(ir.KindAdd, a, b)
	out := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)
	g.Outputs = []*ir.Value{out}

	r := newTestRegistry()
	optimized, err := Optimize(g, Options{Registry: r})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(optimized.Nodes) != 1 || optimized.Nodes[0].Kind != ir.KindConstant {
		t.Fatalf("expected a single folded constant node, got %d nodes", len(optimized.Nodes))
	}
	values := optimized.Nodes[0].Attrs["value"].([]float32)
	if len(values) != 2 || values[0] != 11 || values[1] != 22 {
		t.Errorf("expected folded value [11 22], got %v", values)
	}
}

func TestDeadCodeEliminationDropsUnusedNode(t *testing.T) {
	g := ir.NewGraph(1)
	used := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[0])
	usedOut := used.AddOutput(ir.TypeTensor)
	g.AppendNode(used)

	dead := ir.NewNode(ir.KindMul, g.Inputs[0], g.Inputs[0])
	dead.AddOutput(ir.TypeTensor)
	g.AppendNode(dead)

	g.Outputs = []*ir.Value{usedOut}

	r := newTestRegistry()
	optimized, err := Optimize(g, Options{Registry: r})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	for _, n := range optimized.Nodes {
		if n.Kind == ir.KindMul {
			t.Errorf("expected dead aten::mul node to be eliminated")
		}
	}
}

func TestDomainFusionsCollapsesAddRelu(t *testing.T) {
	g := ir.NewGraph(2)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[1])
	addOut := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)

	relu := ir.NewNode(ir.KindRelu, addOut)
	reluOut := relu.AddOutput(ir.TypeTensor)
	g.AppendNode(relu)

	g.Outputs = []*ir.Value{reluOut}

	r := newTestRegistry()
	optimized, err := Optimize(g, Options{Registry: r, EnableDomainFusions: true})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(optimized.Nodes) != 1 || optimized.Nodes[0].Kind != ir.KindReluFusedAdd {
		t.Fatalf("expected single fused::add_relu node, got %+v", optimized.Nodes)
	}
}

func TestRemoveSelfFromGraphInputErasesUnusedSelf(t *testing.T) {
	g := ir.NewGraph(2)
	g.HasSelf = true
	other := ir.NewNode(ir.KindMul, g.Inputs[1], g.Inputs[1])
	out := other.AddOutput(ir.TypeTensor)
	g.AppendNode(other)
	g.Outputs = []*ir.Value{out}

	schema := &ir.Schema{ArgNames: []string{"self", "x"}}
	r := newTestRegistry()
	optimized, err := Optimize(g, Options{Registry: r, Schema: schema})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if optimized.HasSelf || len(optimized.Inputs) != 1 {
		t.Fatalf("expected self input erased, got HasSelf=%v inputs=%d", optimized.HasSelf, len(optimized.Inputs))
	}
	if len(schema.ArgNames) != 1 || schema.ArgNames[0] != "x" {
		t.Errorf("expected schema stripped to [x], got %v", schema.ArgNames)
	}
}

func newConstNode(g *ir.Graph, shape []int, values []float32) *ir.Value {
	n := ir.NewNode(ir.KindConstant)
	n.Attrs["shape"] = shape
	n.Attrs["value"] = values
	out := n.AddOutput(ir.TypeTensor)
	g.AppendNode(n)
	return out
}
