package module

import (
	"errors"
	"testing"

	"github.com/staticrt/runtime/pkg/eligibility"
	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/registry"
)

func newTestRegistry() *registry.Registry {
	r := registry.New()
	kernels.Install(r)
	return r
}

func TestNewOptimizesAndAcceptsAnEligibleGraph(t *testing.T) {
	g := ir.NewGraph(2)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[1])
	out := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)
	g.Outputs = []*ir.Value{out}

	m, err := New(g, nil, newTestRegistry(), Options{EnableOutVariant: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(m.Graph().Nodes) != 1 {
		t.Fatalf("expected the optimized graph to keep the single add node, got %d", len(m.Graph().Nodes))
	}
	if m.Schema() != nil {
		t.Errorf("expected a nil schema to stay nil")
	}
}

func TestNewRejectsAGraphWithAnAttributeRead(t *testing.T) {
	g := ir.NewGraph(1)
	read := ir.NewNode(ir.KindAttributeRead, g.Inputs[0])
	out := read.AddOutput(ir.TypeTensor)
	g.AppendNode(read)
	g.Outputs = []*ir.Value{out}

	_, err := New(g, nil, newTestRegistry(), Options{})
	if !errors.Is(err, eligibility.ErrUnfrozenGraph) {
		t.Fatalf("expected ErrUnfrozenGraph, got %v", err)
	}
}

func TestNewRejectsAnUnsupportedOutputType(t *testing.T) {
	g := ir.NewGraph(1)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[0])
	out := add.AddOutput(ir.TypeOther)
	g.AppendNode(add)
	g.Outputs = []*ir.Value{out}

	_, err := New(g, nil, newTestRegistry(), Options{})
	if !errors.Is(err, eligibility.ErrUnsupportedOutputType) {
		t.Fatalf("expected ErrUnsupportedOutputType, got %v", err)
	}
}

func TestNewStripsSelfFromSchemaWhenGraphInputIsUnused(t *testing.T) {
	g := ir.NewGraph(2)
	g.HasSelf = true
	add := ir.NewNode(ir.KindAdd, g.Inputs[1], g.Inputs[1])
	out := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)
	g.Outputs = []*ir.Value{out}

	schema := &ir.Schema{ArgNames: []string{"self", "other"}}
	m, err := New(g, schema, newTestRegistry(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(m.Schema().ArgNames) != 1 || m.Schema().ArgNames[0] != "other" {
		t.Errorf("expected schema's self argument stripped, got %v", m.Schema().ArgNames)
	}
	if len(m.Graph().Inputs) != 1 {
		t.Errorf("expected the unused self input erased, got %d inputs", len(m.Graph().Inputs))
	}
}
