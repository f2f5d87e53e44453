package planner

import (
	"testing"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

type fakeCtx struct {
	inputs  []tensor.IValue
	outputs []tensor.IValue
}

func (c *fakeCtx) NumInputs() int             { return len(c.inputs) }
func (c *fakeCtx) Input(i int) tensor.IValue   { return c.inputs[i] }
func (c *fakeCtx) NumOutputs() int             { return len(c.outputs) }
func (c *fakeCtx) Output(i int) *tensor.IValue { return &c.outputs[i] }

// TestPlanDiscoversSizeAcrossTwoInvocations simulates the Runtime's
// chicken-and-egg bootstrap: the first invocation has no plan, so the
// out-variant writes into a placeholder tensor that allocates its own
// storage; the plan is then built from that storage's identity, and only
// the second invocation actually draws from the pooled buffer.
func TestPlanDiscoversSizeAcrossTwoInvocations(t *testing.T) {
	g := ir.NewGraph(2)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[1])
	out := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)
	g.Outputs = nil // not a direct graph output, so it's eligible to be managed

	reg := registry.New()
	kernels.Install(reg)

	a := tensor.FromFloat32([]int{3}, []float32{1, 2, 3})
	b := tensor.FromFloat32([]int{3}, []float32{10, 20, 30})
	placeholder := tensor.New([]int{0})

	slots := map[*ir.Value]*tensor.IValue{
		g.Inputs[0]: ptr(tensor.FromTensor(a)),
		g.Inputs[1]: ptr(tensor.FromTensor(b)),
		out:         ptr(tensor.FromTensor(placeholder)),
	}

	ctx := &fakeCtx{
		inputs:  []tensor.IValue{*slots[g.Inputs[0]], *slots[g.Inputs[1]]},
		outputs: []tensor.IValue{*slots[out]},
	}
	fn, ok := reg.GetOutOfPlaceOperation(add)
	if !ok {
		t.Fatalf("expected aten::add to have an out-variant")
	}
	if err := fn(ctx, add); err != nil {
		t.Fatalf("first (dry) invocation: %v", err)
	}
	*slots[out] = ctx.outputs[0]

	if slots[out].Tensor().Numel() != 3 {
		t.Fatalf("expected dry run to produce 3 elements, got %d", slots[out].Tensor().Numel())
	}

	plan, err := Build(g, reg, slots, nil, nil, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.groups) != 1 {
		t.Fatalf("expected 1 managed group, got %d", len(plan.groups))
	}

	plan.Allocate() // no-op: ManagedBytes is still 0
	plan.Deallocate()

	if plan.ManagedBytes() == 0 {
		t.Fatalf("expected deallocate to discover a nonzero high-water mark")
	}
	if slots[out].Tensor().Storage().NBytes() != 0 {
		t.Errorf("expected managed storage's visible length reset after deallocate")
	}

	plan.Allocate()
	if got := slots[out].Tensor().Storage().NBytes(); got != plan.groups[0].Size {
		t.Errorf("expected storage bound to the group's aligned size %d, got %d", plan.groups[0].Size, got)
	}

	// The second real invocation writes through the out-variant again;
	// the kernel resizes the storage's visible length down to what this
	// particular call actually needs, inside the same pooled region.
	ctx2 := &fakeCtx{
		inputs:  []tensor.IValue{*slots[g.Inputs[0]], *slots[g.Inputs[1]]},
		outputs: []tensor.IValue{*slots[out]},
	}
	if err := fn(ctx2, add); err != nil {
		t.Fatalf("second invocation: %v", err)
	}
	if got := slots[out].Tensor().Storage().NBytes(); got != 12 {
		t.Errorf("expected 12 bytes (3 float32) after the second write, got %d", got)
	}
}

func ptr(v tensor.IValue) *tensor.IValue { return &v }
