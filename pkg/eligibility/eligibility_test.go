package eligibility

import (
	"errors"
	"testing"

	"github.com/staticrt/runtime/pkg/ir"
)

func TestCheckAcceptsTensorOutput(t *testing.T) {
	g := ir.NewGraph(1)
	n := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[0])
	out := n.AddOutput(ir.TypeTensor)
	g.AppendNode(n)
	g.Outputs = []*ir.Value{out}

	if err := Check(g); err != nil {
		t.Fatalf("expected eligible graph, got %v", err)
	}
}

func TestCheckRejectsAttributeRead(t *testing.T) {
	g := ir.NewGraph(1)
	n := ir.NewNode(ir.KindAttributeRead, g.Inputs[0])
	n.AddOutput(ir.TypeTensor)
	g.AppendNode(n)
	g.Outputs = []*ir.Value{n.Outputs[0]}

	err := Check(g)
	if !errors.Is(err, ErrUnfrozenGraph) {
		t.Fatalf("expected ErrUnfrozenGraph, got %v", err)
	}
}

func TestCheckRejectsUnsupportedOutputType(t *testing.T) {
	g := ir.NewGraph(1)
	n := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[0])
	n.AddOutput(ir.TypeOther)
	g.AppendNode(n)
	g.Outputs = []*ir.Value{n.Outputs[0]}

	err := Check(g)
	if !errors.Is(err, ErrUnsupportedOutputType) {
		t.Fatalf("expected ErrUnsupportedOutputType, got %v", err)
	}
}

func TestCheckAcceptsTupleOfTensors(t *testing.T) {
	g := ir.NewGraph(1)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[0])
	tensorOut := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)

	construct := ir.NewNode(ir.KindTupleConstruct, tensorOut, tensorOut)
	tupleOut := construct.AddOutput(ir.TypeTuple)
	g.AppendNode(construct)
	g.Outputs = []*ir.Value{tupleOut}

	if err := Check(g); err != nil {
		t.Fatalf("expected eligible graph, got %v", err)
	}
}

func TestCheckRejectsTupleWithNonTensorElement(t *testing.T) {
	g := ir.NewGraph(1)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[0])
	tensorOut := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)

	inner := ir.NewNode(ir.KindListConstruct)
	noneLikeOut := inner.AddOutput(ir.TypeList)
	g.AppendNode(inner)

	construct := ir.NewNode(ir.KindTupleConstruct, tensorOut, noneLikeOut)
	tupleOut := construct.AddOutput(ir.TypeTuple)
	g.AppendNode(construct)
	g.Outputs = []*ir.Value{tupleOut}

	err := Check(g)
	if !errors.Is(err, ErrUnsupportedOutputType) {
		t.Fatalf("expected ErrUnsupportedOutputType for Tuple[Tensor, List], got %v", err)
	}
}
