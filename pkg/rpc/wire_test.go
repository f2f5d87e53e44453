package rpc

import (
	"testing"

	"github.com/staticrt/runtime/pkg/tensor"
)

func TestToWireFromWireRoundTripsTensor(t *testing.T) {
	v := tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 2}))
	w := ToWire(v)
	got := FromWire(w)
	if !got.IsTensor() {
		t.Fatalf("expected a tensor IValue, got %s", got.Kind())
	}
	if got.Tensor().Data()[0] != 1 || got.Tensor().Data()[1] != 2 {
		t.Fatalf("unexpected tensor data after round trip: %v", got.Tensor().Data())
	}
}

func TestToWireFromWireRoundTripsTuple(t *testing.T) {
	v := tensor.NewTuple(
		tensor.FromTensor(tensor.FromFloat32([]int{1}, []float32{5})),
		tensor.FromScalar(3.5),
	)
	w := ToWire(v)
	got := FromWire(w)
	if !got.IsTuple() {
		t.Fatalf("expected a tuple IValue, got %s", got.Kind())
	}
	elems := got.Elements()
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elems))
	}
	if elems[1].Scalar() != 3.5 {
		t.Fatalf("expected scalar 3.5, got %v", elems[1].Scalar())
	}
}

func TestToWireFromWireRoundTripsNone(t *testing.T) {
	got := FromWire(ToWire(tensor.None()))
	if !got.IsNone() {
		t.Fatalf("expected none, got %s", got.Kind())
	}
}
