package rpc

import "github.com/staticrt/runtime/pkg/tensor"

// Value is the gob-safe wire shape for a tensor.IValue. IValue's fields
// are all unexported (by design — pkg/tensor treats it as an opaque tagged
// union), so gob would silently drop them; Value instead carries the same
// information through exported fields any encoder can see.
type Value struct {
	Kind     tensor.Kind
	Shape    []int
	Data     []float32
	Elements []Value
	Scalar   float64
}

// ToWire converts a tensor.IValue to its wire representation.
func ToWire(v tensor.IValue) Value {
	switch v.Kind() {
	case tensor.KindNone:
		return Value{Kind: tensor.KindNone}
	case tensor.KindTensor:
		t := v.Tensor()
		shape := append([]int(nil), t.Shape()...)
		data := append([]float32(nil), t.Data()...)
		return Value{Kind: tensor.KindTensor, Shape: shape, Data: data}
	case tensor.KindTuple, tensor.KindList:
		elems := v.Elements()
		wire := make([]Value, len(elems))
		for i, e := range elems {
			wire[i] = ToWire(e)
		}
		return Value{Kind: v.Kind(), Elements: wire}
	case tensor.KindScalar:
		return Value{Kind: tensor.KindScalar, Scalar: v.Scalar()}
	default:
		return Value{}
	}
}

// FromWire converts a wire Value back into a tensor.IValue.
func FromWire(w Value) tensor.IValue {
	switch w.Kind {
	case tensor.KindTensor:
		return tensor.FromTensor(tensor.FromFloat32(w.Shape, w.Data))
	case tensor.KindTuple:
		elems := make([]tensor.IValue, len(w.Elements))
		for i, e := range w.Elements {
			elems[i] = FromWire(e)
		}
		return tensor.NewTuple(elems...)
	case tensor.KindList:
		elems := make([]tensor.IValue, len(w.Elements))
		for i, e := range w.Elements {
			elems[i] = FromWire(e)
		}
		return tensor.NewList(elems...)
	case tensor.KindScalar:
		return tensor.FromScalar(w.Scalar)
	default:
		return tensor.None()
	}
}

func toWireSlice(vs []tensor.IValue) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = ToWire(v)
	}
	return out
}

func fromWireSlice(vs []Value) []tensor.IValue {
	out := make([]tensor.IValue, len(vs))
	for i, v := range vs {
		out[i] = FromWire(v)
	}
	return out
}

func toWireMap(vs map[string]tensor.IValue) map[string]Value {
	if vs == nil {
		return nil
	}
	out := make(map[string]Value, len(vs))
	for k, v := range vs {
		out[k] = ToWire(v)
	}
	return out
}

func fromWireMap(vs map[string]Value) map[string]tensor.IValue {
	if vs == nil {
		return nil
	}
	out := make(map[string]tensor.IValue, len(vs))
	for k, v := range vs {
		out[k] = FromWire(v)
	}
	return out
}
