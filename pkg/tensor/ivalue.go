package tensor

import "fmt"

// Kind tags the payload an IValue carries. Grounded on the teacher's
// protobuf-oneof style of tagging a value's payload (api.Tensor's
// GetInlineData/GetComputation accessors), reshaped here into a plain Go
// tagged union since no generated protobuf types are available.
type Kind uint8

const (
	KindNone Kind = iota
	KindTensor
	KindTuple
	KindList
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindTensor:
		return "Tensor"
	case KindTuple:
		return "Tuple"
	case KindList:
		return "List"
	case KindScalar:
		return "Scalar"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IValue is a tagged runtime container for a tensor, none, tuple, list, or
// scalar — the slot type that the Value table holds one of per graph
// Value.
type IValue struct {
	kind    Kind
	tensor  *Tensor
	tuple   []IValue
	list    []IValue
	scalar  float64
}

// None returns the none IValue.
func None() IValue { return IValue{kind: KindNone} }

// FromTensor wraps t as a tensor IValue.
func FromTensor(t *Tensor) IValue { return IValue{kind: KindTensor, tensor: t} }

// FromScalar wraps a scalar IValue.
func FromScalar(v float64) IValue { return IValue{kind: KindScalar, scalar: v} }

// NewTuple builds a tuple IValue from its elements.
func NewTuple(elems ...IValue) IValue { return IValue{kind: KindTuple, tuple: elems} }

// NewList builds a list IValue from its elements. Every element must be a
// Tensor per this runtime's restriction to List(Tensor).
func NewList(elems ...IValue) IValue { return IValue{kind: KindList, list: elems} }

func (v IValue) Kind() Kind { return v.kind }

func (v IValue) IsNone() bool   { return v.kind == KindNone }
func (v IValue) IsTensor() bool { return v.kind == KindTensor }
func (v IValue) IsTuple() bool  { return v.kind == KindTuple }
func (v IValue) IsList() bool   { return v.kind == KindList }

// IsTensorList reports whether v is a List whose every element is a
// Tensor (the only list shape this runtime supports as an output).
func (v IValue) IsTensorList() bool {
	if v.kind != KindList {
		return false
	}
	for _, e := range v.list {
		if !e.IsTensor() {
			return false
		}
	}
	return true
}

// Tensor returns the wrapped tensor, or nil if v is not a tensor IValue.
func (v IValue) Tensor() *Tensor { return v.tensor }

// Elements returns a tuple's or list's elements.
func (v IValue) Elements() []IValue {
	switch v.kind {
	case KindTuple:
		return v.tuple
	case KindList:
		return v.list
	default:
		return nil
	}
}

// Scalar returns the wrapped scalar value.
func (v IValue) Scalar() float64 { return v.scalar }

// Reset turns v into None in place — what the Memory Planner does to
// every unmanaged slot, and the Runtime does to every input slot, during
// cleanup.
func (v *IValue) Reset() {
	*v = None()
}
