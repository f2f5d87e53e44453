package registry

import "github.com/staticrt/runtime/pkg/tensor"

// OpContext is the minimal view of a Processed Node that a dispatch
// function needs: its bound inputs and writable output slots. Defined
// here (rather than depending on pkg/runtime's concrete ProcessedNode)
// so pkg/registry and pkg/kernels have no import-cycle back to
// pkg/runtime — pkg/runtime instead implements this interface.
type OpContext interface {
	NumInputs() int
	Input(i int) tensor.IValue
	NumOutputs() int
	Output(i int) *tensor.IValue
}
