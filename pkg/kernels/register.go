package kernels

import (
	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
)

// Install populates r with every op this package implements. Called once,
// at Runtime/InferenceModule construction time, before any node is
// processed — mirrors the teacher's engine construction registering its
// full op table up front rather than resolving lazily per call.
func Install(r *registry.Registry) {
	r.Register(ir.KindAdd, registry.Entry{
		HasOutVariant:  true,
		CanRunNatively: true,
		CanReuseInputs: true,
		OutVariant:     addOut,
		Native:         addNative,
	})
	r.Register(ir.KindMul, registry.Entry{
		HasOutVariant:  true,
		CanRunNatively: true,
		CanReuseInputs: true,
		OutVariant:     mulOut,
		Native:         mulNative,
	})
	r.Register(ir.KindSum, registry.Entry{
		HasOutVariant:  true,
		CanRunNatively: true,
		OutVariant:     sumOut,
		Native:         sumNative,
	})
	r.Register(ir.KindReshape, registry.Entry{
		CanRunNatively:        true,
		CanReuseInputsOutputs: true,
		Native:                reshapeNative,
	})
	r.Register(ir.KindPermute, registry.Entry{
		CanRunNatively:        true,
		CanReuseInputsOutputs: true,
		Native:                permuteNative,
	})
	r.Register(ir.KindNarrow, registry.Entry{
		CanRunNatively:        true,
		CanReuseInputsOutputs: true,
		Native:                narrowNative,
	})
	r.Register(ir.KindPermuteCopy, registry.Entry{
		HasOutVariant:  true,
		CanRunNatively: true,
		OutVariant:     permuteCopyOut,
		Native:         permuteCopyNative,
	})
	r.Register(ir.KindNarrowCopy, registry.Entry{
		HasOutVariant:  true,
		CanRunNatively: true,
		OutVariant:     narrowCopyOut,
		Native:         narrowCopyNative,
	})
	r.Register(ir.KindRelu, registry.Entry{
		HasOutVariant:  true,
		CanRunNatively: true,
		CanReuseInputs: true,
		OutVariant:     reluOut,
		Native:         reluNative,
	})
	r.Register(ir.KindReluFusedAdd, registry.Entry{
		CanRunNatively: true,
		Native:         addReluNative,
	})
}
