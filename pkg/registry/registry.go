// Package registry classifies graph nodes and hands back the dispatch
// function a Processed Node should precompile for a given node.
//
// The classification is static, keyed on node kind, and must be total and
// deterministic (§4.1 of the runtime design). It is grounded on the
// teacher's two-engine split (justinsb-kllama's pkg/engine/ggml vs
// pkg/engine/fallback, two implementations of the same Scope interface)
// generalized from "pick one engine for the whole run" to "pick one
// dispatch strategy per node."
package registry

import "github.com/staticrt/runtime/pkg/ir"

// OutVariantFn writes directly into ctx's output slots using ctx's
// inputs, without allocating new storage — the fast path out-variant ops
// are selected for.
type OutVariantFn func(ctx OpContext, node *ir.Node) error

// NativeFn is a precompiled, non-out-variant implementation: it may
// allocate its own output storage (which the Memory Planner then cannot
// manage) but runs without going through the generic stack-based
// interpreter.
type NativeFn func(ctx OpContext, node *ir.Node) error

// Entry is the static classification record for one Kind. Built by a
// package (pkg/kernels) that implements ops and installed into a Registry
// via Register.
type Entry struct {
	HasOutVariant        bool
	CanRunNatively        bool
	CanReuseInputs        bool
	CanReuseOutputs       bool
	CanReuseInputsOutputs bool
	OutVariant            OutVariantFn
	Native                NativeFn
}

// Registry is a read-only (after construction) classification table. A
// freshly built Registry is empty; callers populate it once via Register
// and never mutate it again, matching the design notes' "op registry ...
// effectively process-wide read-only tables, initialised once."
type Registry struct {
	entries map[ir.Kind]Entry
}

// New returns an empty Registry. Op-implementing packages (pkg/kernels)
// populate it via Register before it is handed to an InferenceModule.
func New() *Registry {
	return &Registry{entries: map[ir.Kind]Entry{}}
}

// Register installs the classification for kind. Intended to be called
// only during setup (pkg/kernels.Install), never once a Runtime has been
// constructed against this registry.
func (r *Registry) Register(kind ir.Kind, e Entry) {
	r.entries[kind] = e
}

func (r *Registry) lookup(kind ir.Kind) (Entry, bool) {
	e, ok := r.entries[kind]
	return e, ok
}

// HasOutVariant reports whether node's kind has an out-of-place
// implementation that writes into caller-owned storage.
func (r *Registry) HasOutVariant(node *ir.Node) bool {
	e, ok := r.lookup(node.Kind)
	return ok && e.HasOutVariant
}

// CanRunNatively reports whether node's kind has a precompiled
// implementation that doesn't require the generic interpreter, even if
// it lacks an out-variant.
func (r *Registry) CanRunNatively(node *ir.Node) bool {
	e, ok := r.lookup(node.Kind)
	return ok && e.CanRunNatively
}

// IsViewOp reports whether node's output aliases one of its inputs'
// storage. Delegates to the Kind's structural metadata rather than the
// per-op registration table, since view-ness is determined by the op
// itself, not by whether an implementation happens to be registered.
func (r *Registry) IsViewOp(node *ir.Node) bool {
	return node.Kind.IsView()
}

// CanReuseInputs, CanReuseOutputs, CanReuseInputsOutputs are fine-grained
// reuse predicates beyond has-out-variant: even an out-variant op may or
// may not be safe to run with its output aliasing one of its inputs
// (CanReuseInputs), or its output storage reused for a *different* node's
// input (CanReuseOutputs), or both simultaneously.
func (r *Registry) CanReuseInputs(node *ir.Node) bool {
	e, ok := r.lookup(node.Kind)
	return ok && e.CanReuseInputs
}

func (r *Registry) CanReuseOutputs(node *ir.Node) bool {
	e, ok := r.lookup(node.Kind)
	return ok && e.CanReuseOutputs
}

func (r *Registry) CanReuseInputsOutputs(node *ir.Node) bool {
	e, ok := r.lookup(node.Kind)
	return ok && e.CanReuseInputsOutputs
}

// GetOutOfPlaceOperation returns node's out-variant dispatch function. The
// caller must have already checked HasOutVariant.
func (r *Registry) GetOutOfPlaceOperation(node *ir.Node) (OutVariantFn, bool) {
	e, ok := r.lookup(node.Kind)
	if !ok || e.OutVariant == nil {
		return nil, false
	}
	return e.OutVariant, true
}

// GetNativeOperation returns node's native dispatch function. The caller
// must have already checked CanRunNatively.
func (r *Registry) GetNativeOperation(node *ir.Node) (NativeFn, bool) {
	e, ok := r.lookup(node.Kind)
	if !ok || e.Native == nil {
		return nil, false
	}
	return e.Native, true
}

// HasAnyOperation reports whether kind has either an out-variant or a
// native implementation registered. Used by constant propagation to skip
// nodes it has no implementation to fold with.
func (r *Registry) HasAnyOperation(node *ir.Node) bool {
	e, ok := r.lookup(node.Kind)
	return ok && (e.HasOutVariant || e.CanRunNatively)
}
