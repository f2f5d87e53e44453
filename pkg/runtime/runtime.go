// Package runtime implements Processed Nodes (C7) and the Runtime (C8):
// the per-construction, repeatedly-invoked execution engine a Runtime
// builds once from an InferenceModule and then calls many times.
//
// Grounded on justinsb-kllama's pkg/engine.Evaluate (resolve a value table
// once, walk nodes in order, write results back into it) generalized from
// "walk a fixed node list each call, re-resolving every value from a map"
// to "precompile a ProcessedNode per node once, against stable slot
// addresses, and just re-run the precompiled list on every call."
package runtime

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/liveness"
	"github.com/staticrt/runtime/pkg/module"
	"github.com/staticrt/runtime/pkg/planner"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

// Runtime owns one value table (the arena backing every graph Value's
// slot) and one topologically ordered list of Processed Nodes built
// against it. Not safe for concurrent Run calls — construct one Runtime
// per concurrent caller from the same, freely shareable, InferenceModule.
type Runtime struct {
	module   *module.InferenceModule
	registry *registry.Registry

	// table is a once-allocated arena: every slot's address is stable for
	// the Runtime's whole lifetime, which is what lets the Memory Planner
	// and every ProcessedNode hold a raw *tensor.IValue across calls.
	table     []tensor.IValue
	slotIndex map[*ir.Value]int

	inputSlots  []*tensor.IValue
	outputSlots []*tensor.IValue
	nodes       []*ProcessedNode

	plan    *planner.Plan
	running atomic.Bool
}

// New builds a Runtime from m: materializes the value table, evaluates
// every Constant node into its slot, and precompiles one ProcessedNode per
// remaining node, choosing its dispatch strategy once and for all.
func New(m *module.InferenceModule, reg *registry.Registry) (*Runtime, error) {
	g := m.Graph()

	total := len(g.Inputs)
	for _, n := range g.Nodes {
		total += len(n.Outputs)
	}
	table := make([]tensor.IValue, total)
	slotIndex := make(map[*ir.Value]int, total)
	idx := 0
	for _, in := range g.Inputs {
		slotIndex[in] = idx
		idx++
	}
	for _, n := range g.Nodes {
		for _, out := range n.Outputs {
			slotIndex[out] = idx
			idx++
		}
	}

	rt := &Runtime{module: m, registry: reg, table: table, slotIndex: slotIndex}
	slot := func(v *ir.Value) *tensor.IValue { return &rt.table[slotIndex[v]] }

	rt.inputSlots = make([]*tensor.IValue, len(g.Inputs))
	for i, in := range g.Inputs {
		rt.inputSlots[i] = slot(in)
	}

	opts := m.Options()
	for _, n := range g.Nodes {
		if n.Kind == ir.KindConstant {
			shape := n.AttrInts("shape", nil)
			values, _ := n.Attrs["value"].([]float32)
			*slot(n.Outputs[0]) = tensor.FromTensor(tensor.FromFloat32(shape, values))
			continue
		}

		ins := make([]*tensor.IValue, len(n.Inputs))
		for i, v := range n.Inputs {
			ins[i] = slot(v)
		}
		outs := make([]*tensor.IValue, len(n.Outputs))
		for i, v := range n.Outputs {
			outs[i] = slot(v)
		}

		var outFn registry.OutVariantFn
		var nativeFn registry.NativeFn
		if !n.IsSpecial() {
			switch {
			case opts.EnableOutVariant && reg.HasOutVariant(n):
				outFn, _ = reg.GetOutOfPlaceOperation(n)
				bindPlaceholders(n, outs)
			case reg.CanRunNatively(n):
				nativeFn, _ = reg.GetNativeOperation(n)
			case reg.HasOutVariant(n):
				// An out-variant exists but enable_out_variant is off and
				// this kind has no separate native closure: every kind
				// this runtime registers declares a native alongside its
				// out-variant, so this path is unreachable for the
				// current op set. Kept because the registry contract
				// (HasOutVariant or CanRunNatively) doesn't guarantee
				// that pairing for a future op, and running the
				// out-variant against a pre-bound placeholder is exactly
				// what the generic fallback would otherwise have to
				// reimplement.
				outFn, _ = reg.GetOutOfPlaceOperation(n)
				bindPlaceholders(n, outs)
			default:
				return nil, fmt.Errorf("%w: %s", ErrOperatorMissing, n.Kind)
			}
		}

		rt.nodes = append(rt.nodes, newProcessedNode(n, ins, outs, outFn, nativeFn))
	}

	rt.outputSlots = make([]*tensor.IValue, len(g.Outputs))
	for i, out := range g.Outputs {
		rt.outputSlots[i] = slot(out)
	}

	return rt, nil
}

func bindPlaceholders(n *ir.Node, outs []*tensor.IValue) {
	for i, v := range n.Outputs {
		if v.Type == ir.TypeTensor {
			*outs[i] = tensor.FromTensor(tensor.New([]int{0}))
		}
	}
}

// NumOutputs reports how many graph outputs a call returns packaged
// together (more than one comes back as a tuple).
func (rt *Runtime) NumOutputs() int { return len(rt.outputSlots) }

// ReleaseOutputs tells the Runtime the caller is done with the tensors the
// previous Run returned. A no-op unless the module enabled
// ManageOutputTensors, in which case graph outputs are themselves drawn
// from the pooled buffer and the planner needs an explicit signal before
// it can safely hand that storage to the next invocation.
func (rt *Runtime) ReleaseOutputs() {
	if !rt.module.Options().ManageOutputTensors {
		return
	}
	for _, s := range rt.outputSlots {
		s.Reset()
	}
}

// Run executes one invocation end to end (§4.8, steps 1-6): binds
// arguments into the input slots, walks every Processed Node in
// topological order, collects the graph outputs, and — if the module asks
// for activation cleanup — lazily builds the Memory Planner from the
// first invocation's now-real storage identities and deallocates.
func (rt *Runtime) Run(args []tensor.IValue, kwargs map[string]tensor.IValue) (tensor.IValue, error) {
	out, _, err := rt.run(args, kwargs, false)
	return out, err
}

// NodeKinds returns the Kind of every Processed Node in topological
// order, parallel to the []time.Duration RunTimed returns — pkg/bench's
// benchmark_individual_ops groups one against the other by node type.
func (rt *Runtime) NodeKinds() []ir.Kind {
	kinds := make([]ir.Kind, len(rt.nodes))
	for i, pn := range rt.nodes {
		kinds[i] = pn.node.Kind
	}
	return kinds
}

// RunTimed behaves exactly like Run but additionally returns the wall-clock
// time each Processed Node took, in the same topological order NodeKinds
// reports — the per-node instrumentation pkg/bench's
// benchmark_individual_ops needs.
func (rt *Runtime) RunTimed(args []tensor.IValue, kwargs map[string]tensor.IValue) (tensor.IValue, []time.Duration, error) {
	return rt.run(args, kwargs, true)
}

func (rt *Runtime) run(args []tensor.IValue, kwargs map[string]tensor.IValue, withTimings bool) (tensor.IValue, []time.Duration, error) {
	if !rt.running.CompareAndSwap(false, true) {
		return tensor.IValue{}, nil, ErrReentered
	}
	defer rt.running.Store(false)

	if rt.plan != nil {
		rt.plan.Allocate()
	}

	positional, err := rt.bindArguments(args, kwargs)
	if err != nil {
		return tensor.IValue{}, nil, err
	}
	if len(positional) != len(rt.inputSlots) {
		return tensor.IValue{}, nil, fmt.Errorf("%w: graph expects %d input(s), got %d", ErrArityMismatch, len(rt.inputSlots), len(positional))
	}
	for i, v := range positional {
		*rt.inputSlots[i] = v
	}

	var timings []time.Duration
	if withTimings {
		timings = make([]time.Duration, len(rt.nodes))
	}
	for i, pn := range rt.nodes {
		start := time.Now()
		if err := pn.Run(); err != nil {
			return tensor.IValue{}, nil, fmt.Errorf("runtime: node %d (%s): %w", pn.node.ID, pn.node.Kind, err)
		}
		if withTimings {
			timings[i] = time.Since(start)
		}
	}

	out := rt.collectOutputs()

	if rt.module.Options().CleanupActivations {
		if rt.plan == nil {
			plan, err := rt.buildPlan()
			if err != nil {
				return tensor.IValue{}, nil, err
			}
			rt.plan = plan
		}
		rt.plan.Deallocate()
		for _, slot := range rt.inputSlots {
			slot.Reset()
		}
	}

	return out, timings, nil
}

// bindArguments reorders args/kwargs into the graph's declared positional
// input order. With no kwargs, args are assumed already positional — the
// common case for a module with no call schema.
func (rt *Runtime) bindArguments(args []tensor.IValue, kwargs map[string]tensor.IValue) ([]tensor.IValue, error) {
	if len(kwargs) == 0 {
		return args, nil
	}
	schema := rt.module.Schema()
	if schema == nil {
		return nil, ErrSchemaRequired
	}

	boxedArgs := make([]interface{}, len(args))
	for i, a := range args {
		boxedArgs[i] = a
	}
	boxedKwargs := make(map[string]interface{}, len(kwargs))
	for k, v := range kwargs {
		boxedKwargs[k] = v
	}
	boxedOut, err := schema.Normalize(boxedArgs, boxedKwargs)
	if err != nil {
		return nil, err
	}
	out := make([]tensor.IValue, len(boxedOut))
	for i, b := range boxedOut {
		v, ok := b.(tensor.IValue)
		if !ok {
			return nil, fmt.Errorf("runtime: schema argument %d did not resolve to a tensor.IValue", i)
		}
		out[i] = v
	}
	return out, nil
}

// collectOutputs returns the sole output directly, or packages more than
// one as a tuple — mirroring the teacher's single-vs-multi-result
// evaluation convention.
func (rt *Runtime) collectOutputs() tensor.IValue {
	if len(rt.outputSlots) == 1 {
		return *rt.outputSlots[0]
	}
	elems := make([]tensor.IValue, len(rt.outputSlots))
	for i, s := range rt.outputSlots {
		elems[i] = *s
	}
	return tensor.NewTuple(elems...)
}

// buildPlan runs the Liveness Analyser (purely as a construction-time
// invariant check; this runtime does not yet derive should_share
// groupings from it — see DESIGN.md) and then the Memory Planner, against
// the now-real storage identities the first invocation produced.
func (rt *Runtime) buildPlan() (*planner.Plan, error) {
	g := rt.module.Graph()
	if _, err := liveness.Analyze(g); err != nil {
		return nil, fmt.Errorf("runtime: computing liveness: %w", err)
	}

	slots := make(map[*ir.Value]*tensor.IValue, len(rt.slotIndex))
	for v, idx := range rt.slotIndex {
		slots[v] = &rt.table[idx]
	}
	return planner.Build(g, rt.registry, slots, nil, nil, rt.module.Options().ManageOutputTensors)
}

// CheckForMemoryLeak is the debug post-run invariant (§4.8): once
// activation cleanup has run, every input slot and every non-constant,
// non-output intermediate slot must either be none or, for a managed
// tensor slot, have had its underlying storage reset. The Memory Planner
// deallocates a managed slot by nulling its Storage's data pointer in
// place (planner.Plan.Deallocate), not by resetting the IValue itself, so
// a cleaned-up intermediate still reports IsTensor — only its backing
// data is gone. Graph output slots are exempt — unless the module enables
// ManageOutputTensors, plan construction never assigns them to a managed
// group or the unmanaged-reset list, so the value the caller just
// received keeps referencing live data. outputReturned, when true, additionally
// asserts that every output slot really is still holding something,
// catching a Processed Node that silently failed to write its result.
func (rt *Runtime) CheckForMemoryLeak(outputReturned bool) error {
	if !debugAssertions {
		return nil
	}
	for i, slot := range rt.inputSlots {
		if !slot.IsNone() {
			return fmt.Errorf("%w: input slot %d still holds a %s", ErrMemoryLeak, i, slot.Kind())
		}
	}

	outputSet := make(map[*tensor.IValue]bool, len(rt.outputSlots))
	for i, s := range rt.outputSlots {
		outputSet[s] = true
		if outputReturned && s.IsNone() {
			return fmt.Errorf("%w: output slot %d is none despite being reported returned", ErrMemoryLeak, i)
		}
	}

	for v, idx := range rt.slotIndex {
		if v.Producer == nil || v.Producer.Kind == ir.KindConstant {
			continue
		}
		slot := &rt.table[idx]
		if outputSet[slot] {
			continue
		}
		if slot.IsNone() {
			continue
		}
		if slot.IsTensor() && slot.Tensor().Storage().Data() == nil {
			continue
		}
		return fmt.Errorf("%w: value %d still holds a %s after cleanup", ErrMemoryLeak, v.ID, slot.Kind())
	}
	return nil
}
