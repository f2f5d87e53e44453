// Package liveness computes, for an optimised graph, which Values are
// simultaneously live — the input the Memory Planner needs to decide
// which managed tensors may safely share one storage group (§4.5).
//
// Grounded on Atul-Ranjan12's graph_analysis.go/retention.go producer/
// consumer bookkeeping (tracking a pending-consumer count per node and
// evicting a value from the live set once its last consumer has run) and
// enkilee-scql's tensor_tracker.go map-of-sets interference representation.
package liveness

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
)

// Map records, for each Value, the set of Values simultaneously live with
// it. Symmetric: Map[a][b] iff Map[b][a]. Reflexive-free: Map[v] never
// contains v itself.
type Map map[*ir.Value]map[*ir.Value]bool

// Interferes reports whether a and b are ever simultaneously live.
func (m Map) Interferes(a, b *ir.Value) bool {
	return m[a] != nil && m[a][b]
}

func (m Map) add(a, b *ir.Value) {
	if a == b {
		return
	}
	if m[a] == nil {
		m[a] = map[*ir.Value]bool{}
	}
	if m[b] == nil {
		m[b] = map[*ir.Value]bool{}
	}
	m[a][b] = true
	m[b][a] = true
}

// AlwaysAlive is the set of Values the Memory Planner must never manage:
// graph inputs, graph outputs, and every constant producer's output.
type AlwaysAlive map[*ir.Value]bool

// Result bundles the Liveness Analyser's two outputs.
type Result struct {
	Liveness    Map
	AlwaysAlive AlwaysAlive
}

// Analyze runs the liveness sweep over g, which must already be in
// topological node order (Canonicalise's postcondition).
func Analyze(g *ir.Graph) (*Result, error) {
	liveness := Map{}
	always := AlwaysAlive{}
	for _, in := range g.Inputs {
		always[in] = true
	}
	for _, out := range g.Outputs {
		always[out] = true
	}

	live := map[*ir.Value]bool{}
	pending := map[*ir.Value]int{}
	for _, in := range g.Inputs {
		live[in] = true
		pending[in] = len(in.Uses())
	}
	for a := range live {
		for b := range live {
			liveness.add(a, b)
		}
	}

	for _, n := range g.Nodes {
		for _, out := range n.Outputs {
			if !out.HasUses() {
				continue
			}
			for w := range live {
				liveness.add(out, w)
			}
			live[out] = true
			pending[out] = len(out.Uses())
		}

		for _, in := range n.Inputs {
			if in.Producer != nil && in.Producer.Kind == ir.KindConstant {
				always[in] = true
				continue
			}
			pending[in]--
			if pending[in] <= 0 {
				delete(live, in)
			}
		}
	}

	// Safety bound: every input interferes with every output of the same
	// node, regardless of use-count bookkeeping above, so in-place reuse
	// never aliases a node's own inputs and outputs together.
	for _, n := range g.Nodes {
		for _, in := range n.Inputs {
			for _, out := range n.Outputs {
				liveness.add(in, out)
			}
		}
	}

	for v := range live {
		if !always[v] {
			return nil, fmt.Errorf("liveness: value %d never left the live set but is not in always_alive", v.ID)
		}
	}

	return &Result{Liveness: liveness, AlwaysAlive: always}, nil
}
