package optimizer

import "github.com/staticrt/runtime/pkg/ir"

// RemoveMutationPass rewrites every in-place op to its functional form
// with a fresh SSA output, so no later pass (or the Memory Planner) ever
// has to reason about a node mutating shared storage in place.
type RemoveMutationPass struct{}

func (RemoveMutationPass) Name() string { return "remove-mutation" }

func (RemoveMutationPass) Run(g *ir.Graph) error {
	for _, n := range g.Nodes {
		functional, ok := n.Kind.InplaceFunctionalForm()
		if !ok {
			continue
		}
		n.Kind = functional
		for _, out := range n.Outputs {
			out.Type = ir.TypeTensor
		}
	}
	return nil
}
