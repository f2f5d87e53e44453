package optimizer

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
)

// CanonicalisePass reorders g's nodes into a canonical topological order:
// a node is scheduled as soon as every input it depends on has been
// produced. Grounded on the teacher's dag.go BuildDAG — a repeated
// progress-making sweep rather than an explicit worklist/queue — since
// the graphs this runtime handles are small enough that O(n^2) is not a
// concern and the shape directly matches what the rest of the codebase
// already does for dependency ordering.
type CanonicalisePass struct{}

func (CanonicalisePass) Name() string { return "canonicalise" }

func (CanonicalisePass) Run(g *ir.Graph) error {
	produced := map[*ir.Value]bool{}
	for _, in := range g.Inputs {
		produced[in] = true
	}

	remaining := append([]*ir.Node(nil), g.Nodes...)
	var ordered []*ir.Node

	for len(remaining) > 0 {
		progress := false
		var next []*ir.Node
		for _, n := range remaining {
			if ready(n, produced) {
				ordered = append(ordered, n)
				for _, out := range n.Outputs {
					produced[out] = true
				}
				progress = true
			} else {
				next = append(next, n)
			}
		}
		remaining = next
		if !progress {
			return fmt.Errorf("optimizer: canonicalise found a cycle among %d remaining node(s)", len(remaining))
		}
	}

	g.ReplaceNodes(ordered)
	return nil
}

func ready(n *ir.Node, produced map[*ir.Value]bool) bool {
	for _, in := range n.Inputs {
		if in != nil && !produced[in] {
			return false
		}
	}
	return true
}
