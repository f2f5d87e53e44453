package optimizer

import "github.com/staticrt/runtime/pkg/ir"

// DeadCodeEliminationPass removes every node none of whose outputs are
// used — by a later node or by the graph's own output list — working
// backwards so that dropping one dead node can expose its producers as
// newly dead in the same pass.
type DeadCodeEliminationPass struct{}

func (DeadCodeEliminationPass) Name() string { return "dead-code-elimination" }

func (DeadCodeEliminationPass) Run(g *ir.Graph) error {
	live := map[*ir.Value]bool{}
	for _, out := range g.Outputs {
		live[out] = true
	}

	var kept []*ir.Node
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		n := g.Nodes[i]
		if !anyOutputLive(n, live) {
			continue
		}
		kept = append([]*ir.Node{n}, kept...)
		for _, in := range n.Inputs {
			if in != nil {
				live[in] = true
			}
		}
	}

	for _, n := range g.Nodes {
		if !containsNode(kept, n) {
			for slot, in := range n.Inputs {
				if in != nil {
					in.RemoveUse(n, slot)
				}
			}
		}
	}

	g.ReplaceNodes(kept)
	return nil
}

func anyOutputLive(n *ir.Node, live map[*ir.Value]bool) bool {
	for _, out := range n.Outputs {
		if live[out] {
			return true
		}
	}
	return false
}

func containsNode(nodes []*ir.Node, n *ir.Node) bool {
	for _, c := range nodes {
		if c == n {
			return true
		}
	}
	return false
}
