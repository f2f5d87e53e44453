package optimizer

import "github.com/staticrt/runtime/pkg/ir"

// InlinePass replaces every Call node with its callee subgraph spliced
// directly into the parent, substituting the callee's formal inputs for
// the call's actual argument Values. Runs first in the fixed sequence so
// every later pass only ever sees a single flat graph.
type InlinePass struct{}

func (InlinePass) Name() string { return "inline" }

func (InlinePass) Run(g *ir.Graph) error {
	for {
		idx := findCall(g)
		if idx < 0 {
			return nil
		}
		inlineAt(g, idx)
	}
}

func findCall(g *ir.Graph) int {
	for i, n := range g.Nodes {
		if n.Kind == ir.KindCall {
			return i
		}
	}
	return -1
}

func inlineAt(g *ir.Graph, idx int) {
	call := g.Nodes[idx]
	callee := call.Callee

	substitute := make(map[*ir.Value]*ir.Value, len(callee.Inputs))
	for i, formal := range callee.Inputs {
		substitute[formal] = call.Inputs[i]
	}

	resolve := func(v *ir.Value) *ir.Value {
		if repl, ok := substitute[v]; ok {
			return repl
		}
		return v
	}

	for _, n := range callee.Nodes {
		for slot, in := range n.Inputs {
			repl := resolve(in)
			if repl != in {
				in.RemoveUse(n, slot)
				n.Inputs[slot] = repl
				repl.AddUse(n, slot)
			}
		}
		for _, out := range n.Outputs {
			if out.Producer == n {
				g.RenumberValue(out)
			}
		}
		g.AppendNode(n)
	}

	for i, out := range call.Outputs {
		replacement := resolve(callee.Outputs[i])
		for _, use := range append([]ir.Use(nil), out.Uses()...) {
			use.Node.ReplaceInput(use.Slot, replacement)
		}
		for gi, gout := range g.Outputs {
			if gout == out {
				g.Outputs[gi] = replacement
			}
		}
	}

	remaining := make([]*ir.Node, 0, len(g.Nodes)-1)
	for _, n := range g.Nodes {
		if n != call {
			remaining = append(remaining, n)
		}
	}
	g.ReplaceNodes(remaining)
}
