package optimizer

import "github.com/staticrt/runtime/pkg/ir"

// RemoveSelfFromGraphInputPass erases graph input 0 when it originated
// from a method's `self` receiver and, after every other pass has run,
// turned out to have no remaining uses. Runs last in the fixed sequence.
type RemoveSelfFromGraphInputPass struct {
	// Schema is updated in place to match — its leading `self` argument
	// name is stripped in lockstep with the input being removed. Nil if
	// the module has no call schema.
	Schema *ir.Schema
}

func (RemoveSelfFromGraphInputPass) Name() string { return "remove-self-from-graph-input" }

func (p RemoveSelfFromGraphInputPass) Run(g *ir.Graph) error {
	if !g.HasSelf || len(g.Inputs) == 0 {
		return nil
	}
	self := g.Inputs[0]
	if self.HasUses() {
		return nil
	}
	g.Inputs = g.Inputs[1:]
	g.HasSelf = false
	if p.Schema != nil {
		p.Schema.StripSelf()
	}
	return nil
}
