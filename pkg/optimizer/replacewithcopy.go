package optimizer

import "github.com/staticrt/runtime/pkg/ir"

// ReplaceWithCopyPass rewrites a view op's kind to its `_copy` variant
// when its single output has exactly one use and does not alias a graph
// output — so the Memory Planner can manage the copy's storage instead of
// having to treat it as permanently aliased to an input it can never
// safely reuse.
//
// §4.2 requires alias analysis to run against a graph whose inputs have
// been temporarily replaced by a synthetic "pure" producer, so that a
// view op whose input chain reaches a graph input is detected as aliasing
// that input and left unrewritten (the real graph input Values carry no
// producer of their own, so without the marker a walk could not tell a
// graph input apart from any other producer-less value). Candidates is the fixed table this runtime checks;
// §4.2 names permute and narrow as the initial table.
type ReplaceWithCopyPass struct {
	Candidates []ir.Kind
}

// DefaultCandidates is the table named in the design: permute and narrow.
func DefaultCandidates() []ir.Kind {
	return []ir.Kind{ir.KindPermute, ir.KindNarrow}
}

func (ReplaceWithCopyPass) Name() string { return "replace-with-copy" }

func (p ReplaceWithCopyPass) Run(g *ir.Graph) error {
	shadow := withSyntheticInputProducers(g)

	candidates := p.Candidates
	if candidates == nil {
		candidates = DefaultCandidates()
	}

	for _, n := range g.Nodes {
		if !isCandidate(n.Kind, candidates) {
			continue
		}
		if len(n.Outputs) != 1 {
			continue
		}
		out := n.Outputs[0]
		if len(out.Uses()) != 1 {
			continue
		}
		if aliasesGraphOutput(g, out) {
			continue
		}
		if shadow.aliasesGraphInput(n) {
			continue
		}
		copyKind, ok := n.Kind.CopyVariant()
		if !ok {
			continue
		}
		n.Kind = copyKind
	}

	shadow.restore()
	return nil
}

func isCandidate(k ir.Kind, table []ir.Kind) bool {
	for _, c := range table {
		if c == k {
			return true
		}
	}
	return false
}

// syntheticInputs temporarily gives every graph input a placeholder
// producer of kind pureInputMarker, so alias analysis can ask "does this node's chain of
// inputs eventually reach a graph input" by checking producer kind
// instead of special-casing a nil producer.
type syntheticInputs struct {
	g        *ir.Graph
	original map[*ir.Value]*ir.Node
}

func withSyntheticInputProducers(g *ir.Graph) *syntheticInputs {
	s := &syntheticInputs{g: g, original: map[*ir.Value]*ir.Node{}}
	for _, in := range g.Inputs {
		s.original[in] = in.Producer
		in.Producer = &ir.Node{Kind: pureInputMarker}
	}
	return s
}

func (s *syntheticInputs) restore() {
	for v, producer := range s.original {
		v.Producer = producer
	}
}

// pureInputMarker tags the synthetic producer alias analysis installs on
// graph inputs for the duration of ReplaceWithCopy; it is never a real
// node kind that appears in any graph handed to this pass.
const pureInputMarker ir.Kind = "$synthetic-pure-input"

// aliasesGraphInput walks n's input chain through view ops (reshape,
// permute, narrow) looking for a value whose producer is the synthetic
// marker. The walk stops at ops already rewritten to their _copy form,
// which are not views and no longer alias anything.
func (s *syntheticInputs) aliasesGraphInput(n *ir.Node) bool {
	visited := map[*ir.Value]bool{}
	var walk func(v *ir.Value) bool
	walk = func(v *ir.Value) bool {
		if v == nil || visited[v] {
			return false
		}
		visited[v] = true
		if v.Producer != nil && v.Producer.Kind == pureInputMarker {
			return true
		}
		if v.Producer == nil || !v.Producer.Kind.IsView() {
			return false
		}
		for _, in := range v.Producer.Inputs {
			if walk(in) {
				return true
			}
		}
		return false
	}
	for _, in := range n.Inputs {
		if walk(in) {
			return true
		}
	}
	return false
}
