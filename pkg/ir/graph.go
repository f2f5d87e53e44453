package ir

import "fmt"

// Graph is an ordered sequence of nodes in topological order, plus the
// list of graph inputs (Values without a producer) and graph outputs
// (Values to expose).
type Graph struct {
	Nodes   []*Node
	Inputs  []*Value
	Outputs []*Value

	// HasSelf marks that Inputs[0] originated from a method's `self`
	// receiver. RemoveSelfFromGraphInput erases it (and this flag) once
	// it has no uses.
	HasSelf bool

	nextNodeID  int
	nextValueID int
}

// NewGraph creates an empty graph with the given number of inputs.
func NewGraph(numInputs int) *Graph {
	g := &Graph{}
	for i := 0; i < numInputs; i++ {
		g.Inputs = append(g.Inputs, g.newValue(TypeTensor))
	}
	return g
}

func (g *Graph) newValue(typ Type) *Value {
	v := &Value{ID: g.nextValueID, Type: typ}
	g.nextValueID++
	return v
}

// NewValue allocates a fresh Value with a graph-unique ID, for use by
// passes constructing replacement nodes.
func (g *Graph) NewValue(typ Type) *Value {
	return g.newValue(typ)
}

// RenumberValue assigns v a fresh graph-unique ID in place. Used by the
// Inline pass when splicing a callee's own Value objects into the caller
// graph's ID space, where the callee's original IDs may collide with the
// caller's.
func (g *Graph) RenumberValue(v *Value) {
	g.nextValueID++
	v.ID = g.nextValueID
}

// AppendNode appends n to the node list, assigning it a fresh ID and the
// next Index, and assigning fresh IDs to any of its outputs that don't
// have one yet.
func (g *Graph) AppendNode(n *Node) {
	n.ID = g.nextNodeID
	g.nextNodeID++
	n.Index = len(g.Nodes)
	for _, out := range n.Outputs {
		if out.Producer == n && out.ID == 0 {
			g.nextValueID++
			out.ID = g.nextValueID
		}
	}
	g.Nodes = append(g.Nodes, n)
}

// RemoveNodeAt deletes the node at position i, reindexing the remaining
// nodes. The caller is responsible for having already detached the node's
// inputs (RemoveUse) and having no remaining uses of its outputs;
// RemoveNodeAt checks neither.
func (g *Graph) RemoveNodeAt(i int) {
	g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
	for j := i; j < len(g.Nodes); j++ {
		g.Nodes[j].Index = j
	}
}

// ReplaceNodes swaps the current node list for a new one, reindexing.
// Passes that reorder nodes wholesale (Canonicalise) use this rather than
// repeated RemoveNodeAt/insert.
func (g *Graph) ReplaceNodes(nodes []*Node) {
	g.Nodes = nodes
	for i, n := range g.Nodes {
		n.Index = i
	}
}

// Clone returns a structurally independent deep copy of g: new Value and
// Node objects throughout, with all producer/use/input/output edges
// rewired to the clone's own objects. Optimize clones its input graph
// before running any pass, so the caller's graph is never mutated.
func (g *Graph) Clone() *Graph {
	clone := &Graph{HasSelf: g.HasSelf, nextNodeID: g.nextNodeID, nextValueID: g.nextValueID}

	valueMap := map[*Value]*Value{}
	cloneValue := func(v *Value) *Value {
		if v == nil {
			return nil
		}
		if cv, ok := valueMap[v]; ok {
			return cv
		}
		cv := &Value{ID: v.ID, Type: v.Type}
		valueMap[v] = cv
		return cv
	}

	for _, in := range g.Inputs {
		clone.Inputs = append(clone.Inputs, cloneValue(in))
	}

	for _, n := range g.Nodes {
		cn := &Node{ID: n.ID, Kind: n.Kind, Attrs: copyAttrs(n.Attrs), Index: n.Index, Callee: n.Callee}
		for slot, in := range n.Inputs {
			cin := cloneValue(in)
			cn.Inputs = append(cn.Inputs, cin)
			if cin != nil {
				cin.AddUse(cn, slot)
			}
		}
		for _, out := range n.Outputs {
			cout := cloneValue(out)
			cout.Producer = cn
			cn.Outputs = append(cn.Outputs, cout)
		}
		clone.Nodes = append(clone.Nodes, cn)
	}

	for _, out := range g.Outputs {
		clone.Outputs = append(clone.Outputs, cloneValue(out))
	}

	return clone
}

func copyAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// Constants returns every KindConstant node's sole output, in node order —
// these are populated once at InferenceModule/Runtime construction time.
func (g *Graph) Constants() []*Value {
	var out []*Value
	for _, n := range g.Nodes {
		if n.Kind == KindConstant {
			out = append(out, n.Outputs[0])
		}
	}
	return out
}

// Validate checks basic structural consistency: every non-input Value is
// produced by exactly one node appearing in Nodes, and there are no
// dangling references.
func (g *Graph) Validate() error {
	producers := map[*Value]bool{}
	for _, in := range g.Inputs {
		producers[in] = true
	}
	for _, n := range g.Nodes {
		for _, out := range n.Outputs {
			if out.Producer != n {
				return fmt.Errorf("ir: value %d claims producer mismatch for node %d", out.ID, n.ID)
			}
			producers[out] = true
		}
	}
	for _, n := range g.Nodes {
		for slot, in := range n.Inputs {
			if in == nil {
				return fmt.Errorf("ir: node %d input %d is nil", n.ID, slot)
			}
			if !producers[in] {
				return fmt.Errorf("ir: node %d input %d (value %d) has no producer in graph", n.ID, slot, in.ID)
			}
		}
	}
	for _, out := range g.Outputs {
		if !producers[out] {
			return fmt.Errorf("ir: graph output value %d has no producer in graph", out.ID)
		}
	}
	return nil
}
