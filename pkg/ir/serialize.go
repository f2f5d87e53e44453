package ir

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Serialization format. Graph's in-memory representation is built from
// pointers with cycles (a Value's Producer points at a Node, a Node's
// Outputs point back at that same Value, a Value's uses point at
// consuming Nodes), which gob cannot round-trip directly. Following
// sbl8-sublation's model/graph.go (a flat Node array with integer offsets
// instead of pointers), Graph is flattened to index-addressed wire types
// before being gob-encoded, and rebuilt from indices on decode.

func init() {
	gob.Register(int(0))
	gob.Register(float64(0))
	gob.Register(bool(false))
	gob.Register("")
	gob.Register([]int{})
	gob.Register([]float32{})
}

type wireValue struct {
	ID   int
	Type Type
}

type wireNode struct {
	ID        int
	Kind      Kind
	InputIdx  []int // index into wireGraph.Values, -1 for a nil input
	OutputIdx []int
	Attrs     map[string]any
}

type wireGraph struct {
	Values    []wireValue
	Nodes     []wireNode
	InputIdx  []int
	OutputIdx []int
	HasSelf   bool
}

// Serialize flattens and gob-encodes g.
func (g *Graph) Serialize() ([]byte, error) {
	valueIndex := map[*Value]int{}
	var values []wireValue
	indexOf := func(v *Value) int {
		if v == nil {
			return -1
		}
		if idx, ok := valueIndex[v]; ok {
			return idx
		}
		idx := len(values)
		valueIndex[v] = idx
		values = append(values, wireValue{ID: v.ID, Type: v.Type})
		return idx
	}

	for _, in := range g.Inputs {
		indexOf(in)
	}

	var nodes []wireNode
	for _, n := range g.Nodes {
		wn := wireNode{ID: n.ID, Kind: n.Kind, Attrs: n.Attrs}
		for _, in := range n.Inputs {
			wn.InputIdx = append(wn.InputIdx, indexOf(in))
		}
		for _, out := range n.Outputs {
			wn.OutputIdx = append(wn.OutputIdx, indexOf(out))
		}
		nodes = append(nodes, wn)
	}

	wg := wireGraph{Values: values, Nodes: nodes, HasSelf: g.HasSelf}
	for _, in := range g.Inputs {
		wg.InputIdx = append(wg.InputIdx, indexOf(in))
	}
	for _, out := range g.Outputs {
		wg.OutputIdx = append(wg.OutputIdx, indexOf(out))
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wg); err != nil {
		return nil, fmt.Errorf("ir: encoding graph: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize rebuilds a Graph from bytes produced by Serialize.
func Deserialize(data []byte) (*Graph, error) {
	var wg wireGraph
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wg); err != nil {
		return nil, fmt.Errorf("ir: decoding graph: %w", err)
	}

	values := make([]*Value, len(wg.Values))
	for i, wv := range wg.Values {
		values[i] = &Value{ID: wv.ID, Type: wv.Type}
	}
	resolve := func(idx int) *Value {
		if idx < 0 {
			return nil
		}
		return values[idx]
	}

	g := &Graph{HasSelf: wg.HasSelf}
	for _, idx := range wg.InputIdx {
		g.Inputs = append(g.Inputs, resolve(idx))
	}

	for _, wn := range wg.Nodes {
		n := &Node{ID: wn.ID, Kind: wn.Kind, Attrs: wn.Attrs, Index: len(g.Nodes)}
		for slot, idx := range wn.InputIdx {
			in := resolve(idx)
			n.Inputs = append(n.Inputs, in)
			if in != nil {
				in.AddUse(n, slot)
			}
		}
		for _, idx := range wn.OutputIdx {
			out := resolve(idx)
			out.Producer = n
			n.Outputs = append(n.Outputs, out)
		}
		g.Nodes = append(g.Nodes, n)
		if n.ID >= g.nextNodeID {
			g.nextNodeID = n.ID + 1
		}
	}
	for _, idx := range wg.OutputIdx {
		g.Outputs = append(g.Outputs, resolve(idx))
	}
	for _, v := range values {
		if v.ID >= g.nextValueID {
			g.nextValueID = v.ID + 1
		}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("ir: decoded graph failed validation: %w", err)
	}
	return g, nil
}
