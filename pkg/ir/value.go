package ir

// Use records a single (consumer node, input slot) pair for a Value.
type Use struct {
	Node *Node
	Slot int
}

// Value is a symbolic SSA result produced by exactly one node (or, for
// graph inputs, by none).
type Value struct {
	ID       int
	Type     Type
	Producer *Node // nil for graph inputs
	uses     []Use
}

// NewValue creates a Value with the given static type. ID is assigned by
// the Graph that owns it.
func NewValue(typ Type) *Value {
	return &Value{Type: typ}
}

// Uses returns every (node, slot) pair that consumes v.
func (v *Value) Uses() []Use { return v.uses }

// AddUse records that node consumes v at the given input slot.
func (v *Value) AddUse(node *Node, slot int) {
	v.uses = append(v.uses, Use{Node: node, Slot: slot})
}

// RemoveUse removes the first recorded use of v by node at slot, if
// present. Passes call this when they rewrite a node's inputs.
func (v *Value) RemoveUse(node *Node, slot int) {
	for i, u := range v.uses {
		if u.Node == node && u.Slot == slot {
			v.uses = append(v.uses[:i], v.uses[i+1:]...)
			return
		}
	}
}

// HasUses reports whether any node still consumes v.
func (v *Value) HasUses() bool { return len(v.uses) > 0 }

// IsTensorOnlyAggregate reports whether v is a Tuple or List all of whose
// elements are Tensor-typed — the only aggregate output shape the
// eligibility checker accepts.
func (v *Value) IsTensorOnlyAggregate() bool {
	if v.Type != TypeTuple && v.Type != TypeList {
		return false
	}
	if v.Producer == nil {
		return false
	}
	for _, in := range v.Producer.Inputs {
		if in.Type != TypeTensor {
			return false
		}
	}
	return true
}
