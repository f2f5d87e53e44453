// Package planner implements the Memory Planner (C6): it groups managed
// tensor storages, owns a single pooled buffer, and assigns/resets
// storage pointers once per Runtime invocation (§4.6).
//
// Grounded on sbl8-sublation's runtime/arena.go bump-allocator/region
// idiom (walk regions in order, assign each an offset, advance a running
// total) generalized from "one arena for the whole process" to "one
// pooled buffer per constructed Plan, rebuilt to a new high-water mark
// every deallocate()."
package planner

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/tensor"
)

// Group is one pooled-buffer region: every slot in Slots is repointed at
// the same offset on every allocate(), and the group's Size is the
// high-water mark discovered by the previous deallocate().
type Group struct {
	Slots []*tensor.IValue
	Size  int
	// offset records where allocate() placed the group in the pooled
	// buffer; nothing else reads it, and it carries no meaning between
	// calls.
	offset int
}

// Plan is the result of one Memory Planner construction: an ordered list
// of storage groups plus the slots that must always be reset to none on
// every deallocate(), independent of group membership.
type Plan struct {
	groups         []*Group
	unmanagedSlots []*tensor.IValue
	managedBytes   int
	allocator      tensor.Allocator
	buffer         []byte
}

// ManagedBytes reports the pooled buffer size the plan currently
// believes it needs — zero until at least one deallocate() has run.
func (p *Plan) ManagedBytes() int { return p.managedBytes }

// Build runs the Plan Construction algorithm (§4.6, steps 1-6) once for
// a Runtime. slots maps every Value with an IValue slot in the value
// table to that slot's stable address; shouldShare optionally forces a
// Value's group to also contain each of its listed companions.
//
// manageOutputs mirrors the InferenceModule's ManageOutputTensors option
// (off by default): when false, step 5's removal of every direct graph
// output from the managed set runs unconditionally, matching the
// conservative behaviour of always handing the caller a tensor the
// planner will never reclaim; when true, a direct graph output that also
// satisfies should_manage stays eligible for grouping, and the Runtime
// takes on the responsibility of not reading it after the caller's
// reference would expect to still own it.
func Build(g *ir.Graph, reg *registry.Registry, slots map[*ir.Value]*tensor.IValue, shouldShare map[*ir.Value][]*ir.Value, allocator tensor.Allocator, manageOutputs bool) (*Plan, error) {
	graphInputs := map[*ir.Value]bool{}
	for _, in := range g.Inputs {
		graphInputs[in] = true
	}

	managedSet := map[*ir.Value]bool{}
	var managedOrder []*ir.Value
	unmanagedSet := map[*tensor.IValue]bool{}

	for _, n := range g.Nodes {
		// Constant slots are filled once at Runtime construction and
		// never recomputed, so they are neither managed nor reset.
		if n.Kind == ir.KindConstant {
			continue
		}
		shouldManage := reg.HasOutVariant(n) && !(reg.IsViewOp(n) && anyInputIn(n, graphInputs))
		for _, out := range n.Outputs {
			slot, ok := slots[out]
			if !ok {
				continue
			}
			if shouldManage && out.Type == ir.TypeTensor {
				managedSet[out] = true
				managedOrder = append(managedOrder, out)
			} else {
				unmanagedSet[slot] = true
			}
		}
	}

	for _, out := range g.Outputs {
		if out.Producer == nil {
			continue
		}
		if out.Producer.Kind != ir.KindTupleConstruct && out.Producer.Kind != ir.KindListConstruct {
			continue
		}
		for _, elem := range out.Producer.Inputs {
			delete(managedSet, elem)
			if !graphInputs[elem] {
				if slot, ok := slots[elem]; ok {
					unmanagedSet[slot] = true
				}
			}
		}
	}

	if !manageOutputs {
		for _, out := range g.Outputs {
			delete(managedSet, out)
			if slot, ok := slots[out]; ok {
				delete(unmanagedSet, slot)
			}
		}
	}

	var filteredOrder []*ir.Value
	for _, v := range managedOrder {
		if managedSet[v] {
			filteredOrder = append(filteredOrder, v)
		}
	}

	groupOf, err := groupByStorage(filteredOrder, slots, shouldShare)
	if err != nil {
		return nil, err
	}

	var unmanagedSlots []*tensor.IValue
	for slot := range unmanagedSet {
		unmanagedSlots = append(unmanagedSlots, slot)
	}

	if allocator == nil {
		allocator = tensor.NewCachingAllocator()
	}

	return &Plan{groups: groupOf, unmanagedSlots: unmanagedSlots, allocator: allocator}, nil
}

func anyInputIn(n *ir.Node, set map[*ir.Value]bool) bool {
	for _, in := range n.Inputs {
		if set[in] {
			return true
		}
	}
	return false
}

// groupByStorage implements plan step 6: values with the same current
// storage identity join a group founded by the first value that
// introduces it; should_share forces additional values into a founder's
// group regardless of their current storage identity.
func groupByStorage(order []*ir.Value, slots map[*ir.Value]*tensor.IValue, shouldShare map[*ir.Value][]*ir.Value) ([]*Group, error) {
	index := map[*ir.Value]int{}
	for i, v := range order {
		index[v] = i
	}

	parent := make([]int, len(order))
	for i := range parent {
		parent[i] = i
	}
	var find func(i int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	storageOwner := map[*tensor.Storage]int{}
	for i, v := range order {
		slot := slots[v]
		if !slot.IsTensor() {
			return nil, fmt.Errorf("planner: managed value %d has no tensor bound in its slot", v.ID)
		}
		st := slot.Tensor().Storage()
		if owner, ok := storageOwner[st]; ok {
			union(owner, i)
		} else {
			storageOwner[st] = i
		}
	}

	for founder, companions := range shouldShare {
		fi, ok := index[founder]
		if !ok {
			continue
		}
		for _, c := range companions {
			if ci, ok := index[c]; ok {
				union(fi, ci)
			}
		}
	}

	groupIndex := map[int]int{}
	var groups []*Group
	for i, v := range order {
		root := find(i)
		gi, ok := groupIndex[root]
		if !ok {
			gi = len(groups)
			groupIndex[root] = gi
			groups = append(groups, &Group{})
		}
		groups[gi].Slots = append(groups[gi].Slots, slots[v])
	}
	return groups, nil
}

// Allocate binds every managed slot to its group's offset inside one
// freshly allocated pooled buffer. A no-op when ManagedBytes is zero —
// the state a brand new Plan starts in, and the state every plan returns
// to immediately after construction until the first deallocate()
// discovers real sizes.
func (p *Plan) Allocate() {
	if p.managedBytes == 0 {
		return
	}
	p.buffer = p.allocator.Allocate(p.managedBytes)
	offset := 0
	for _, g := range p.groups {
		g.offset = offset
		region := p.buffer[offset : offset+g.Size]
		for _, slot := range g.Slots {
			t := slot.Tensor()
			t.Storage().SetDataPtrNoSwap(region)
			t.Storage().SetNBytes(g.Size)
		}
		offset += g.Size
	}
}

// Deallocate resets every managed storage's data pointer to nil
// (preserving the Storage and Tensor objects), records each group's
// newly discovered high-water mark, resets every unmanaged slot to none,
// and releases the pooled buffer back to the allocator.
func (p *Plan) Deallocate() {
	managedBytes := 0
	for _, g := range p.groups {
		maxSize := 0
		for _, slot := range g.Slots {
			st := slot.Tensor().Storage()
			if n := tensor.AlignUp(st.NBytes(), tensor.Alignment); n > maxSize {
				maxSize = n
			}
			st.Reset()
		}
		g.Size = maxSize
		managedBytes += maxSize
	}
	p.managedBytes = managedBytes

	for _, slot := range p.unmanagedSlots {
		slot.Reset()
	}

	if p.buffer != nil {
		p.allocator.Free(p.buffer)
		p.buffer = nil
	}
}
