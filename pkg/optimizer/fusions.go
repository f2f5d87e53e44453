package optimizer

import "github.com/staticrt/runtime/pkg/ir"

// fusionPattern is one entry in the domain fusion table: a producer kind
// immediately followed by a single-use consumer kind is rewritten into
// one fused node of kind Fused, keeping the producer's inputs and the
// consumer's output Value identity.
//
// This runtime's fusion table carries one entry — Add immediately
// consumed by a single Relu — because it is the only fusion with a real
// backing kernel (fused::add_relu, pkg/kernels). §4.2 describes a table
// of seven rewrites in the system this design is based on; fabricating
// the other six here, with no operator to execute them, would leave dead
// pattern matches that can never fire. The table is shaped so that
// adding a real entry later is one line, not a redesign.
var fusionTable = []fusionPattern{
	{Producer: ir.KindAdd, Consumer: ir.KindRelu, Fused: ir.KindReluFusedAdd},
}

type fusionPattern struct {
	Producer ir.Kind
	Consumer ir.Kind
	Fused    ir.Kind
}

// DomainFusionsPass collapses producer->consumer chains matching an
// entry in fusionTable into a single fused node, guarded by Enable so a
// build can disable fusion entirely (§9's "feature flags... resolve at
// build configuration time").
type DomainFusionsPass struct {
	Enable bool
}

func (DomainFusionsPass) Name() string { return "domain-fusions" }

func (p DomainFusionsPass) Run(g *ir.Graph) error {
	if !p.Enable {
		return nil
	}
	for {
		if !p.fuseOne(g) {
			return nil
		}
	}
}

func (p DomainFusionsPass) fuseOne(g *ir.Graph) bool {
	for _, pattern := range fusionTable {
		for _, producer := range g.Nodes {
			if producer.Kind != pattern.Producer || len(producer.Outputs) != 1 {
				continue
			}
			out := producer.Outputs[0]
			uses := out.Uses()
			if len(uses) != 1 {
				continue
			}
			consumer := uses[0].Node
			if consumer.Kind != pattern.Consumer || len(consumer.Outputs) != 1 {
				continue
			}
			if aliasesGraphOutput(g, out) {
				continue
			}
			fuse(g, producer, consumer, pattern.Fused)
			return true
		}
	}
	return false
}

func aliasesGraphOutput(g *ir.Graph, v *ir.Value) bool {
	for _, out := range g.Outputs {
		if out == v {
			return true
		}
	}
	return false
}

// fuse merges producer and consumer into a single node of kind fused,
// reusing producer's inputs/attrs and consumer's output Value identity,
// then removes both original nodes from g.
func fuse(g *ir.Graph, producer, consumer *ir.Node, fused ir.Kind) {
	producer.Outputs[0].RemoveUse(consumer, 0)
	producer.Kind = fused
	producer.Outputs = consumer.Outputs
	producer.Outputs[0].Producer = producer

	remaining := make([]*ir.Node, 0, len(g.Nodes)-1)
	for _, n := range g.Nodes {
		if n != consumer {
			remaining = append(remaining, n)
		}
	}
	g.ReplaceNodes(remaining)
}
