// Package optimizer runs the Graph Optimiser's fixed pass sequence
// (§4.2): inline, constant-propagate, canonicalise, remove mutation,
// dead-code eliminate, optionally fuse and replace-with-copy, then strip
// a dangling self input — always in that order, since later passes rely
// on invariants the earlier ones establish.
package optimizer

import "github.com/staticrt/runtime/pkg/ir"

// Pass is one rewrite step over a Graph, grounded on enkilee-scql's
// ExecutionGraphPass shape: a name for logging plus a single mutating
// Run. Passes operate in place on the Graph they're given — Optimize
// clones the input once, up front, so passes never need to.
type Pass interface {
	Name() string
	Run(g *ir.Graph) error
}
