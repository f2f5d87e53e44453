// Package module defines the Inference Module (C4): the immutable
// artefact produced once per frozen graph and safely shared across many
// concurrently executing Runtimes.
package module

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/eligibility"
	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/optimizer"
	"github.com/staticrt/runtime/pkg/registry"
)

// Options are the per-module knobs the Runtime construction and
// invocation logic consult (§4.4, §4.8).
type Options struct {
	OptimizeMemory     bool
	EnableOutVariant   bool
	CleanupActivations bool

	// ManageOutputTensors additionally lets the Memory Planner reclaim a
	// graph output's storage once the caller has taken ownership of its
	// value, instead of treating every direct graph output as always
	// unmanaged. Off by default, matching the conservative behaviour
	// plan-construction step 5 describes.
	ManageOutputTensors bool

	EnableDomainFusions       bool
	EnableReplaceWithCopy     bool
	ReplaceWithCopyCandidates []ir.Kind
}

// InferenceModule is the optimized graph plus an optional call schema
// (with `self` already stripped) and the options every Runtime
// constructed from it inherits. Immutable after New returns.
type InferenceModule struct {
	graph   *ir.Graph
	schema  *ir.Schema
	options Options
}

// New runs the Graph Optimiser's fixed pass sequence over g, then the
// Eligibility Checker, and returns the resulting immutable module.
// schema may be nil for a module with no keyword-argument support.
func New(g *ir.Graph, schema *ir.Schema, reg *registry.Registry, opts Options) (*InferenceModule, error) {
	optimized, err := optimizer.Optimize(g, optimizer.Options{
		Registry:                  reg,
		EnableDomainFusions:       opts.EnableDomainFusions,
		EnableReplaceWithCopy:     opts.EnableReplaceWithCopy,
		ReplaceWithCopyCandidates: opts.ReplaceWithCopyCandidates,
		Schema:                    schema,
	})
	if err != nil {
		return nil, fmt.Errorf("module: optimizing graph: %w", err)
	}

	if err := eligibility.Check(optimized); err != nil {
		return nil, fmt.Errorf("module: %w", err)
	}

	return &InferenceModule{graph: optimized, schema: schema, options: opts}, nil
}

// Graph returns the module's optimized, frozen graph.
func (m *InferenceModule) Graph() *ir.Graph { return m.graph }

// Schema returns the module's call schema, or nil if it has none.
func (m *InferenceModule) Schema() *ir.Schema { return m.schema }

// Options returns the module's runtime options.
func (m *InferenceModule) Options() Options { return m.options }
