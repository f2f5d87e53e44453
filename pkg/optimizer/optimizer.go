package optimizer

import (
	"fmt"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/registry"
	"k8s.io/klog/v2"
)

// Options configures the optional auxiliary passes; the nine-step
// required sequence (§4.2) runs unconditionally.
type Options struct {
	Registry *registry.Registry

	// EnableDomainFusions guards the fusion pass, resolved once at build
	// configuration time rather than per call.
	EnableDomainFusions bool

	// EnableReplaceWithCopy toggles the optional auxiliary pass.
	EnableReplaceWithCopy bool

	// ReplaceWithCopyCandidates overrides DefaultCandidates when set.
	ReplaceWithCopyCandidates []ir.Kind

	// Schema, if non-nil, is kept in sync with RemoveSelfFromGraphInput.
	Schema *ir.Schema
}

// Optimize runs the fixed pass sequence on a clone of g and returns the
// optimized graph, leaving the caller's original untouched.
func Optimize(g *ir.Graph, opts Options) (*ir.Graph, error) {
	out := g.Clone()
	cp := ConstantPropagationPass{Registry: opts.Registry}

	sequence := []Pass{
		InlinePass{},
		cp,
		CanonicalisePass{},
		cp,
		RemoveMutationPass{},
		cp,
		DeadCodeEliminationPass{},
		DomainFusionsPass{Enable: opts.EnableDomainFusions},
		cp,
	}

	for _, pass := range sequence {
		if err := pass.Run(out); err != nil {
			return nil, fmt.Errorf("optimizer: pass %q: %w", pass.Name(), err)
		}
		klog.V(4).InfoS("optimizer pass complete", "pass", pass.Name(), "nodes", len(out.Nodes))
	}

	if opts.EnableReplaceWithCopy {
		rwc := ReplaceWithCopyPass{Candidates: opts.ReplaceWithCopyCandidates}
		if err := rwc.Run(out); err != nil {
			return nil, fmt.Errorf("optimizer: pass %q: %w", rwc.Name(), err)
		}
	}

	self := RemoveSelfFromGraphInputPass{Schema: opts.Schema}
	if err := self.Run(out); err != nil {
		return nil, fmt.Errorf("optimizer: pass %q: %w", self.Name(), err)
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("optimizer: optimized graph failed validation: %w", err)
	}
	return out, nil
}
