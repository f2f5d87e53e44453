// Command rtc is the offline compiler (§4.4): it loads a raw, frozen graph
// (and optional call schema) produced upstream by a tracer, runs it through
// the Graph Optimiser and Eligibility Checker once, and writes the result as
// a compiled artifact a Runtime can load directly — the "compile once,
// serve many times" split justinsb-kllama's cmd/tensorserver leaves
// implicit (it builds its evaluation scope fresh per request) made explicit
// here so optimisation cost is paid once, offline.
package main

import (
	"bytes"
	"context"
	"encoding/gob"
	"flag"
	"fmt"
	"os"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/module"
	"github.com/staticrt/runtime/pkg/registry"
	"k8s.io/klog/v2"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	klog.InitFlags(nil)

	var graphPath, schemaPath, outPath string
	var optimizeMemory, enableOutVariant, cleanupActivations, manageOutputTensors bool
	var enableDomainFusions, enableReplaceWithCopy bool
	flag.StringVar(&graphPath, "graph", "", "path to a raw graph gob file (required)")
	flag.StringVar(&schemaPath, "schema", "", "path to an optional call-schema gob file")
	flag.StringVar(&outPath, "out", "artifact.rt", "path to write the compiled artifact to")
	flag.BoolVar(&optimizeMemory, "optimize-memory", true, "record optimize_memory in the artifact's options (no runtime component reads it; cleanup is -cleanup-activations)")
	flag.BoolVar(&enableOutVariant, "enable-out-variant", true, "prefer out-variant kernels where registered")
	flag.BoolVar(&cleanupActivations, "cleanup-activations", true, "deallocate managed activations after each Run")
	flag.BoolVar(&manageOutputTensors, "manage-output-tensors", false, "let the Memory Planner reclaim graph output storage")
	flag.BoolVar(&enableDomainFusions, "enable-domain-fusions", true, "enable the domain-specific fusion pass")
	flag.BoolVar(&enableReplaceWithCopy, "enable-replace-with-copy", true, "enable the alias-breaking replace-with-copy pass")
	flag.Parse()

	log := klog.FromContext(ctx)

	if graphPath == "" {
		return fmt.Errorf("must specify -graph")
	}

	graphBytes, err := os.ReadFile(graphPath)
	if err != nil {
		return fmt.Errorf("reading graph %q: %w", graphPath, err)
	}
	g, err := ir.Deserialize(graphBytes)
	if err != nil {
		return fmt.Errorf("decoding graph %q: %w", graphPath, err)
	}

	var schema *ir.Schema
	if schemaPath != "" {
		schemaBytes, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("reading schema %q: %w", schemaPath, err)
		}
		var s ir.Schema
		if err := gob.NewDecoder(bytes.NewReader(schemaBytes)).Decode(&s); err != nil {
			return fmt.Errorf("decoding schema %q: %w", schemaPath, err)
		}
		schema = &s
	}

	reg := registry.New()
	kernels.Install(reg)

	opts := module.Options{
		OptimizeMemory:        optimizeMemory,
		EnableOutVariant:      enableOutVariant,
		CleanupActivations:    cleanupActivations,
		ManageOutputTensors:   manageOutputTensors,
		EnableDomainFusions:   enableDomainFusions,
		EnableReplaceWithCopy: enableReplaceWithCopy,
	}

	m, err := module.New(g, schema, reg, opts)
	if err != nil {
		return fmt.Errorf("compiling graph: %w", err)
	}

	artifact, err := m.Serialize()
	if err != nil {
		return fmt.Errorf("serializing compiled artifact: %w", err)
	}

	if err := os.WriteFile(outPath, artifact, 0644); err != nil {
		return fmt.Errorf("writing artifact %q: %w", outPath, err)
	}

	log.Info("compiled artifact", "input", graphPath, "output", outPath, "nodes", len(m.Graph().Nodes), "bytes", len(artifact))
	return nil
}
