// Command rtbench loads a compiled artifact and runs the benchmark surface
// (§6) against it, printing whole-invocation and per-node-type timings —
// a CLI wrapper over pkg/bench, following cmd/tensorserver's flag/klog
// bootstrap idiom.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/staticrt/runtime/pkg/bench"
	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/module"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/runtime"
	"github.com/staticrt/runtime/pkg/tensor"
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

	var artifactPath, inputShape string
	var warmup, iterations int
	var perOp bool
	flag.StringVar(&artifactPath, "artifact", "", "path to a compiled artifact file (required)")
	flag.StringVar(&inputShape, "input-shape", "4", "comma-separated shape given to every dummy positional input")
	flag.IntVar(&warmup, "warmup", 10, "unmeasured warmup iterations")
	flag.IntVar(&iterations, "iterations", 100, "measured iterations")
	flag.BoolVar(&perOp, "per-op", false, "also report per-node-type timings (benchmark_individual_ops)")
	flag.Parse()

	shape, err := parseShape(inputShape)
	if err != nil {
		return fmt.Errorf("parsing -input-shape %q: %w", inputShape, err)
	}

	if artifactPath == "" {
		return fmt.Errorf("must specify -artifact")
	}

	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return fmt.Errorf("reading artifact %q: %w", artifactPath, err)
	}

	reg := registry.New()
	kernels.Install(reg)

	m, err := module.LoadArtifact(data, reg)
	if err != nil {
		return fmt.Errorf("loading artifact %q: %w", artifactPath, err)
	}
	rt, err := runtime.New(m, reg)
	if err != nil {
		return fmt.Errorf("constructing runtime: %w", err)
	}

	args := zeroArgs(len(m.Graph().Inputs), shape)

	modelResult, err := bench.BenchmarkModel(rt, args, nil, warmup, iterations)
	if err != nil {
		return fmt.Errorf("benchmark_model: %w", err)
	}
	fmt.Printf("benchmark_model: warmup=%d iterations=%d total=%s\n", modelResult.Warmup, modelResult.Iterations, modelResult.Total.AsDuration())

	if !perOp {
		return nil
	}

	opResult, err := bench.BenchmarkIndividualOps(rt, args, nil, warmup, iterations)
	if err != nil {
		return fmt.Errorf("benchmark_individual_ops: %w", err)
	}
	fmt.Printf("benchmark_individual_ops: setup=%s total=%s\n", opResult.SetupTime.AsDuration(), opResult.TotalTime.AsDuration())
	kinds := make([]string, 0, len(opResult.TimePerNodeType))
	for k := range opResult.TimePerNodeType {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		kind := ir.Kind(k)
		total := opResult.TimePerNodeType[kind]
		fmt.Printf("  %-20s count=%-4d total=%-12s percent=%.1f%%\n", k, opResult.CountPerNodeType[kind], total.AsDuration(), opResult.PercentPerNodeType[kind])
	}
	return nil
}

// zeroArgs builds n dummy tensor arguments of the given shape, each
// zero-filled — a stand-in for real sample inputs, since a compiled
// artifact carries no sample-input metadata of its own.
func zeroArgs(n int, shape []int) []tensor.IValue {
	args := make([]tensor.IValue, n)
	for i := range args {
		args[i] = tensor.FromTensor(tensor.New(shape))
	}
	return args
}

func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	shape := make([]int, len(parts))
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		shape[i] = d
	}
	return shape, nil
}
