// Package bench implements the benchmark surface (§6): timing a compiled
// module end to end (benchmark_model) and per node, grouped by node type
// (benchmark_individual_ops).
//
// Grounded on justinsb-kllama's reliance on protobuf well-known types for
// wire-friendly timing data, generalized from request/response fields into
// this package's result structs; CortexFoundation-CortexTheseus's
// `inference.go` and FloatingUpstream-NN-512's per-stage timing idiom
// inform the warmup-then-measure shape.
package bench

import (
	"fmt"
	"time"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/runtime"
	"github.com/staticrt/runtime/pkg/tensor"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ModelResult is the result of benchmark_model: whole-invocation timings
// of the measured iterations. Warmup records how many unmeasured warmup
// iterations ran; they are not timed.
type ModelResult struct {
	Warmup     int
	Iterations int
	StartedAt  *timestamppb.Timestamp
	Elapsed    []*durationpb.Duration
	Total      *durationpb.Duration
}

// BenchmarkModel runs warmup iterations unmeasured, then iterations
// measured ones, against the same positional arguments each time — every
// numeric op this runtime implements is pure (no argument mutation), so
// replaying the identical args is safe.
func BenchmarkModel(rt *runtime.Runtime, args []tensor.IValue, kwargs map[string]tensor.IValue, warmup, iterations int) (*ModelResult, error) {
	for i := 0; i < warmup; i++ {
		if _, err := rt.Run(args, kwargs); err != nil {
			return nil, fmt.Errorf("bench: warmup iteration %d: %w", i, err)
		}
	}

	result := &ModelResult{Warmup: warmup, Iterations: iterations, StartedAt: timestamppb.Now()}
	started := time.Now()
	for i := 0; i < iterations; i++ {
		iterStart := time.Now()
		if _, err := rt.Run(args, kwargs); err != nil {
			return nil, fmt.Errorf("bench: iteration %d: %w", i, err)
		}
		result.Elapsed = append(result.Elapsed, durationpb.New(time.Since(iterStart)))
	}
	result.Total = durationpb.New(time.Since(started))
	return result, nil
}

// OpResult is the result of benchmark_individual_ops: setup cost, overall
// measured time, per-node timings, the same totals rolled up by node type,
// each type's share of the measured total, and how many Processed Nodes of
// each type the graph contains — the six fields spec.md §6 names for this
// call.
type OpResult struct {
	Iterations         int
	SetupTime          *durationpb.Duration
	TotalTime          *durationpb.Duration
	TimePerNode        []*durationpb.Duration
	TimePerNodeType    map[ir.Kind]*durationpb.Duration
	PercentPerNodeType map[ir.Kind]float64
	CountPerNodeType   map[ir.Kind]int
}

// BenchmarkIndividualOps times the warmup iterations as setup_time — the
// first invocation is also where a CleanupActivations-enabled Runtime
// lazily builds its Memory Planner, so warmup captures that one-time cost
// alongside ordinary steady-state variance — then accumulates per-node
// timings across iterations measured ones, both per node index and rolled
// up by node kind.
func BenchmarkIndividualOps(rt *runtime.Runtime, args []tensor.IValue, kwargs map[string]tensor.IValue, warmup, iterations int) (*OpResult, error) {
	setupStart := time.Now()
	for i := 0; i < warmup; i++ {
		if _, _, err := rt.RunTimed(args, kwargs); err != nil {
			return nil, fmt.Errorf("bench: warmup iteration %d: %w", i, err)
		}
	}
	setupTime := time.Since(setupStart)

	kinds := rt.NodeKinds()
	totals := make([]time.Duration, len(kinds))
	countPerType := map[ir.Kind]int{}
	for _, k := range kinds {
		countPerType[k]++
	}

	measureStart := time.Now()
	for i := 0; i < iterations; i++ {
		_, timings, err := rt.RunTimed(args, kwargs)
		if err != nil {
			return nil, fmt.Errorf("bench: iteration %d: %w", i, err)
		}
		for j, d := range timings {
			totals[j] += d
		}
	}
	totalTime := time.Since(measureStart)

	result := &OpResult{
		Iterations:         iterations,
		SetupTime:          durationpb.New(setupTime),
		TotalTime:          durationpb.New(totalTime),
		TimePerNodeType:    map[ir.Kind]*durationpb.Duration{},
		PercentPerNodeType: map[ir.Kind]float64{},
		CountPerNodeType:   countPerType,
	}
	perType := map[ir.Kind]time.Duration{}
	for i, total := range totals {
		result.TimePerNode = append(result.TimePerNode, durationpb.New(total))
		perType[kinds[i]] += total
	}
	for k, total := range perType {
		result.TimePerNodeType[k] = durationpb.New(total)
		if totalTime > 0 {
			result.PercentPerNodeType[k] = 100 * total.Seconds() / totalTime.Seconds()
		}
	}
	return result, nil
}
