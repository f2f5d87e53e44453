package rpc

import "github.com/staticrt/runtime/pkg/ir"

// RunRequest carries the positional and keyword arguments for one
// Runtime.Run invocation.
type RunRequest struct {
	Args   []Value
	Kwargs map[string]Value
}

// RunResponse carries the result of one Runtime.Run invocation.
type RunResponse struct {
	Result Value
}

// NumOutputsRequest has no fields; kept as a named type so the gob codec has
// a stable wire type to register against, and so the method signature reads
// the same as every other call on this service.
type NumOutputsRequest struct{}

// NumOutputsResponse carries Runtime.NumOutputs.
type NumOutputsResponse struct {
	NumOutputs int
}

// ReleaseOutputsRequest has no fields.
type ReleaseOutputsRequest struct{}

// ReleaseOutputsResponse has no fields.
type ReleaseOutputsResponse struct{}

// CheckForMemoryLeakRequest mirrors Runtime.CheckForMemoryLeak's single
// argument.
type CheckForMemoryLeakRequest struct {
	OutputReturned bool
}

// CheckForMemoryLeakResponse has no fields; an error return from the RPC
// itself carries a non-nil leak result.
type CheckForMemoryLeakResponse struct{}

// BenchmarkModelRequest carries benchmark_model's arguments plus the same
// Args/Kwargs a Run call would take, since benchmarking replays them across
// iterations.
type BenchmarkModelRequest struct {
	Args       []Value
	Kwargs     map[string]Value
	Warmup     int
	Iterations int
}

// BenchmarkModelResponse carries pkg/bench.ModelResult's counts and
// timings, with each protobuf duration converted to plain milliseconds.
type BenchmarkModelResponse struct {
	Warmup     int
	Iterations int
	ElapsedMs  []float64
	TotalMs    float64
}

// BenchmarkIndividualOpsRequest carries benchmark_individual_ops's
// arguments.
type BenchmarkIndividualOpsRequest struct {
	Args       []Value
	Kwargs     map[string]Value
	Warmup     int
	Iterations int
}

// BenchmarkIndividualOpsResponse reports setup cost, total measured time,
// and per-node/per-node-type timings in milliseconds, keyed by the node
// Kind's string form (ir.Kind values are plain strings, so this doubles as
// the wire type directly).
type BenchmarkIndividualOpsResponse struct {
	Iterations      int
	SetupMs         float64
	TotalMs         float64
	TimePerNodeMs   []float64
	TimePerNodeKind []ir.Kind
	TimePerKindMs   map[ir.Kind]float64
	PercentPerKind  map[ir.Kind]float64
	CountPerKind    map[ir.Kind]int
}
