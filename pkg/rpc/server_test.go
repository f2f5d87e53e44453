package rpc

import (
	"context"
	"testing"

	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/module"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/runtime"
	"github.com/staticrt/runtime/pkg/tensor"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newAddServer(t *testing.T) *Server {
	t.Helper()
	g := ir.NewGraph(2)
	add := ir.NewNode(ir.KindAdd, g.Inputs[0], g.Inputs[1])
	out := add.AddOutput(ir.TypeTensor)
	g.AppendNode(add)
	g.Outputs = []*ir.Value{out}

	reg := registry.New()
	kernels.Install(reg)

	m, err := module.New(g, nil, reg, module.Options{EnableOutVariant: true})
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	rt, err := runtime.New(m, reg)
	if err != nil {
		t.Fatalf("runtime.New: %v", err)
	}
	return NewServer(rt)
}

func TestServerRunReturnsWireResult(t *testing.T) {
	s := newAddServer(t)
	req := &RunRequest{Args: []Value{
		ToWire(tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 2}))),
		ToWire(tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{3, 4}))),
	}}

	resp, err := s.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := FromWire(resp.Result)
	if !got.IsTensor() {
		t.Fatalf("expected a tensor result, got %s", got.Kind())
	}
	data := got.Tensor().Data()
	if data[0] != 4 || data[1] != 6 {
		t.Fatalf("unexpected add result: %v", data)
	}
}

func TestServerNumOutputsReportsOne(t *testing.T) {
	s := newAddServer(t)
	resp, err := s.NumOutputs(context.Background(), &NumOutputsRequest{})
	if err != nil {
		t.Fatalf("NumOutputs: %v", err)
	}
	if resp.NumOutputs != 1 {
		t.Fatalf("expected 1 output, got %d", resp.NumOutputs)
	}
}

func TestServerRunTranslatesArityMismatchToInvalidArgument(t *testing.T) {
	s := newAddServer(t)
	req := &RunRequest{Args: []Value{
		ToWire(tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 2}))),
	}}

	_, err := s.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected an error for a missing argument")
	}
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected codes.InvalidArgument, got %s", status.Code(err))
	}
}

func TestServerBenchmarkModelReportsMeasuredIterations(t *testing.T) {
	s := newAddServer(t)
	req := &BenchmarkModelRequest{
		Args: []Value{
			ToWire(tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 2}))),
			ToWire(tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{3, 4}))),
		},
		Warmup:     1,
		Iterations: 4,
	}
	resp, err := s.BenchmarkModel(context.Background(), req)
	if err != nil {
		t.Fatalf("BenchmarkModel: %v", err)
	}
	if len(resp.ElapsedMs) != 4 {
		t.Fatalf("expected 4 measured iterations, got %d", len(resp.ElapsedMs))
	}
}

func TestServerBenchmarkIndividualOpsReportsSetupAndPercent(t *testing.T) {
	s := newAddServer(t)
	req := &BenchmarkIndividualOpsRequest{
		Args: []Value{
			ToWire(tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{1, 2}))),
			ToWire(tensor.FromTensor(tensor.FromFloat32([]int{2}, []float32{3, 4}))),
		},
		Warmup:     1,
		Iterations: 4,
	}
	resp, err := s.BenchmarkIndividualOps(context.Background(), req)
	if err != nil {
		t.Fatalf("BenchmarkIndividualOps: %v", err)
	}
	if len(resp.TimePerNodeMs) != 1 {
		t.Fatalf("expected 1 node timing (single add), got %d", len(resp.TimePerNodeMs))
	}
	if resp.TotalMs <= 0 {
		t.Fatalf("expected a positive TotalMs, got %v", resp.TotalMs)
	}
	if resp.SetupMs <= 0 {
		t.Fatalf("expected a positive SetupMs, got %v", resp.SetupMs)
	}
	if pct, ok := resp.PercentPerKind[resp.TimePerNodeKind[0]]; !ok || pct <= 0 {
		t.Fatalf("expected a positive percent entry for %s, got %v (present=%v)", resp.TimePerNodeKind[0], pct, ok)
	}
}
