package rpc

import (
	"context"
	"errors"

	"github.com/staticrt/runtime/pkg/bench"
	"github.com/staticrt/runtime/pkg/ir"
	"github.com/staticrt/runtime/pkg/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// asStatus translates a pkg/runtime sentinel error into a grpc/status
// error with the matching code, the same boundary-crossing convention the
// teacher's cmd/model-store applies to its own not-found errors. Any other
// error is left as a plain Internal status — grpc-go would otherwise
// report it as Unknown.
func asStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, runtime.ErrSchemaRequired), errors.Is(err, runtime.ErrArityMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, runtime.ErrReentered):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, runtime.ErrOperatorMissing):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, runtime.ErrMemoryLeak):
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// Server adapts a *runtime.Runtime to RuntimeServer, the same role the
// teacher's CalcServer plays for pkg/engine.Evaluate in cmd/tensorserver.
type Server struct {
	UnimplementedRuntimeServer
	Runtime *runtime.Runtime
}

// NewServer wraps rt for gRPC serving.
func NewServer(rt *runtime.Runtime) *Server {
	return &Server{Runtime: rt}
}

func (s *Server) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	args := fromWireSlice(req.Args)
	kwargs := fromWireMap(req.Kwargs)
	result, err := s.Runtime.Run(args, kwargs)
	if err != nil {
		return nil, asStatus(err)
	}
	return &RunResponse{Result: ToWire(result)}, nil
}

func (s *Server) NumOutputs(ctx context.Context, req *NumOutputsRequest) (*NumOutputsResponse, error) {
	return &NumOutputsResponse{NumOutputs: s.Runtime.NumOutputs()}, nil
}

func (s *Server) ReleaseOutputs(ctx context.Context, req *ReleaseOutputsRequest) (*ReleaseOutputsResponse, error) {
	s.Runtime.ReleaseOutputs()
	return &ReleaseOutputsResponse{}, nil
}

func (s *Server) CheckForMemoryLeak(ctx context.Context, req *CheckForMemoryLeakRequest) (*CheckForMemoryLeakResponse, error) {
	if err := s.Runtime.CheckForMemoryLeak(req.OutputReturned); err != nil {
		return nil, asStatus(err)
	}
	return &CheckForMemoryLeakResponse{}, nil
}

func (s *Server) BenchmarkModel(ctx context.Context, req *BenchmarkModelRequest) (*BenchmarkModelResponse, error) {
	args := fromWireSlice(req.Args)
	kwargs := fromWireMap(req.Kwargs)
	result, err := bench.BenchmarkModel(s.Runtime, args, kwargs, req.Warmup, req.Iterations)
	if err != nil {
		return nil, asStatus(err)
	}

	elapsedMs := make([]float64, len(result.Elapsed))
	for i, d := range result.Elapsed {
		elapsedMs[i] = d.AsDuration().Seconds() * 1000
	}
	return &BenchmarkModelResponse{
		Warmup:     result.Warmup,
		Iterations: result.Iterations,
		ElapsedMs:  elapsedMs,
		TotalMs:    result.Total.AsDuration().Seconds() * 1000,
	}, nil
}

func (s *Server) BenchmarkIndividualOps(ctx context.Context, req *BenchmarkIndividualOpsRequest) (*BenchmarkIndividualOpsResponse, error) {
	args := fromWireSlice(req.Args)
	kwargs := fromWireMap(req.Kwargs)
	result, err := bench.BenchmarkIndividualOps(s.Runtime, args, kwargs, req.Warmup, req.Iterations)
	if err != nil {
		return nil, asStatus(err)
	}

	timePerNodeMs := make([]float64, len(result.TimePerNode))
	for i, d := range result.TimePerNode {
		timePerNodeMs[i] = d.AsDuration().Seconds() * 1000
	}
	timePerKindMs := make(map[ir.Kind]float64, len(result.TimePerNodeType))
	for k, d := range result.TimePerNodeType {
		timePerKindMs[k] = d.AsDuration().Seconds() * 1000
	}
	kinds := s.Runtime.NodeKinds()

	return &BenchmarkIndividualOpsResponse{
		Iterations:      result.Iterations,
		SetupMs:         result.SetupTime.AsDuration().Seconds() * 1000,
		TotalMs:         result.TotalTime.AsDuration().Seconds() * 1000,
		TimePerNodeMs:   timePerNodeMs,
		TimePerNodeKind: kinds,
		TimePerKindMs:   timePerKindMs,
		PercentPerKind:  result.PercentPerNodeType,
		CountPerKind:    result.CountPerNodeType,
	}, nil
}
