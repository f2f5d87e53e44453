package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// RuntimeServer is the service this package exposes over gRPC: every
// operation a deployed Runtime needs to answer remotely, following the
// teacher's single-method CalcServer shape generalized to the Runtime's
// fuller surface (run, introspection, benchmarking).
type RuntimeServer interface {
	Run(context.Context, *RunRequest) (*RunResponse, error)
	NumOutputs(context.Context, *NumOutputsRequest) (*NumOutputsResponse, error)
	ReleaseOutputs(context.Context, *ReleaseOutputsRequest) (*ReleaseOutputsResponse, error)
	CheckForMemoryLeak(context.Context, *CheckForMemoryLeakRequest) (*CheckForMemoryLeakResponse, error)
	BenchmarkModel(context.Context, *BenchmarkModelRequest) (*BenchmarkModelResponse, error)
	BenchmarkIndividualOps(context.Context, *BenchmarkIndividualOpsRequest) (*BenchmarkIndividualOpsResponse, error)
}

// UnimplementedRuntimeServer embeds into a concrete server to satisfy
// RuntimeServer without implementing every method, the same forward
// compatibility convention protoc-gen-go-grpc generates.
type UnimplementedRuntimeServer struct{}

func (UnimplementedRuntimeServer) Run(context.Context, *RunRequest) (*RunResponse, error) {
	return nil, errUnimplemented("Run")
}
func (UnimplementedRuntimeServer) NumOutputs(context.Context, *NumOutputsRequest) (*NumOutputsResponse, error) {
	return nil, errUnimplemented("NumOutputs")
}
func (UnimplementedRuntimeServer) ReleaseOutputs(context.Context, *ReleaseOutputsRequest) (*ReleaseOutputsResponse, error) {
	return nil, errUnimplemented("ReleaseOutputs")
}
func (UnimplementedRuntimeServer) CheckForMemoryLeak(context.Context, *CheckForMemoryLeakRequest) (*CheckForMemoryLeakResponse, error) {
	return nil, errUnimplemented("CheckForMemoryLeak")
}
func (UnimplementedRuntimeServer) BenchmarkModel(context.Context, *BenchmarkModelRequest) (*BenchmarkModelResponse, error) {
	return nil, errUnimplemented("BenchmarkModel")
}
func (UnimplementedRuntimeServer) BenchmarkIndividualOps(context.Context, *BenchmarkIndividualOpsRequest) (*BenchmarkIndividualOpsResponse, error) {
	return nil, errUnimplemented("BenchmarkIndividualOps")
}

func errUnimplemented(method string) error {
	return &unimplementedError{method: method}
}

type unimplementedError struct{ method string }

func (e *unimplementedError) Error() string { return "rpc: method not implemented: " + e.method }

// serviceName is the gRPC full method prefix. There is no .proto file
// generating this — it is a plain string handed to grpc.ServiceDesc exactly
// as protoc-gen-go-grpc would emit it, since no protoc toolchain is
// available in this environment to regenerate one from a .proto source.
const serviceName = "staticrt.runtime.v1.Runtime"

func runHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RunRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeServer).Run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/Run"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeServer).Run(ctx, req.(*RunRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func numOutputsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(NumOutputsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeServer).NumOutputs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/NumOutputs"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeServer).NumOutputs(ctx, req.(*NumOutputsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func releaseOutputsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReleaseOutputsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeServer).ReleaseOutputs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/ReleaseOutputs"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeServer).ReleaseOutputs(ctx, req.(*ReleaseOutputsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkForMemoryLeakHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckForMemoryLeakRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeServer).CheckForMemoryLeak(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/CheckForMemoryLeak"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeServer).CheckForMemoryLeak(ctx, req.(*CheckForMemoryLeakRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func benchmarkModelHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BenchmarkModelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeServer).BenchmarkModel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/BenchmarkModel"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeServer).BenchmarkModel(ctx, req.(*BenchmarkModelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func benchmarkIndividualOpsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BenchmarkIndividualOpsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeServer).BenchmarkIndividualOps(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/BenchmarkIndividualOps"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeServer).BenchmarkIndividualOps(ctx, req.(*BenchmarkIndividualOpsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc protoc-gen-go-grpc would otherwise
// generate from a .proto file. Hand-written here for the same reason
// pkg/rpc's codec is hand-written: no protoc toolchain to regenerate the
// teacher's `api/v1alpha1` package against a new service definition.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RuntimeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: runHandler},
		{MethodName: "NumOutputs", Handler: numOutputsHandler},
		{MethodName: "ReleaseOutputs", Handler: releaseOutputsHandler},
		{MethodName: "CheckForMemoryLeak", Handler: checkForMemoryLeakHandler},
		{MethodName: "BenchmarkModel", Handler: benchmarkModelHandler},
		{MethodName: "BenchmarkIndividualOps", Handler: benchmarkIndividualOpsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "staticrt/runtime.proto",
}

// RegisterRuntimeServer registers impl against grpcServer, mirroring the
// generated api.RegisterBigCalculatorServer the teacher calls from
// cmd/tensorserver.
func RegisterRuntimeServer(grpcServer grpc.ServiceRegistrar, impl RuntimeServer) {
	grpcServer.RegisterService(&ServiceDesc, impl)
}
