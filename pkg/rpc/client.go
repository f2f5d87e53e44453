package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// Client is a thin convenience wrapper over a grpc.ClientConn dialed against
// the gob codec, mirroring the bare api.NewBigCalculatorClient the teacher's
// client tooling would otherwise generate.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient wraps an already-dialed connection. Callers must dial with
// grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)) so the
// gob codec registered in codec.go is selected for every call.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	out := new(RunResponse)
	if err := c.conn.Invoke(ctx, serviceName+"/Run", req, out); err != nil {
		return nil, fmt.Errorf("rpc: Run: %w", err)
	}
	return out, nil
}

func (c *Client) NumOutputs(ctx context.Context, req *NumOutputsRequest) (*NumOutputsResponse, error) {
	out := new(NumOutputsResponse)
	if err := c.conn.Invoke(ctx, serviceName+"/NumOutputs", req, out); err != nil {
		return nil, fmt.Errorf("rpc: NumOutputs: %w", err)
	}
	return out, nil
}

func (c *Client) ReleaseOutputs(ctx context.Context, req *ReleaseOutputsRequest) (*ReleaseOutputsResponse, error) {
	out := new(ReleaseOutputsResponse)
	if err := c.conn.Invoke(ctx, serviceName+"/ReleaseOutputs", req, out); err != nil {
		return nil, fmt.Errorf("rpc: ReleaseOutputs: %w", err)
	}
	return out, nil
}

func (c *Client) CheckForMemoryLeak(ctx context.Context, req *CheckForMemoryLeakRequest) (*CheckForMemoryLeakResponse, error) {
	out := new(CheckForMemoryLeakResponse)
	if err := c.conn.Invoke(ctx, serviceName+"/CheckForMemoryLeak", req, out); err != nil {
		return nil, fmt.Errorf("rpc: CheckForMemoryLeak: %w", err)
	}
	return out, nil
}

func (c *Client) BenchmarkModel(ctx context.Context, req *BenchmarkModelRequest) (*BenchmarkModelResponse, error) {
	out := new(BenchmarkModelResponse)
	if err := c.conn.Invoke(ctx, serviceName+"/BenchmarkModel", req, out); err != nil {
		return nil, fmt.Errorf("rpc: BenchmarkModel: %w", err)
	}
	return out, nil
}

func (c *Client) BenchmarkIndividualOps(ctx context.Context, req *BenchmarkIndividualOpsRequest) (*BenchmarkIndividualOpsResponse, error) {
	out := new(BenchmarkIndividualOpsResponse)
	if err := c.conn.Invoke(ctx, serviceName+"/BenchmarkIndividualOps", req, out); err != nil {
		return nil, fmt.Errorf("rpc: BenchmarkIndividualOps: %w", err)
	}
	return out, nil
}
