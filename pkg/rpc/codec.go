// Package rpc exposes a Runtime over gRPC: Run, NumOutputs,
// CheckForMemoryLeak, and the benchmark surface, mirroring
// justinsb-kllama's cmd/tensorserver CalcServer. The teacher's
// request/response types came from a generated `api/v1alpha1` protobuf
// package this environment has no protoc toolchain to regenerate, so this
// package defines its request/response types as plain Go structs and
// registers a custom gob-based codec with grpc-go instead — grpc-go's
// codec registry is a first-class extension point, so the real
// google.golang.org/grpc transport and dispatch machinery stays wired
// without fabricating generated code.
package rpc

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is registered with grpc-go's encoding package and selected by
// setting the "gob" content-subtype (content-type "application/grpc+gob")
// on the client's calls, exactly as
// grpc-go's own codec documentation describes for a non-protobuf codec.
const CodecName = "gob"

type gobCodec struct{}

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("rpc: gob marshal: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("rpc: gob unmarshal: %w", err)
	}
	return nil
}

func (gobCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(gobCodec{})
}
