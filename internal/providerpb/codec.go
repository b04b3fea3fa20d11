// Package providerpb is the wire client for the local-model sidecar: a
// small gRPC service fronting Ollama, mirroring the way the teacher's
// pkg/llm package talks to its Python LLM sidecar over gRPC. protoc is not
// invoked anywhere in this module's build, so the wire messages here are
// plain Go structs carried by a JSON codec registered under the "json"
// content-subtype rather than protoc-gen-go-generated protobuf messages —
// the transport (grpc.ClientConn, streaming, deadlines) is the real
// google.golang.org/grpc library; only the payload encoding differs from a
// protoc-generated client.
package providerpb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec implements google.golang.org/grpc/encoding.Codec.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("providerpb: marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("providerpb: unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return codecName }
