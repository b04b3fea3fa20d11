package providerpb

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName     = "providerpb.LocalModel"
	generateMethod  = "/" + serviceName + "/Generate"
	healthMethod    = "/" + serviceName + "/Health"
	callContentType = codecName
)

// LocalModelClient talks to the local-model gRPC sidecar that fronts Ollama.
type LocalModelClient struct {
	conn *grpc.ClientConn
}

// Dial connects to the sidecar at addr. Transport is plaintext: the sidecar
// runs alongside assistantd as a local process or container, never across a
// network boundary, matching the teacher's llm-service sidecar deployment.
func Dial(addr string) (*LocalModelClient, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(callContentType)),
	)
	if err != nil {
		return nil, fmt.Errorf("providerpb: dial %s: %w", addr, err)
	}
	return &LocalModelClient{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *LocalModelClient) Close() error {
	return c.conn.Close()
}

// Generate opens a server-streaming call and returns a channel of response
// chunks, closed when the stream ends or ctx is cancelled.
func (c *LocalModelClient) Generate(ctx context.Context, req *GenerateRequest) (<-chan *GenerateResponse, error) {
	stream, err := c.conn.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true}, generateMethod,
		grpc.CallContentSubtype(callContentType))
	if err != nil {
		return nil, fmt.Errorf("providerpb: open generate stream: %w", err)
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, fmt.Errorf("providerpb: send generate request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("providerpb: close generate send: %w", err)
	}

	ch := make(chan *GenerateResponse, 32)
	go func() {
		defer close(ch)
		for {
			resp := &GenerateResponse{}
			if err := stream.RecvMsg(resp); err != nil {
				if err != io.EOF {
					select {
					case ch <- &GenerateResponse{Error: err.Error(), IsFinal: true}:
					case <-ctx.Done():
					}
				}
				return
			}
			select {
			case ch <- resp:
			case <-ctx.Done():
				return
			}
			if resp.IsFinal {
				return
			}
		}
	}()

	return ch, nil
}

// Health performs a unary readiness check against the sidecar.
func (c *LocalModelClient) Health(ctx context.Context) (bool, error) {
	resp := &HealthResponse{}
	err := c.conn.Invoke(ctx, healthMethod, &HealthRequest{}, resp, grpc.CallContentSubtype(callContentType))
	if err != nil {
		return false, fmt.Errorf("providerpb: health check: %w", err)
	}
	return resp.Ready, nil
}
