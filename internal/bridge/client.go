package bridge

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client-struct
// Client calls a remote emotionpcg.Optimizer service.
type Client struct {
	conn grpc.ClientConnInterface
	own  *grpc.ClientConn // closed by Close when the client dialed it
}
// #endregion client-struct

// #region constructor
// NewClient connects to the optimizer service at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, own: conn}, nil
}

// NewClientWithConn wraps an existing connection; Close leaves it open.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}
// #endregion constructor

// #region close
// Close shuts down a connection opened by NewClient.
func (c *Client) Close() error {
	if c.own == nil {
		return nil
	}
	return c.own.Close()
}
// #endregion close

// #region optimize
// Optimize sends one level and returns the resulting snapshot.
func (c *Client) Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResponse, error) {
	in, err := toStruct(req)
	if err != nil {
		return OptimizeResponse{}, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, optimizeMethod, in, out); err != nil {
		return OptimizeResponse{}, fmt.Errorf("optimize rpc: %w", err)
	}

	var resp OptimizeResponse
	if err := fromStruct(out, &resp); err != nil {
		return OptimizeResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
// #endregion optimize
