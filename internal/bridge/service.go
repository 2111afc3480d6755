// Package bridge exposes the optimizer to the level generator over gRPC.
// Messages travel as google.protobuf.Struct so the generator needs no
// generated stubs beyond the well-known types.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/eval"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
)

// #region messages

// OptimizeRequest carries one level plus optional per-request overrides of
// the server's base configuration.
type OptimizeRequest struct {
	Level              pipeline.Level `json:"level"`
	Emotion            string         `json:"emotion,omitempty"`
	MaxPatternsPerRoom int            `json:"max_patterns_per_room,omitempty"`
	MaxIterations      int            `json:"max_iterations,omitempty"`
	Seed               *Seed          `json:"seed,omitempty"`
}

// Seed is a filler seed. It travels as a decimal string: Struct numbers are
// float64 and cannot hold every uint64.
type Seed uint64

// MarshalText implements encoding.TextMarshaler.
func (s Seed) MarshalText() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(s), 10), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Seed) UnmarshalText(b []byte) error {
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("seed %q: %w", b, err)
	}
	*s = Seed(v)
	return nil
}

// OptimizeResponse is the snapshot plus the post-run checks.
type OptimizeResponse struct {
	Snapshot pipeline.Snapshot `json:"snapshot"`
	Eval     eval.EvalResult   `json:"eval"`
}

// #endregion messages

// #region service-desc

const (
	serviceName    = "emotionpcg.Optimizer"
	optimizeMethod = "/" + serviceName + "/Optimize"
)

// OptimizerServer is the server API of the emotionpcg.Optimizer service.
type OptimizerServer interface {
	Optimize(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the emotionpcg.Optimizer service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*OptimizerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Optimize", Handler: optimizeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "emotionpcg/optimizer.proto",
}

// RegisterOptimizerServer attaches srv to a gRPC server.
func RegisterOptimizerServer(s grpc.ServiceRegistrar, srv OptimizerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func optimizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OptimizerServer).Optimize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: optimizeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OptimizerServer).Optimize(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region server

// Sink receives every finished run, e.g. to archive and publish it.
type Sink func(ctx context.Context, level pipeline.Level, cfg pipeline.Config, res pipeline.Result) error

// Server runs one pipeline per request.
type Server struct {
	base   pipeline.Config
	tables budget.Tables
	sink   Sink
	logger *slog.Logger
}

// NewServer validates base and returns a server. sink may be nil.
func NewServer(base pipeline.Config, tables budget.Tables, sink Sink, logger *slog.Logger) (*Server, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("validate base config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{base: base, tables: tables, sink: sink, logger: logger}, nil
}

// Optimize decodes the request, runs the level and encodes the snapshot.
func (s *Server) Optimize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req OptimizeRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}

	cfg, err := s.configFor(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	runner, err := pipeline.NewRunner(cfg, s.tables, s.logger)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	res := runner.Run(req.Level)

	if s.sink != nil {
		if err := s.sink(ctx, req.Level, cfg, res); err != nil {
			s.logger.Error("sink failed", "run_id", res.Snapshot.RunID, "err", err)
			return nil, status.Errorf(codes.Internal, "record run %s: %v", res.Snapshot.RunID, err)
		}
	}

	out, err := toStruct(OptimizeResponse{Snapshot: res.Snapshot, Eval: res.Eval})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *Server) configFor(req OptimizeRequest) (pipeline.Config, error) {
	cfg := s.base
	if req.Emotion != "" {
		e, err := appraisal.ParseEmotion(req.Emotion)
		if err != nil {
			return cfg, err
		}
		cfg.Emotion = e
	}
	if req.MaxPatternsPerRoom != 0 {
		cfg.Budget.MaxPatternsPerRoom = req.MaxPatternsPerRoom
	}
	if req.MaxIterations != 0 {
		cfg.Optimizer.MaxIterations = req.MaxIterations
	}
	if req.Seed != nil {
		cfg.Filler.Seed = uint64(*req.Seed)
	}
	return cfg, nil
}

// #endregion server

// #region struct-codec

func toStruct(v any) (*structpb.Struct, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, v any) error {
	body, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// #endregion struct-codec
