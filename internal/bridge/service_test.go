package bridge

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/optimizer"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

func startServer(t *testing.T, sink Sink) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv, err := NewServer(pipeline.DefaultConfig(), nil, sink, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)

	gs := grpc.NewServer()
	RegisterOptimizerServer(gs, srv)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClientWithConn(conn)
}

func fearLevel() pipeline.Level {
	names := []string{"Start", "Room_1", "Room_2", "DeadEnd_1", "Room_3", "End"}
	lv := pipeline.Level{ID: "grpc-level"}
	for i, n := range names {
		lv.Rooms = append(lv.Rooms, rooms.Instance{Name: n, Position: rooms.Vec3{X: float64(i) * 5}})
	}
	return lv
}

func TestOptimizeOverGRPC(t *testing.T) {
	client := startServer(t, nil)

	resp, err := client.Optimize(context.Background(), OptimizeRequest{Level: fearLevel(), Emotion: "fear"})
	require.NoError(t, err)

	snap := resp.Snapshot
	assert.Equal(t, "grpc-level", snap.LevelID)
	assert.Equal(t, appraisal.Fear, snap.Emotion)
	assert.NotEmpty(t, snap.RunID)
	assert.Len(t, snap.Rooms, 6)
	assert.Less(t, snap.FinalDistance, snap.InitialDistance)
	assert.True(t, resp.Eval.Passed, resp.Eval.Reason)

	end := snap.Rooms[5]
	assert.True(t, end.IsTerminal)
	assert.Nil(t, end.NextCriticalDirection)
	assert.NotContains(t, end.Patterns, pattern.Rewards)
}

func TestOptimizeOverridesCap(t *testing.T) {
	client := startServer(t, nil)

	resp, err := client.Optimize(context.Background(), OptimizeRequest{
		Level:              fearLevel(),
		Emotion:            "joy",
		MaxPatternsPerRoom: 1,
	})
	require.NoError(t, err)
	for _, r := range resp.Snapshot.Rooms {
		assert.LessOrEqual(t, len(r.Patterns), 1, r.ID)
	}
}

func TestOptimizeInvalidArgument(t *testing.T) {
	client := startServer(t, nil)

	_, err := client.Optimize(context.Background(), OptimizeRequest{Level: fearLevel(), Emotion: "boredom"})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(errors.Unwrap(err)))

	_, err = client.Optimize(context.Background(), OptimizeRequest{Level: fearLevel(), MaxPatternsPerRoom: 9})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(errors.Unwrap(err)))
}

func TestOptimizeEmptyLevel(t *testing.T) {
	client := startServer(t, nil)

	resp, err := client.Optimize(context.Background(), OptimizeRequest{Level: pipeline.Level{ID: "void"}})
	require.NoError(t, err)
	assert.Equal(t, optimizer.StatusEmpty, resp.Snapshot.Status)
	assert.Empty(t, resp.Snapshot.Rooms)
}

func TestOptimizeSink(t *testing.T) {
	var recorded []string
	client := startServer(t, func(_ context.Context, lv pipeline.Level, cfg pipeline.Config, res pipeline.Result) error {
		recorded = append(recorded, lv.ID+"/"+cfg.Emotion.String()+"/"+res.Snapshot.RunID)
		return nil
	})

	resp, err := client.Optimize(context.Background(), OptimizeRequest{Level: fearLevel(), Emotion: "fear"})
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "grpc-level/fear/"+resp.Snapshot.RunID, recorded[0])
}

func TestOptimizeSinkFailure(t *testing.T) {
	client := startServer(t, func(context.Context, pipeline.Level, pipeline.Config, pipeline.Result) error {
		return errors.New("disk full")
	})

	_, err := client.Optimize(context.Background(), OptimizeRequest{Level: fearLevel()})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
}

func TestSeedOverride(t *testing.T) {
	srv, err := NewServer(pipeline.DefaultConfig(), nil, nil, nil)
	require.NoError(t, err)

	seed := Seed(99)
	cfg, err := srv.configFor(OptimizeRequest{Seed: &seed, MaxIterations: 7})
	require.NoError(t, err)
	assert.Equal(t, uint64(99), cfg.Filler.Seed)
	assert.Equal(t, 7, cfg.Optimizer.MaxIterations)
	assert.Equal(t, appraisal.Wonder, cfg.Emotion)

	// Above 2^53 a float64 would round the seed.
	big := Seed(12345678901234567891)
	s, err := toStruct(OptimizeRequest{Seed: &big})
	require.NoError(t, err)
	var decoded OptimizeRequest
	require.NoError(t, fromStruct(s, &decoded))
	require.NotNil(t, decoded.Seed)
	cfg, err = srv.configFor(decoded)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345678901234567891), cfg.Filler.Seed)
}

func TestLargeSeedOverGRPC(t *testing.T) {
	var got uint64
	client := startServer(t, func(_ context.Context, _ pipeline.Level, cfg pipeline.Config, _ pipeline.Result) error {
		got = cfg.Filler.Seed
		return nil
	})

	seed := Seed(math.MaxUint64 - 6)
	_, err := client.Optimize(context.Background(), OptimizeRequest{Level: fearLevel(), Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-6), got)
}

func TestNumericSeedRejected(t *testing.T) {
	srv, err := NewServer(pipeline.DefaultConfig(), nil, nil, nil)
	require.NoError(t, err)

	in, err := structpb.NewStruct(map[string]any{"seed": float64(1 << 60)})
	require.NoError(t, err)
	_, err = srv.Optimize(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStructCodecRoundTrip(t *testing.T) {
	in := OptimizeRequest{Level: fearLevel(), Emotion: "wonder", MaxPatternsPerRoom: 3}
	s, err := toStruct(in)
	require.NoError(t, err)

	var out OptimizeRequest
	require.NoError(t, fromStruct(s, &out))
	assert.Equal(t, in, out)
}
