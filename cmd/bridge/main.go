package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"google.golang.org/grpc"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/bridge"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/config"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/handoff"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/store"
)

// #region main
func main() {
	settings, err := config.FromEnv()
	if err != nil {
		log.Fatalf("read environment: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := settings.Pipeline()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	tables, err := settings.Tables()
	if err != nil {
		log.Fatalf("load desired tables: %v", err)
	}

	st, err := store.NewStore(settings.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub *handoff.Publisher
	if settings.RedisAddr != "" {
		client, err := handoff.Dial(ctx, settings.RedisAddr)
		if err != nil {
			log.Fatalf("failed to connect to redis at %s: %v", settings.RedisAddr, err)
		}
		defer client.Close()
		pub = handoff.NewPublisher(client, handoff.DefaultConfig())
	}

	srv, err := bridge.NewServer(cfg, tables, archive(st, pub), logger)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	lis, err := net.Listen("tcp", settings.GRPCAddr)
	if err != nil {
		log.Fatalf("listen on %s: %v", settings.GRPCAddr, err)
	}
	gs := grpc.NewServer()
	bridge.RegisterOptimizerServer(gs, srv)

	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()

	logger.Info("optimizer bridge ready", "addr", lis.Addr().String(), "db", settings.DBPath,
		"emotion", cfg.Emotion.String(), "redis", settings.RedisAddr)
	if err := gs.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
// #endregion main

// #region sink
// archive stores every run and, when a publisher is configured, hands the
// snapshot to the scene layer.
func archive(st *store.Store, pub *handoff.Publisher) bridge.Sink {
	var mu sync.Mutex
	return func(ctx context.Context, level pipeline.Level, cfg pipeline.Config, res pipeline.Result) error {
		mu.Lock()
		err := st.SaveRun(level, cfg, res)
		mu.Unlock()
		if err != nil {
			return err
		}
		if pub == nil {
			return nil
		}
		return pub.Publish(ctx, res.Snapshot)
	}
}
// #endregion sink
