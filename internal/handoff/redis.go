// Package handoff publishes finished level snapshots to Redis, where the
// scene-instantiation layer picks them up. The handoff is one-way: nothing
// the consumer writes is read back by the optimizer.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
)

// ErrNotFound is returned when no snapshot is stored under the requested key.
var ErrNotFound = errors.New("handoff: snapshot not found")

// #region config

// Config controls key naming and retention.
type Config struct {
	Prefix    string        // key prefix, default "emotionpcg"
	TTL       time.Duration // snapshot expiry, 0 = no expiry
	IndexSize int           // run IDs kept in the recent-runs list
}

// DefaultConfig returns a one-day TTL and a 100-entry recent list.
func DefaultConfig() Config {
	return Config{
		Prefix:    "emotionpcg",
		TTL:       24 * time.Hour,
		IndexSize: 100,
	}
}

// #endregion config

// #region publisher

// Publisher writes snapshots to Redis. Keys:
//
//	{prefix}:level:{levelID}  latest snapshot for a level
//	{prefix}:run:{runID}      snapshot of one run
//	{prefix}:runs             recent run IDs, oldest first
type Publisher struct {
	client redis.Cmdable
	cfg    Config
}

// NewPublisher wraps any go-redis client (Client, ClusterClient, Ring).
func NewPublisher(client redis.Cmdable, cfg Config) *Publisher {
	if cfg.Prefix == "" {
		cfg.Prefix = "emotionpcg"
	}
	if cfg.IndexSize <= 0 {
		cfg.IndexSize = 100
	}
	return &Publisher{client: client, cfg: cfg}
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (p *Publisher) levelKey(levelID string) string {
	return fmt.Sprintf("%s:level:%s", p.cfg.Prefix, levelID)
}

func (p *Publisher) runKey(runID string) string {
	return fmt.Sprintf("%s:run:%s", p.cfg.Prefix, runID)
}

func (p *Publisher) indexKey() string {
	return p.cfg.Prefix + ":runs"
}

// Publish stores snap under its level and run keys and appends the run to
// the recent list, in one MULTI/EXEC.
func (p *Publisher) Publish(ctx context.Context, snap pipeline.Snapshot) error {
	if snap.RunID == "" {
		return errors.New("publish: snapshot has no run id")
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if snap.LevelID != "" {
			pipe.Set(ctx, p.levelKey(snap.LevelID), body, p.cfg.TTL)
		}
		pipe.Set(ctx, p.runKey(snap.RunID), body, p.cfg.TTL)
		pipe.RPush(ctx, p.indexKey(), snap.RunID)
		pipe.LTrim(ctx, p.indexKey(), int64(-p.cfg.IndexSize), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", snap.RunID, err)
	}
	return nil
}

// #endregion publisher

// #region fetch

// Level returns the latest snapshot published for levelID.
func (p *Publisher) Level(ctx context.Context, levelID string) (pipeline.Snapshot, error) {
	return p.get(ctx, p.levelKey(levelID))
}

// Run returns the snapshot of one run.
func (p *Publisher) Run(ctx context.Context, runID string) (pipeline.Snapshot, error) {
	return p.get(ctx, p.runKey(runID))
}

// RecentRuns returns up to limit run IDs, newest first.
func (p *Publisher) RecentRuns(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := p.client.LRange(ctx, p.indexKey(), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids, nil
}

func (p *Publisher) get(ctx context.Context, key string) (pipeline.Snapshot, error) {
	body, err := p.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return pipeline.Snapshot{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return pipeline.Snapshot{}, fmt.Errorf("get %s: %w", key, err)
	}
	var snap pipeline.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return pipeline.Snapshot{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return snap, nil
}

// #endregion fetch
