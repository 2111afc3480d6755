// Package pipeline runs one level through graph construction, budget
// allocation, greedy optimization and optional-room filling, and exports the
// result as a read-only snapshot.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/aggregate"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/eval"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/filler"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/gate"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/optimizer"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region runner

// Runner executes levels under one fixed configuration. A Runner holds no
// per-run state, so one value can serve concurrent Run calls.
type Runner struct {
	cfg    Config
	tables budget.Tables
	gate   *gate.Gate
	eval   *eval.EvalHarness
	logger *slog.Logger
}

// NewRunner validates cfg and wires the stages. A nil tables value uses the
// embedded defaults; a nil logger uses slog.Default().
func NewRunner(cfg Config, tables budget.Tables, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if tables == nil {
		tables = budget.DefaultTables()
	}
	if logger == nil {
		logger = slog.Default()
	}

	evalCfg := eval.DefaultEvalConfig()
	evalCfg.MaxPatternsPerRoom = cfg.Budget.MaxPatternsPerRoom

	return &Runner{
		cfg:    cfg,
		tables: tables,
		gate:   gate.NewGate(gate.GateConfig{MaxPatternsPerRoom: cfg.Budget.MaxPatternsPerRoom}),
		eval:   eval.NewEvalHarness(evalCfg),
		logger: logger,
	}, nil
}

// Config returns the runner's configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// Run optimizes one level. It never fails: degenerate levels produce an
// empty snapshot with StatusEmpty.
func (r *Runner) Run(level Level) Result {
	runID := uuid.NewString()
	log := r.logger.With("run_id", runID, "level", level.ID, "emotion", r.cfg.Emotion.String())

	target := appraisal.TargetFor(r.cfg.Emotion)
	weights := appraisal.WeightsFor(r.cfg.Emotion)

	// 1. Room graph
	graph := rooms.Build(level.Rooms, r.cfg.Classifier)
	if len(graph.Nodes) == 0 {
		log.Warn("level has no rooms")
	} else if len(graph.Critical()) == 0 {
		log.Warn("level has no critical-path rooms, averaging over all rooms")
	}

	// 2. Budget
	alloc := budget.Allocate(r.tables.Desired(r.cfg.Emotion), len(graph.Eligible()), r.cfg.Budget)
	if alloc.Rescaled {
		log.Info("budget rescaled",
			"desired", alloc.Desired.Total(),
			"final", alloc.Final.Total(),
			"max_usable", alloc.MaxUsable,
		)
	}
	b := budget.NewBudget(alloc.Final)

	// 3. Greedy optimizer
	opt := optimizer.Optimize(graph, target, weights, b, r.gate, r.cfg.Optimizer, log)

	// 4. Leftover budget decorates side rooms
	var fill filler.Result
	if r.cfg.FillOptional {
		fill = filler.Fill(graph, b, r.gate, r.cfg.Filler, log)
	}

	// 5. Post-run checks are reported, never enforced
	ev := r.eval.Run(graph, alloc, opt)
	if !ev.Passed {
		log.Warn("post-run validation failed", "reason", ev.Reason)
	}

	snap := buildSnapshot(runID, level.ID, r.cfg.Emotion, graph, opt, b, target, weights)
	logSummary(log, graph, target, weights)

	return Result{
		Snapshot:   snap,
		Allocation: alloc,
		Optimizer:  opt,
		Filler:     fill,
		Eval:       ev,
	}
}

// #endregion runner

// #region snapshot

func buildSnapshot(runID, levelID string, e appraisal.Emotion, graph *rooms.Graph, opt optimizer.Result,
	b *budget.Budget, target appraisal.Target, w appraisal.Weights) Snapshot {
	avg := aggregate.New(rooms.Profiles(graph.AggregateMembers())).Average()

	snap := Snapshot{
		RunID:           runID,
		LevelID:         levelID,
		Emotion:         e,
		Status:          opt.Status,
		InitialDistance: opt.InitialDistance,
		FinalDistance:   appraisal.WeightedSquaredDistance(avg, target.Center, w),
		Average:         avg,
		Rooms:           make([]RoomSnapshot, 0, len(graph.Nodes)),
		RemainingBudget: b.Table(),
	}
	if len(graph.Nodes) == 0 {
		snap.FinalDistance = opt.FinalDistance
	}

	for _, n := range graph.Nodes {
		rs := RoomSnapshot{
			ID:                 n.ID,
			Index:              n.Index,
			Name:               n.Name,
			IsOnCriticalPath:   n.IsOnCriticalPath,
			IsTerminal:         n.IsTerminal,
			CriticalOrder:      n.CriticalOrder,
			Appraisal:          n.Appraisal,
			Patterns:           append([]pattern.Type(nil), n.AppliedPatterns...),
			SuppressedPatterns: suppressed(n),
		}
		if n.HasNextCritical && !n.IsTerminal {
			dir := n.NextCriticalDirection
			rs.HasNextCritical = true
			rs.NextCriticalDirection = &dir
		}
		snap.Rooms = append(snap.Rooms, rs)
	}
	return snap
}

// suppressed lists the hostile patterns a SafeHaven in the same room mutes
// at scene-build time.
func suppressed(n *rooms.Node) []pattern.Type {
	if !n.HasPattern(pattern.SafeHaven) {
		return nil
	}
	var out []pattern.Type
	for _, p := range n.AppliedPatterns {
		if p.Hostile() {
			out = append(out, p)
		}
	}
	return out
}

// logSummary reports the aggregate average against the target: the critical
// path, or every room when the level has none.
func logSummary(log *slog.Logger, graph *rooms.Graph, target appraisal.Target, w appraisal.Weights) {
	avg := aggregate.New(rooms.Profiles(graph.AggregateMembers())).Average()
	attrs := []any{"distance", appraisal.WeightedSquaredDistance(avg, target.Center, w)}
	for i, v := range avg.Vector() {
		attrs = append(attrs, appraisal.DimensionNames[i], fmt.Sprintf("%.2f", v))
	}
	log.Info("level summary", attrs...)
}

// #endregion snapshot
