// Package optimizer runs the greedy hill-climb that assigns design patterns
// to rooms until the level's average appraisal stops approaching the target.
package optimizer

import (
	"log/slog"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/aggregate"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/gate"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region optimize

// tieTolerance is the margin a later candidate must beat the current best by.
// Smaller gaps are rounding noise from the running sum and count as ties.
const tieTolerance = 1e-12

type candidate struct {
	node        *rooms.Node
	pattern     pattern.Type
	updated     appraisal.Profile
	distance    float64
	improvement float64
}

// Optimize greedily commits the single best (room, pattern) placement per
// iteration. Each commit strictly lowers the distance between the aggregate
// average and target.Center. The graph and budget are mutated in place.
func Optimize(graph *rooms.Graph, target appraisal.Target, w appraisal.Weights, b *budget.Budget, g *gate.Gate, cfg Config, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	if len(graph.Nodes) == 0 {
		return Result{Status: StatusEmpty, FinalAverage: appraisal.Neutral()}
	}

	members := graph.AggregateMembers()
	isMember := make(map[*rooms.Node]bool, len(members))
	for _, n := range members {
		isMember[n] = true
	}
	agg := aggregate.New(rooms.Profiles(members))

	distance := appraisal.WeightedSquaredDistance(agg.Average(), target.Center, w)
	res := Result{
		Status:          StatusIdle,
		InitialDistance: distance,
	}

	eligible := graph.Eligible()
	commits := 0

	for res.Iterations < cfg.MaxIterations {
		res.Iterations++

		// 1. Score every allowed candidate against the current aggregate
		var best *candidate
		for _, n := range eligible {
			if !isMember[n] || g.AtCap(n) {
				continue
			}
			for _, p := range pattern.All() {
				if !g.Allowed(graph, n, p, b, gate.PassOptimizer) {
					continue
				}
				updated := n.Preview(p)
				d := appraisal.WeightedSquaredDistance(agg.Propose(n.Appraisal, updated), target.Center, w)
				improvement := distance - d
				if improvement <= 0 {
					continue
				}
				if beats(improvement, best) {
					best = &candidate{node: n, pattern: p, updated: updated, distance: d, improvement: improvement}
				}
			}
		}

		// 2. Nothing helps: local optimum
		if best == nil {
			res.Status = StatusConverged
			break
		}

		// 3. Commit
		agg.Commit(best.node.Appraisal, best.updated)
		best.node.Apply(best.pattern)
		b.Take(best.pattern)
		commits++

		if cfg.RecomputeEvery > 0 && commits%cfg.RecomputeEvery == 0 {
			agg.Recompute(rooms.Profiles(members))
		}
		distance = appraisal.WeightedSquaredDistance(agg.Average(), target.Center, w)

		res.Steps = append(res.Steps, Step{
			Iteration:   res.Iterations,
			RoomID:      best.node.ID,
			Pattern:     best.pattern,
			Improvement: best.improvement,
			Distance:    distance,
		})
		logger.Debug("optimizer commit",
			"iteration", res.Iterations,
			"room", best.node.ID,
			"pattern", best.pattern.String(),
			"improvement", best.improvement,
			"distance", distance,
		)
	}

	if res.Status == StatusIdle {
		res.Status = StatusExhausted
	}
	res.FinalDistance = distance
	res.FinalAverage = agg.Average()

	logger.Info("optimizer finished",
		"status", string(res.Status),
		"iterations", res.Iterations,
		"commits", len(res.Steps),
		"initial_distance", res.InitialDistance,
		"final_distance", res.FinalDistance,
	)
	return res
}

// beats reports whether improvement displaces best. Ties keep the earlier
// candidate, in room order then pattern order.
func beats(improvement float64, best *candidate) bool {
	return best == nil || improvement > best.improvement+tieTolerance
}

// #endregion optimize
