package replay

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/optimizer"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
)

// #region types

// ReplayResult captures the outcome of replaying one level.
type ReplayResult struct {
	LevelID         string
	RunID           string
	Status          optimizer.Status
	InitialDistance float64
	FinalDistance   float64
	BudgetTotal     int
	TotalPatterns   int
	EvalPassed      bool
	Reason          string
	Result          pipeline.Result
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalLevels     int
	Converged       int
	Exhausted       int
	Empty           int
	EvalFailures    int
	MeanImprovement float64
}

// Mismatch is one expectation a replayed level failed.
type Mismatch struct {
	LevelID string
	Field   string
	Detail  string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s: %s", m.LevelID, m.Field, m.Detail)
}

// #endregion types

// #region replay

// Replay runs every level through one runner, in order. Operates entirely
// in memory.
func Replay(levels []pipeline.Level, cfg pipeline.Config, tables budget.Tables, logger *slog.Logger) ([]ReplayResult, error) {
	runner, err := pipeline.NewRunner(cfg, tables, logger)
	if err != nil {
		return nil, err
	}

	results := make([]ReplayResult, 0, len(levels))
	for _, lv := range levels {
		res := runner.Run(lv)
		results = append(results, ReplayResult{
			LevelID:         lv.ID,
			RunID:           res.Snapshot.RunID,
			Status:          res.Snapshot.Status,
			InitialDistance: res.Snapshot.InitialDistance,
			FinalDistance:   res.Snapshot.FinalDistance,
			BudgetTotal:     res.Allocation.Final.Total(),
			TotalPatterns:   res.Snapshot.TotalPatterns(),
			EvalPassed:      res.Eval.Passed,
			Reason:          res.Eval.Reason,
			Result:          res,
		})
	}
	return results, nil
}

// Check compares results against expectations by level ID. A level with no
// result is itself a mismatch.
func Check(results []ReplayResult, expected []FixtureExpectedResult) []Mismatch {
	byLevel := make(map[string]ReplayResult, len(results))
	for _, r := range results {
		byLevel[r.LevelID] = r
	}

	var out []Mismatch
	for _, exp := range expected {
		r, ok := byLevel[exp.LevelID]
		if !ok {
			out = append(out, Mismatch{exp.LevelID, "level", "no replay result"})
			continue
		}
		if len(exp.Statuses) > 0 && !slices.Contains(exp.Statuses, string(r.Status)) {
			out = append(out, Mismatch{exp.LevelID, "status", fmt.Sprintf("got %s, want one of %v", r.Status, exp.Statuses)})
		}
		if exp.BudgetTotal != nil && r.BudgetTotal != *exp.BudgetTotal {
			out = append(out, Mismatch{exp.LevelID, "budget_total", fmt.Sprintf("got %d, want %d", r.BudgetTotal, *exp.BudgetTotal)})
		}
		if exp.MaxTotalPatterns != nil && r.TotalPatterns > *exp.MaxTotalPatterns {
			out = append(out, Mismatch{exp.LevelID, "total_patterns", fmt.Sprintf("got %d, want <= %d", r.TotalPatterns, *exp.MaxTotalPatterns)})
		}
		if exp.MustImprove && !(r.FinalDistance < r.InitialDistance) {
			out = append(out, Mismatch{exp.LevelID, "distance", fmt.Sprintf("final %.4f not below initial %.4f", r.FinalDistance, r.InitialDistance)})
		}
		if exp.EvalPassed && !r.EvalPassed {
			out = append(out, Mismatch{exp.LevelID, "eval", r.Reason})
		}
	}
	return out
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalLevels: len(results)}
	var improvement float64
	for _, r := range results {
		switch r.Status {
		case optimizer.StatusConverged:
			s.Converged++
		case optimizer.StatusExhausted:
			s.Exhausted++
		case optimizer.StatusEmpty:
			s.Empty++
		}
		if !r.EvalPassed {
			s.EvalFailures++
		}
		improvement += r.InitialDistance - r.FinalDistance
	}
	if len(results) > 0 {
		s.MeanImprovement = improvement / float64(len(results))
	}
	return s
}

// #endregion replay
