package pipeline

import (
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/eval"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/filler"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/optimizer"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region level

// Level is one generated dungeon as handed over by the generator.
type Level struct {
	ID    string           `json:"id"`
	Rooms []rooms.Instance `json:"rooms"`
}

// #endregion level

// #region snapshot

// RoomSnapshot is the per-room metadata the scene layer consumes.
type RoomSnapshot struct {
	ID                    string            `json:"id"`
	Index                 int               `json:"index"`
	Name                  string            `json:"name"`
	IsOnCriticalPath      bool              `json:"is_on_critical_path"`
	IsTerminal            bool              `json:"is_terminal"`
	CriticalOrder         int               `json:"critical_order"`
	Appraisal             appraisal.Profile `json:"appraisal"`
	Patterns              []pattern.Type    `json:"patterns"`
	SuppressedPatterns    []pattern.Type    `json:"suppressed_patterns,omitempty"`
	HasNextCritical       bool              `json:"has_next_critical"`
	NextCriticalDirection *rooms.Vec3       `json:"next_critical_direction,omitempty"`
}

// Snapshot is the read-only outcome of one run. Nothing flows back from
// its consumers into the optimizer.
type Snapshot struct {
	RunID           string            `json:"run_id"`
	LevelID         string            `json:"level_id"`
	Emotion         appraisal.Emotion `json:"emotion"`
	Status          optimizer.Status  `json:"status"`
	InitialDistance float64           `json:"initial_distance"`
	FinalDistance   float64           `json:"final_distance"`
	Average         appraisal.Profile `json:"average"`
	Rooms           []RoomSnapshot    `json:"rooms"`
	RemainingBudget budget.Table      `json:"remaining_budget"`
}

// TotalPatterns counts the patterns applied across every room.
func (s Snapshot) TotalPatterns() int {
	total := 0
	for _, r := range s.Rooms {
		total += len(r.Patterns)
	}
	return total
}

// #endregion snapshot

// #region result

// Result bundles the snapshot with the intermediate stage outputs.
type Result struct {
	Snapshot   Snapshot          `json:"snapshot"`
	Allocation budget.Allocation `json:"allocation"`
	Optimizer  optimizer.Result  `json:"optimizer"`
	Filler     filler.Result     `json:"filler"`
	Eval       eval.EvalResult   `json:"eval"`
}

// #endregion result
