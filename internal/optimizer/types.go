package optimizer

import (
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
)

// #region status
// Status is the terminal state of one greedy run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusConverged Status = "converged" // no candidate improves the distance
	StatusExhausted Status = "exhausted" // MaxIterations reached
	StatusEmpty     Status = "empty"     // nothing to optimize
)

// #endregion status

// #region config
// Config bounds the greedy loop.
type Config struct {
	MaxIterations  int `json:"max_iterations"`  // safety cap on commits
	RecomputeEvery int `json:"recompute_every"` // full aggregate resync period in commits; 0 disables
}

// DefaultConfig returns the standard greedy limits.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  50,
		RecomputeEvery: 16,
	}
}

// #endregion config

// #region result
// Step records one committed placement.
type Step struct {
	Iteration   int          `json:"iteration"`
	RoomID      string       `json:"room_id"`
	Pattern     pattern.Type `json:"pattern"`
	Improvement float64      `json:"improvement"`
	Distance    float64      `json:"distance"` // aggregate distance after the commit
}

// Result is the outcome of Optimize.
type Result struct {
	Status          Status            `json:"status"`
	Iterations      int               `json:"iterations"`
	InitialDistance float64           `json:"initial_distance"`
	FinalDistance   float64           `json:"final_distance"`
	Steps           []Step            `json:"steps"`
	FinalAverage    appraisal.Profile `json:"final_average"`
}

// #endregion result
