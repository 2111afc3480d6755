package logging

import "time"

// #region step-entry
// StepEntry is a single row in the step_log table.
type StepEntry struct {
	RunID       string
	Stage       string // "optimizer" | "filler"
	Iteration   int
	RoomID      string
	Pattern     string
	Decision    string // "commit" | "no_op"
	Improvement float64
	Distance    float64
	Reason      string
	CreatedAt   time.Time
}
// #endregion step-entry

// Stage names.
const (
	StageOptimizer = "optimizer"
	StageFiller    = "filler"
)
