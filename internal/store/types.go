package store

import "time"

// #region run-record
// RunRecord is the summary row of one archived optimization run.
type RunRecord struct {
	RunID           string
	LevelID         string
	Emotion         string
	Status          string
	InitialDistance float64
	FinalDistance   float64
	TotalPatterns   int
	RoomCount       int
	EvalPassed      bool
	EvalReason      string
	CreatedAt       time.Time
}
// #endregion run-record
