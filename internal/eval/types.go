package eval

// #region eval-config
// EvalConfig holds thresholds for post-run validation.
type EvalConfig struct {
	MaxPatternsPerRoom int     // per-room cap the run was configured with
	DistanceTolerance  float64 // slack allowed when comparing successive distances
}

// DefaultEvalConfig returns the defaults matching the standard run config.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MaxPatternsPerRoom: 2,
		DistanceTolerance:  1e-9,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-run validation.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result
