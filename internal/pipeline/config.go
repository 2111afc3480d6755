package pipeline

import (
	"fmt"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/filler"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/optimizer"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region config

// Limits accepted by Validate.
const (
	MinPatternsPerRoom = 1
	MaxPatternsPerRoom = 4
)

// Config is everything one run depends on besides the level itself.
type Config struct {
	Emotion      appraisal.Emotion `json:"emotion"`
	Budget       budget.Config     `json:"budget"`
	Optimizer    optimizer.Config  `json:"optimizer"`
	Filler       filler.Config     `json:"filler"`
	Classifier   rooms.Classifier  `json:"classifier"`
	FillOptional bool              `json:"fill_optional"`
}

// DefaultConfig returns a Wonder run with the stock limits.
func DefaultConfig() Config {
	return Config{
		Emotion:      appraisal.Wonder,
		Budget:       budget.DefaultConfig(),
		Optimizer:    optimizer.DefaultConfig(),
		Filler:       filler.DefaultConfig(),
		Classifier:   rooms.DefaultClassifier(),
		FillOptional: true,
	}
}

// Validate rejects settings no run can honor.
func (c Config) Validate() error {
	if c.Budget.MaxPatternsPerRoom < MinPatternsPerRoom || c.Budget.MaxPatternsPerRoom > MaxPatternsPerRoom {
		return fmt.Errorf("max patterns per room %d outside [%d,%d]",
			c.Budget.MaxPatternsPerRoom, MinPatternsPerRoom, MaxPatternsPerRoom)
	}
	if c.Optimizer.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be >= 1, got %d", c.Optimizer.MaxIterations)
	}
	if c.Optimizer.RecomputeEvery < 0 {
		return fmt.Errorf("recompute period must be >= 0, got %d", c.Optimizer.RecomputeEvery)
	}
	if c.Filler.MaxSweeps < 0 {
		return fmt.Errorf("max sweeps must be >= 0, got %d", c.Filler.MaxSweeps)
	}
	return nil
}

// #endregion config
