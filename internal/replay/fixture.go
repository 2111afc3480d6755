package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Levels          []FixtureLevel          `json:"levels"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig holds the run settings a fixture overrides. Zero values
// keep the defaults.
type FixtureConfig struct {
	Emotion             string            `json:"emotion"`
	MaxPatternsPerRoom  int               `json:"max_patterns_per_room"`
	MaxIterations       int               `json:"max_iterations"`
	Seed                uint64            `json:"seed"`
	ReferenceCap        int               `json:"reference_cap,omitempty"`
	ScaleToReferenceCap bool              `json:"scale_to_reference_cap"`
	SkipFiller          bool              `json:"skip_filler"`
	RecomputeEvery      *int              `json:"recompute_every,omitempty"` // 0 disables resync
	MaxSweeps           *int              `json:"max_sweeps,omitempty"`
	Classifier          *rooms.Classifier `json:"classifier,omitempty"`
}

// FixtureRoom is one generator room instance.
type FixtureRoom struct {
	Name     string     `json:"name"`
	Template string     `json:"template,omitempty"`
	Position [3]float64 `json:"position"`
	Roles    []string   `json:"roles,omitempty"`
}

// FixtureLevel is one level to replay.
type FixtureLevel struct {
	ID    string        `json:"id"`
	Rooms []FixtureRoom `json:"rooms"`
}

// FixtureExpectedResult captures what a level's run must satisfy.
type FixtureExpectedResult struct {
	LevelID          string   `json:"level_id"`
	Statuses         []string `json:"statuses"`                     // any of these; empty = any
	BudgetTotal      *int     `json:"budget_total,omitempty"`       // exact allocated budget
	MaxTotalPatterns *int     `json:"max_total_patterns,omitempty"` // applied patterns upper bound
	MustImprove      bool     `json:"must_improve"`                 // final distance < initial
	EvalPassed       bool     `json:"eval_passed"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToLevel converts a FixtureLevel to a pipeline Level.
func (fl *FixtureLevel) ToLevel() pipeline.Level {
	lv := pipeline.Level{ID: fl.ID, Rooms: make([]rooms.Instance, len(fl.Rooms))}
	for i, r := range fl.Rooms {
		inst := rooms.Instance{
			Name:     r.Name,
			Template: r.Template,
			Position: rooms.Vec3{X: r.Position[0], Y: r.Position[1], Z: r.Position[2]},
		}
		for _, role := range r.Roles {
			inst.Roles = append(inst.Roles, rooms.Role(role))
		}
		lv.Rooms[i] = inst
	}
	return lv
}

// ToPipelineConfig applies the fixture overrides to the defaults.
func (fc *FixtureConfig) ToPipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if fc.Emotion != "" {
		e, err := appraisal.ParseEmotion(fc.Emotion)
		if err != nil {
			return cfg, err
		}
		cfg.Emotion = e
	}
	if fc.MaxPatternsPerRoom != 0 {
		cfg.Budget.MaxPatternsPerRoom = fc.MaxPatternsPerRoom
	}
	if fc.MaxIterations != 0 {
		cfg.Optimizer.MaxIterations = fc.MaxIterations
	}
	if fc.ReferenceCap != 0 {
		cfg.Budget.ReferenceCap = fc.ReferenceCap
	}
	cfg.Budget.ScaleToReferenceCap = fc.ScaleToReferenceCap
	if fc.RecomputeEvery != nil {
		cfg.Optimizer.RecomputeEvery = *fc.RecomputeEvery
	}
	if fc.MaxSweeps != nil {
		cfg.Filler.MaxSweeps = *fc.MaxSweeps
	}
	if fc.Classifier != nil {
		cfg.Classifier = *fc.Classifier
	}
	cfg.Filler.Seed = fc.Seed
	cfg.FillOptional = !fc.SkipFiller
	return cfg, cfg.Validate()
}

// #endregion fixture-loader

// #region fixture-export

// FromRun builds a single-level fixture pinning the outcome of a stored run.
func FromRun(description string, level pipeline.Level, cfg pipeline.Config, res pipeline.Result) *Fixture {
	fl := FixtureLevel{ID: level.ID, Rooms: make([]FixtureRoom, len(level.Rooms))}
	for i, r := range level.Rooms {
		fr := FixtureRoom{
			Name:     r.Name,
			Template: r.Template,
			Position: [3]float64{r.Position.X, r.Position.Y, r.Position.Z},
		}
		for _, role := range r.Roles {
			fr.Roles = append(fr.Roles, string(role))
		}
		fl.Rooms[i] = fr
	}

	budgetTotal := res.Allocation.Final.Total()
	total := res.Snapshot.TotalPatterns()
	recompute := cfg.Optimizer.RecomputeEvery
	sweeps := cfg.Filler.MaxSweeps
	classifier := cfg.Classifier
	return &Fixture{
		Description: description,
		Config: FixtureConfig{
			Emotion:             cfg.Emotion.String(),
			MaxPatternsPerRoom:  cfg.Budget.MaxPatternsPerRoom,
			MaxIterations:       cfg.Optimizer.MaxIterations,
			Seed:                cfg.Filler.Seed,
			ReferenceCap:        cfg.Budget.ReferenceCap,
			ScaleToReferenceCap: cfg.Budget.ScaleToReferenceCap,
			SkipFiller:          !cfg.FillOptional,
			RecomputeEvery:      &recompute,
			MaxSweeps:           &sweeps,
			Classifier:          &classifier,
		},
		Levels: []FixtureLevel{fl},
		ExpectedResults: []FixtureExpectedResult{{
			LevelID:          level.ID,
			Statuses:         []string{string(res.Snapshot.Status)},
			BudgetTotal:      &budgetTotal,
			MaxTotalPatterns: &total,
			MustImprove:      res.Snapshot.FinalDistance < res.Snapshot.InitialDistance,
			EvalPassed:       res.Eval.Passed,
		}},
	}
}

// #endregion fixture-export
