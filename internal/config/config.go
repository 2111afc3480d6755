// Package config reads process settings from the environment and turns
// them into a pipeline configuration. Commands apply their flags on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
)

// Environment keys.
const (
	EnvDB            = "EMOTION_DB"
	EnvTarget        = "EMOTION_TARGET"
	EnvMaxPatterns   = "EMOTION_MAX_PATTERNS"
	EnvMaxIterations = "EMOTION_MAX_ITERATIONS"
	EnvSeed          = "EMOTION_SEED"
	EnvDesiredTables = "EMOTION_DESIRED_TABLES"
	EnvRedisAddr     = "EMOTION_REDIS_ADDR"
	EnvGRPCAddr      = "EMOTION_GRPC_ADDR"
	EnvFillOptional  = "EMOTION_FILL_OPTIONAL"
)

// #region settings

// Settings are the raw process settings. Empty RedisAddr disables the
// handoff; empty DesiredTables uses the embedded tables.
type Settings struct {
	DBPath        string
	Target        string
	MaxPatterns   int
	MaxIterations int
	Seed          uint64
	DesiredTables string
	RedisAddr     string
	GRPCAddr      string
	FillOptional  bool
}

// Defaults returns the settings used when nothing is set.
func Defaults() Settings {
	d := pipeline.DefaultConfig()
	return Settings{
		DBPath:        "emotion_pcg.db",
		Target:        d.Emotion.String(),
		MaxPatterns:   d.Budget.MaxPatternsPerRoom,
		MaxIterations: d.Optimizer.MaxIterations,
		Seed:          d.Filler.Seed,
		GRPCAddr:      "localhost:50061",
		FillOptional:  d.FillOptional,
	}
}

// FromEnv reads Settings from the process environment.
func FromEnv() (Settings, error) {
	return Load(os.Getenv)
}

// Load reads Settings through getenv, falling back to Defaults.
func Load(getenv func(string) string) (Settings, error) {
	s := Defaults()
	or := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	s.DBPath = or(EnvDB, s.DBPath)
	s.Target = or(EnvTarget, s.Target)
	s.DesiredTables = or(EnvDesiredTables, s.DesiredTables)
	s.RedisAddr = or(EnvRedisAddr, s.RedisAddr)
	s.GRPCAddr = or(EnvGRPCAddr, s.GRPCAddr)

	var err error
	if v := getenv(EnvMaxPatterns); v != "" {
		if s.MaxPatterns, err = strconv.Atoi(v); err != nil {
			return s, fmt.Errorf("parse %s: %w", EnvMaxPatterns, err)
		}
	}
	if v := getenv(EnvMaxIterations); v != "" {
		if s.MaxIterations, err = strconv.Atoi(v); err != nil {
			return s, fmt.Errorf("parse %s: %w", EnvMaxIterations, err)
		}
	}
	if v := getenv(EnvSeed); v != "" {
		if s.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return s, fmt.Errorf("parse %s: %w", EnvSeed, err)
		}
	}
	if v := getenv(EnvFillOptional); v != "" {
		if s.FillOptional, err = strconv.ParseBool(v); err != nil {
			return s, fmt.Errorf("parse %s: %w", EnvFillOptional, err)
		}
	}
	return s, nil
}

// #endregion settings

// #region pipeline

// Pipeline builds a validated pipeline config from s.
func (s Settings) Pipeline() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	e, err := appraisal.ParseEmotion(s.Target)
	if err != nil {
		return cfg, fmt.Errorf("target emotion: %w", err)
	}
	cfg.Emotion = e
	cfg.Budget.MaxPatternsPerRoom = s.MaxPatterns
	cfg.Optimizer.MaxIterations = s.MaxIterations
	cfg.Filler.Seed = s.Seed
	cfg.FillOptional = s.FillOptional
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Tables loads the desired-count override file, or the embedded tables.
func (s Settings) Tables() (budget.Tables, error) {
	return budget.LoadTablesFile(s.DesiredTables)
}

// #endregion pipeline
