// Package filler spends leftover pattern budget on optional side rooms.
// Placement is random and ignores the target distance.
package filler

import (
	"log/slog"
	"math/rand/v2"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/gate"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region config
// Config controls one filler pass.
type Config struct {
	MaxSweeps int    `json:"max_sweeps"` // safety cap on full passes over the optional rooms
	Seed      uint64 `json:"seed"`       // PCG seed; equal seeds give equal placements
}

// DefaultConfig returns the standard sweep cap with seed 0.
func DefaultConfig() Config {
	return Config{MaxSweeps: 100}
}

// #endregion config

// #region result
// Placement is one decoration committed by the filler.
type Placement struct {
	Sweep   int          `json:"sweep"`
	RoomID  string       `json:"room_id"`
	Pattern pattern.Type `json:"pattern"`
}

// Result reports what a Fill call placed.
type Result struct {
	Placements []Placement `json:"placements"`
	Sweeps     int         `json:"sweeps"`
}

// #endregion result

// #region fill
// Fill sweeps the optional rooms, letting each room under cap draw one
// allowed pattern with budget left, until a sweep places nothing, the
// budget runs dry, or MaxSweeps is reached.
func Fill(graph *rooms.Graph, b *budget.Budget, g *gate.Gate, cfg Config, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	optional := graph.Optional()

	var res Result
	for res.Sweeps < cfg.MaxSweeps && b.Total() > 0 && len(optional) > 0 {
		res.Sweeps++
		placed := 0

		for _, n := range optional {
			if g.AtCap(n) {
				continue
			}
			var choices []pattern.Type
			for _, p := range pattern.All() {
				if g.Allowed(graph, n, p, b, gate.PassFiller) {
					choices = append(choices, p)
				}
			}
			if len(choices) == 0 {
				continue
			}

			p := choices[rng.IntN(len(choices))]
			n.Apply(p)
			b.Take(p)
			placed++
			res.Placements = append(res.Placements, Placement{Sweep: res.Sweeps, RoomID: n.ID, Pattern: p})
			logger.Debug("filler placed", "sweep", res.Sweeps, "room", n.ID, "pattern", p.String())
		}

		if placed == 0 {
			break
		}
	}

	logger.Info("filler finished",
		"sweeps", res.Sweeps,
		"placements", len(res.Placements),
		"budget_left", b.Total(),
	)
	return res
}

// #endregion fill
