package gate

import (
	"fmt"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region gate
// Gate decides whether a single (room, pattern) placement is allowed.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	if config.MaxPatternsPerRoom < 1 {
		config.MaxPatternsPerRoom = 1
	}
	return &Gate{config: config}
}

// MaxPatternsPerRoom returns the per-room cap the gate enforces.
func (g *Gate) MaxPatternsPerRoom() int {
	return g.config.MaxPatternsPerRoom
}

// Allowed is Evaluate reduced to its verdict.
func (g *Gate) Allowed(graph *rooms.Graph, n *rooms.Node, p pattern.Type, b *budget.Budget, pass Pass) bool {
	return !g.Evaluate(graph, n, p, b, pass).Vetoed
}

// AtCap reports whether n has no pattern slot left.
func (g *Gate) AtCap(n *rooms.Node) bool {
	return len(n.AppliedPatterns) >= g.config.MaxPatternsPerRoom
}

// Evaluate runs every placement rule and collects the vetoes.
func (g *Gate) Evaluate(graph *rooms.Graph, n *rooms.Node, p pattern.Type, b *budget.Budget, pass Pass) GateDecision {
	var vetoes []VetoSignal

	// 1. Known kind with budget left
	if !p.Valid() {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoUnknownPattern,
			Reason: fmt.Sprintf("pattern kind %d is not declared", int(p)),
		})
	} else if b != nil && b.Remaining(p) <= 0 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNoBudget,
			Reason: fmt.Sprintf("no %s budget left", p),
		})
	}

	// 2. Room set for this pass
	switch pass {
	case PassOptimizer:
		if !n.IsEligible {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoNotEligible,
				Reason: fmt.Sprintf("room %s is not pattern-eligible", n.ID),
			})
		}
	case PassFiller:
		if !n.IsOptional {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoNotEligible,
				Reason: fmt.Sprintf("room %s is not an optional room", n.ID),
			})
		}
	}

	// 3. Per-room cap
	if g.AtCap(n) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoRoomAtCap,
			Reason: fmt.Sprintf("room %s already holds %d patterns", n.ID, len(n.AppliedPatterns)),
		})
	}

	// 4. No repeats within a room
	if n.HasPattern(p) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoDuplicate,
			Reason: fmt.Sprintf("room %s already has %s", n.ID, p),
		})
	}

	// 5. The final room offers no reward, signpost or rest point
	if n.IsTerminal && terminalExcluded(p) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoTerminalRoom,
			Reason: fmt.Sprintf("%s not allowed in terminal room %s", p, n.ID),
		})
	}

	// 6. No two safe havens back to back on the critical path
	if p == pattern.SafeHaven && graph != nil {
		prev, next := graph.CriticalNeighbors(n)
		if (prev != nil && prev.HasPattern(pattern.SafeHaven)) || (next != nil && next.HasPattern(pattern.SafeHaven)) {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoAdjacentHaven,
				Reason: fmt.Sprintf("critical neighbor of %s already has SafeHaven", n.ID),
			})
		}
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	return GateDecision{
		Action: "commit",
		Reason: fmt.Sprintf("%s allowed in %s", p, n.ID),
	}
}

// #endregion gate

// #region helpers
// terminalExcluded lists the kinds the final room never receives.
func terminalExcluded(p pattern.Type) bool {
	switch p {
	case pattern.Rewards, pattern.ClearSignposting, pattern.SafeHaven:
		return true
	}
	return false
}

// #endregion helpers
