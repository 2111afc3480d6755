package eval

import (
	"fmt"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/optimizer"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region eval-harness
// EvalHarness re-checks the placement invariants on a finished run.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run inspects the final graph, the budget allocation and the optimizer
// trace. Every metric is reported even after the first failure.
func (h *EvalHarness) Run(graph *rooms.Graph, alloc budget.Allocation, opt optimizer.Result) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(name string, value float64, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Per-room cap and uniqueness
	over, dup := 0, 0
	var firstOver, firstDup string
	total := 0
	for _, n := range graph.Nodes {
		total += len(n.AppliedPatterns)
		if len(n.AppliedPatterns) > h.config.MaxPatternsPerRoom {
			over++
			if firstOver == "" {
				firstOver = n.ID
			}
		}
		if hasRepeat(n.AppliedPatterns) {
			dup++
			if firstDup == "" {
				firstDup = n.ID
			}
		}
	}
	check("rooms_over_cap", float64(over), over == 0,
		fmt.Sprintf("room %s exceeds %d patterns", firstOver, h.config.MaxPatternsPerRoom))
	check("rooms_with_repeats", float64(dup), dup == 0,
		fmt.Sprintf("room %s repeats a pattern", firstDup))

	// 2. Terminal rooms carry no reward, signpost or rest point
	terminalHits := 0
	for _, n := range graph.Nodes {
		if !n.IsTerminal {
			continue
		}
		for _, p := range []pattern.Type{pattern.Rewards, pattern.ClearSignposting, pattern.SafeHaven} {
			if n.HasPattern(p) {
				terminalHits++
			}
		}
	}
	check("terminal_exclusions", float64(terminalHits), terminalHits == 0,
		"terminal room holds an excluded pattern")

	// 3. No consecutive safe havens on the critical path
	adjacent := 0
	critical := graph.Critical()
	for i := 0; i+1 < len(critical); i++ {
		if critical[i].HasPattern(pattern.SafeHaven) && critical[i+1].HasPattern(pattern.SafeHaven) {
			adjacent++
		}
	}
	check("adjacent_safe_havens", float64(adjacent), adjacent == 0,
		"consecutive critical rooms both hold SafeHaven")

	// 4. Budget fits the room capacity, and nothing was placed beyond it
	finalTotal := alloc.Final.Total()
	check("budget_total", float64(finalTotal), finalTotal <= alloc.MaxUsable,
		fmt.Sprintf("budget %d exceeds capacity %d", finalTotal, alloc.MaxUsable))
	check("applied_total", float64(total), total <= finalTotal,
		fmt.Sprintf("%d patterns applied against a budget of %d", total, finalTotal))

	// 5. Distance never rises across commits
	rises := 0
	prev := opt.InitialDistance
	for _, s := range opt.Steps {
		if s.Distance > prev+h.config.DistanceTolerance {
			rises++
		}
		prev = s.Distance
	}
	check("distance_rises", float64(rises), rises == 0,
		"aggregate distance increased during optimization")

	// 6. Informational: improvement achieved
	metrics = append(metrics, EvalMetric{
		Name:  "distance_improvement",
		Value: opt.InitialDistance - opt.FinalDistance,
		Pass:  opt.FinalDistance <= opt.InitialDistance+h.config.DistanceTolerance,
	})

	reason := "all checks passed"
	passed := len(failReasons) == 0
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func hasRepeat(ps []pattern.Type) bool {
	var seen [pattern.Count]bool
	for _, p := range ps {
		if !p.Valid() {
			continue
		}
		if seen[p] {
			return true
		}
		seen[p] = true
	}
	return false
}

// #endregion helpers
