package gate

// #region veto-type
// VetoType enumerates the reasons a placement is refused.
type VetoType string

const (
	VetoNoBudget       VetoType = "no_budget"
	VetoRoomAtCap      VetoType = "room_at_cap"
	VetoDuplicate      VetoType = "duplicate_pattern"
	VetoNotEligible    VetoType = "not_eligible"
	VetoTerminalRoom   VetoType = "terminal_room"
	VetoAdjacentHaven  VetoType = "adjacent_safe_haven"
	VetoUnknownPattern VetoType = "unknown_pattern"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents one violated placement rule.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds the placement limits.
type GateConfig struct {
	MaxPatternsPerRoom int // per-room cap on applied patterns
}

// DefaultGateConfig returns the default per-room cap.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxPatternsPerRoom: 2,
	}
}

// #endregion gate-config

// #region pass
// Pass selects which room set a placement request comes from.
type Pass int

const (
	PassOptimizer Pass = iota // pattern-eligible rooms, scored against the target
	PassFiller                // optional rooms, leftover budget only
)

// #endregion pass

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "commit" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
}

// #endregion gate-decision
