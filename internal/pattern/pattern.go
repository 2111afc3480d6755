// Package pattern defines the design-pattern kinds the optimizer places in
// rooms and the fixed appraisal effect of each.
package pattern

import (
	"fmt"
	"strings"
)

// #region type

// Type is a design-pattern kind. The declaration order is the tie-break
// order used by the allocator and the optimizer.
type Type int

const (
	Centering Type = iota
	Symmetry
	AppearanceOfObjects
	PointingOut
	Conflict
	ContentDensity
	OcclusionAudio
	Rewards
	CompetenceGate
	ClearSignposting
	SafeHaven
)

// Count is the number of pattern kinds.
const Count = int(SafeHaven) + 1

var names = [Count]string{
	"Centering",
	"Symmetry",
	"AppearanceOfObjects",
	"PointingOut",
	"Conflict",
	"ContentDensity",
	"OcclusionAudio",
	"Rewards",
	"CompetenceGate",
	"ClearSignposting",
	"SafeHaven",
}

// All returns every pattern kind in declaration order.
func All() []Type {
	all := make([]Type, Count)
	for i := range all {
		all[i] = Type(i)
	}
	return all
}

// Valid reports whether t is a declared kind.
func (t Type) Valid() bool {
	return t >= 0 && int(t) < Count
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Pattern(%d)", int(t))
	}
	return names[t]
}

// Parse maps a case-insensitive pattern name onto a Type.
func Parse(s string) (Type, error) {
	name := strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(name, n) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pattern %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("marshal pattern: invalid kind %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// #endregion type

// #region hostile

// Hostile reports whether a SafeHaven in the same room suppresses t when the
// scene layer spawns content.
func (t Type) Hostile() bool {
	switch t {
	case Conflict, ContentDensity, OcclusionAudio, CompetenceGate:
		return true
	}
	return false
}

// #endregion hostile
