// Package appraisal holds the appraisal-space data model: the 9-dimensional
// profile, the per-emotion target boxes and weights, and the weighted
// distance used to score a level against a target.
package appraisal

import (
	"errors"
	"fmt"
	"strings"
)

// #region agency

// Agency tags who is responsible for an appraised event. It is categorical
// and never averaged.
type Agency int

const (
	AgencySelf Agency = iota
	AgencyOther
	AgencyEnv
	AgencyNeutral
)

var agencyNames = [...]string{"self", "other", "env", "neutral"}

func (a Agency) String() string {
	if a < 0 || int(a) >= len(agencyNames) {
		return fmt.Sprintf("agency(%d)", int(a))
	}
	return agencyNames[a]
}

// MarshalText implements encoding.TextMarshaler.
func (a Agency) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Agency) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, name := range agencyNames {
		if s == name {
			*a = Agency(i)
			return nil
		}
	}
	return fmt.Errorf("unknown agency %q", string(b))
}

// #endregion agency

// #region profile

// Dims is the number of continuous appraisal dimensions.
const Dims = 9

// DimensionNames lists the continuous dimensions in Vector order.
var DimensionNames = [Dims]string{
	"novelty",
	"pleasantness",
	"goal_conduciveness",
	"urgency",
	"certainty",
	"neg_outcome_prob",
	"controllability",
	"power",
	"adjustability",
}

// Profile is a point in appraisal space.
type Profile struct {
	Novelty           float64 `json:"novelty"`            // [0,1]
	Pleasantness      float64 `json:"pleasantness"`       // [-1,1]
	GoalConduciveness float64 `json:"goal_conduciveness"` // [-1,1]
	Urgency           float64 `json:"urgency"`            // [0,1]
	Certainty         float64 `json:"certainty"`          // [-1,1]
	NegOutcomeProb    float64 `json:"neg_outcome_prob"`   // [0,1]
	Controllability   float64 `json:"controllability"`    // [0,1]
	Power             float64 `json:"power"`              // [0,1]
	Adjustability     float64 `json:"adjustability"`      // [0,1]
	Agency            Agency  `json:"agency"`
}

// ErrZeroDivisor is returned by Div when the scalar is too close to zero.
var ErrZeroDivisor = errors.New("appraisal: divide by zero scalar")

const zeroEpsilon = 1e-6

// Neutral returns the baseline profile every room starts from.
func Neutral() Profile {
	return Profile{
		Controllability: 0.5,
		Power:           0.5,
		Agency:          AgencyNeutral,
	}
}

// Add sums delta into p and clamps. Agency is overwritten only by a
// non-neutral delta.
func (p *Profile) Add(delta Profile) {
	p.Novelty += delta.Novelty
	p.Pleasantness += delta.Pleasantness
	p.GoalConduciveness += delta.GoalConduciveness
	p.Urgency += delta.Urgency
	p.Certainty += delta.Certainty
	p.NegOutcomeProb += delta.NegOutcomeProb
	p.Controllability += delta.Controllability
	p.Power += delta.Power
	p.Adjustability += delta.Adjustability

	if delta.Agency != AgencyNeutral {
		p.Agency = delta.Agency
	}

	p.Clamp()
}

// Clamp forces every field back into its declared range.
func (p *Profile) Clamp() {
	p.Novelty = clamp(p.Novelty, 0, 1)
	p.Pleasantness = clamp(p.Pleasantness, -1, 1)
	p.GoalConduciveness = clamp(p.GoalConduciveness, -1, 1)
	p.Urgency = clamp(p.Urgency, 0, 1)
	p.Certainty = clamp(p.Certainty, -1, 1)
	p.NegOutcomeProb = clamp(p.NegOutcomeProb, 0, 1)
	p.Controllability = clamp(p.Controllability, 0, 1)
	p.Power = clamp(p.Power, 0, 1)
	p.Adjustability = clamp(p.Adjustability, 0, 1)
}

// Plus returns a + b, where + is Add.
func Plus(a, b Profile) Profile {
	a.Add(b)
	return a
}

// Div divides every continuous field by scalar. Agency is untouched. A
// near-zero scalar returns p unchanged with ErrZeroDivisor.
func (p Profile) Div(scalar float64) (Profile, error) {
	if scalar > -zeroEpsilon && scalar < zeroEpsilon {
		return p, ErrZeroDivisor
	}
	v := p.Vector()
	for i := range v {
		v[i] /= scalar
	}
	return FromVector(v, p.Agency), nil
}

// Vector returns the continuous fields in DimensionNames order.
func (p Profile) Vector() [Dims]float64 {
	return [Dims]float64{
		p.Novelty,
		p.Pleasantness,
		p.GoalConduciveness,
		p.Urgency,
		p.Certainty,
		p.NegOutcomeProb,
		p.Controllability,
		p.Power,
		p.Adjustability,
	}
}

// FromVector builds a profile from a Vector-ordered array. No clamping.
func FromVector(v [Dims]float64, agency Agency) Profile {
	return Profile{
		Novelty:           v[0],
		Pleasantness:      v[1],
		GoalConduciveness: v[2],
		Urgency:           v[3],
		Certainty:         v[4],
		NegOutcomeProb:    v[5],
		Controllability:   v[6],
		Power:             v[7],
		Adjustability:     v[8],
		Agency:            agency,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion profile
