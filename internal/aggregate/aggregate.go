// Package aggregate maintains the running average appraisal of a fixed set
// of rooms so a single-room change can be scored without rescanning.
package aggregate

import (
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
)

// #region aggregate

// Aggregate is a raw (unclamped) per-dimension sum plus member count.
type Aggregate struct {
	sum   [appraisal.Dims]float64
	count int
}

// New sums the given member profiles.
func New(profiles []appraisal.Profile) *Aggregate {
	a := &Aggregate{}
	a.Recompute(profiles)
	return a
}

// Count returns the number of members.
func (a *Aggregate) Count() int {
	return a.count
}

// Average returns the mean member profile, or the neutral profile when
// there are no members.
func (a *Aggregate) Average() appraisal.Profile {
	return a.average(a.sum)
}

// Propose returns the average that would result from one member changing
// from old to updated, without mutating a.
func (a *Aggregate) Propose(old, updated appraisal.Profile) appraisal.Profile {
	return a.average(a.shifted(old, updated))
}

// Commit applies one member's change from old to updated.
func (a *Aggregate) Commit(old, updated appraisal.Profile) {
	a.sum = a.shifted(old, updated)
}

// Recompute resets the sum from scratch, discarding accumulated drift.
func (a *Aggregate) Recompute(profiles []appraisal.Profile) {
	a.sum = [appraisal.Dims]float64{}
	for _, p := range profiles {
		v := p.Vector()
		for i := range a.sum {
			a.sum[i] += v[i]
		}
	}
	a.count = len(profiles)
}

func (a *Aggregate) shifted(old, updated appraisal.Profile) [appraisal.Dims]float64 {
	s := a.sum
	ov, nv := old.Vector(), updated.Vector()
	for i := range s {
		s[i] += nv[i] - ov[i]
	}
	return s
}

func (a *Aggregate) average(sum [appraisal.Dims]float64) appraisal.Profile {
	if a.count == 0 {
		return appraisal.Neutral()
	}
	avg, err := appraisal.FromVector(sum, appraisal.AgencyNeutral).Div(float64(a.count))
	if err != nil {
		return appraisal.Neutral()
	}
	return avg
}

// #endregion aggregate
