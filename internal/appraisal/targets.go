package appraisal

import (
	"fmt"
	"strings"
)

// #region emotion

// Emotion is the level-wide target an optimization run steers toward.
type Emotion int

const (
	Wonder Emotion = iota
	Fear
	Joy
)

var emotionNames = [...]string{"wonder", "fear", "joy"}

// Emotions lists every supported target.
func Emotions() []Emotion {
	return []Emotion{Wonder, Fear, Joy}
}

func (e Emotion) String() string {
	if e < 0 || int(e) >= len(emotionNames) {
		return fmt.Sprintf("emotion(%d)", int(e))
	}
	return emotionNames[e]
}

// ParseEmotion maps a case-insensitive name onto an Emotion.
func ParseEmotion(s string) (Emotion, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range emotionNames {
		if name == n {
			return Emotion(i), nil
		}
	}
	return Wonder, fmt.Errorf("unknown emotion %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (e Emotion) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Emotion) UnmarshalText(b []byte) error {
	parsed, err := ParseEmotion(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// #endregion emotion

// #region target

// Target is the appraisal box for one emotion plus its center point.
type Target struct {
	Emotion Emotion
	Min     Profile
	Max     Profile
	Center  Profile
}

func newTarget(e Emotion, min, max Profile) Target {
	minV, maxV := min.Vector(), max.Vector()
	var mid [Dims]float64
	for i := range mid {
		mid[i] = (minV[i] + maxV[i]) / 2
	}
	return Target{
		Emotion: e,
		Min:     min,
		Max:     max,
		Center:  FromVector(mid, AgencyNeutral),
	}
}

var targets = map[Emotion]Target{
	Wonder: newTarget(Wonder,
		Profile{Novelty: 0.6, Pleasantness: 0.3, GoalConduciveness: -0.1, Urgency: 0.0, Certainty: 0.2,
			NegOutcomeProb: 0.0, Controllability: 0.4, Power: 0.3, Adjustability: 0.3, Agency: AgencyNeutral},
		Profile{Novelty: 0.9, Pleasantness: 0.8, GoalConduciveness: 0.4, Urgency: 0.25, Certainty: 0.5,
			NegOutcomeProb: 0.3, Controllability: 0.7, Power: 0.6, Adjustability: 0.7, Agency: AgencyNeutral},
	),
	Fear: newTarget(Fear,
		Profile{Novelty: 0.5, Pleasantness: -0.6, GoalConduciveness: -0.7, Urgency: 0.6, Certainty: 0.1,
			NegOutcomeProb: 0.6, Controllability: 0.0, Power: 0.0, Adjustability: 0.0, Agency: AgencyNeutral},
		Profile{Novelty: 0.9, Pleasantness: -0.2, GoalConduciveness: -0.3, Urgency: 1.0, Certainty: 0.4,
			NegOutcomeProb: 1.0, Controllability: 0.4, Power: 0.4, Adjustability: 0.5, Agency: AgencyNeutral},
	),
	Joy: newTarget(Joy,
		Profile{Novelty: 0.5, Pleasantness: 0.6, GoalConduciveness: 0.5, Urgency: 0.1, Certainty: 0.5,
			NegOutcomeProb: 0.0, Controllability: 0.6, Power: 0.6, Adjustability: 0.6, Agency: AgencyNeutral},
		Profile{Novelty: 0.8, Pleasantness: 1.0, GoalConduciveness: 1.0, Urgency: 0.45, Certainty: 1.0,
			NegOutcomeProb: 0.2, Controllability: 1.0, Power: 1.0, Adjustability: 1.0, Agency: AgencyNeutral},
	),
}

// TargetFor returns the target box for e. Unknown emotions get Wonder.
func TargetFor(e Emotion) Target {
	if t, ok := targets[e]; ok {
		return t
	}
	return targets[Wonder]
}

// #endregion target

// #region weights

// Weights scales each dimension's contribution to the distance. A zero
// weight disables the dimension.
type Weights [Dims]float64

// Ones weighs every dimension equally.
func Ones() Weights {
	return Weights{1, 1, 1, 1, 1, 1, 1, 1, 1}
}

var weights = map[Emotion]Weights{
	//        nov  pleas goal urg  cert neg  ctrl pow  adj
	Wonder: {1.5, 1.2, 0.7, 0.5, 1.0, 0.5, 1.0, 0.8, 1.2},
	Fear:   {0.8, 1.2, 1.2, 1.5, 1.0, 1.5, 1.3, 0.7, 0.7},
	Joy:    {0.8, 1.5, 1.5, 0.8, 1.2, 1.2, 1.2, 1.2, 1.2},
}

// WeightsFor returns the weights for e. Unknown emotions get Ones.
func WeightsFor(e Emotion) Weights {
	if w, ok := weights[e]; ok {
		return w
	}
	return Ones()
}

// #endregion weights

// #region distance

// WeightedSquaredDistance returns sum_i w_i * (p_i - t_i)^2.
func WeightedSquaredDistance(p, target Profile, w Weights) float64 {
	pv, tv := p.Vector(), target.Vector()
	var d float64
	for i := range pv {
		delta := pv[i] - tv[i]
		d += w[i] * delta * delta
	}
	return d
}

// #endregion distance
