package pattern

import "github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"

// #region library

// The deltas are hand-tuned heuristics against the Wonder/Fear/Joy ranges,
// a calibration starting point rather than validated constants.
var library = map[Type]appraisal.Profile{
	Centering: {
		Novelty: 0.15, Pleasantness: 0.20, GoalConduciveness: 0.20, Urgency: 0.00, Certainty: 0.25,
		NegOutcomeProb: 0.00, Controllability: 0.20, Power: 0.00, Adjustability: 0.10,
		Agency: appraisal.AgencySelf,
	},
	Symmetry: {
		Novelty: -0.10, Pleasantness: 0.30, GoalConduciveness: 0.10, Urgency: -0.20, Certainty: 0.20,
		NegOutcomeProb: -0.10, Controllability: 0.20, Power: 0.00, Adjustability: 0.10,
		Agency: appraisal.AgencyNeutral,
	},
	AppearanceOfObjects: {
		Novelty: 0.30, Pleasantness: 0.20, GoalConduciveness: 0.10, Urgency: 0.00, Certainty: -0.20,
		NegOutcomeProb: 0.00, Controllability: 0.10, Power: 0.00, Adjustability: 0.20,
		Agency: appraisal.AgencySelf,
	},
	PointingOut: {
		Novelty: 0.10, Pleasantness: 0.10, GoalConduciveness: 0.30, Urgency: 0.10, Certainty: 0.30,
		NegOutcomeProb: -0.10, Controllability: 0.20, Power: 0.00, Adjustability: 0.20,
		Agency: appraisal.AgencySelf,
	},
	Conflict: {
		Novelty: 0.10, Pleasantness: -0.30, GoalConduciveness: -0.30, Urgency: 0.30, Certainty: 0.00,
		NegOutcomeProb: 0.30, Controllability: -0.20, Power: -0.10, Adjustability: -0.20,
		Agency: appraisal.AgencyOther,
	},
	ContentDensity: {
		Novelty: 0.00, Pleasantness: -0.20, GoalConduciveness: -0.20, Urgency: 0.20, Certainty: -0.10,
		NegOutcomeProb: 0.20, Controllability: -0.30, Power: 0.00, Adjustability: -0.20,
		Agency: appraisal.AgencyEnv,
	},
	OcclusionAudio: {
		Novelty: 0.10, Pleasantness: -0.20, GoalConduciveness: -0.10, Urgency: 0.30, Certainty: -0.30,
		NegOutcomeProb: 0.30, Controllability: -0.20, Power: -0.10, Adjustability: -0.10,
		Agency: appraisal.AgencyOther,
	},
	Rewards: {
		Novelty: 0.10, Pleasantness: 0.30, GoalConduciveness: 0.30, Urgency: -0.10, Certainty: 0.10,
		NegOutcomeProb: -0.30, Controllability: 0.20, Power: 0.30, Adjustability: 0.20,
		Agency: appraisal.AgencySelf,
	},
	CompetenceGate: {
		Novelty: 0.10, Pleasantness: 0.10, GoalConduciveness: 0.20, Urgency: 0.20, Certainty: 0.20,
		NegOutcomeProb: 0.10, Controllability: 0.30, Power: 0.20, Adjustability: -0.10,
		Agency: appraisal.AgencySelf,
	},
	ClearSignposting: {
		Novelty: 0.10, Pleasantness: 0.10, GoalConduciveness: 0.20, Urgency: 0.00, Certainty: 0.30,
		NegOutcomeProb: -0.20, Controllability: 0.30, Power: 0.00, Adjustability: 0.20,
		Agency: appraisal.AgencySelf,
	},
	SafeHaven: {
		Novelty: 0.10, Pleasantness: 0.30, GoalConduciveness: 0.20, Urgency: -0.30, Certainty: 0.20,
		NegOutcomeProb: -0.30, Controllability: 0.30, Power: 0.20, Adjustability: 0.30,
		Agency: appraisal.AgencySelf,
	},
}

// Delta returns the additive appraisal effect of t. A kind missing from the
// table yields the neutral profile.
func Delta(t Type) appraisal.Profile {
	if d, ok := library[t]; ok {
		return d
	}
	return appraisal.Neutral()
}

// #endregion library
