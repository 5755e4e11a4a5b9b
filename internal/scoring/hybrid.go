package scoring

import "math"

const blendEpsilon = 1e-9

// Combine blends the rule and semantic scores and floors the result.
// The epsilon absorbs float error so 0.5*71+0.5*71 stays 71.
func Combine(rule, semantic int, w Weights) int {
	raw := float64(rule)*w.RuleShare + float64(semantic)*w.SemanticShare
	return clampScore(int(math.Floor(raw + blendEpsilon)))
}

// GradeFor maps a final score onto its letter band.
func GradeFor(score int) Grade {
	switch {
	case score >= 80:
		return GradeA
	case score >= 60:
		return GradeB
	case score >= 40:
		return GradeC
	default:
		return GradeD
	}
}
