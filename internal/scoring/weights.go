package scoring

import (
	"fmt"
	"math"

	"referral-backend/internal/referrals"
)

// Weights holds the per-dimension maxima and the hybrid blend. Values are
// copied into the aggregator, so callers cannot mutate a running scorer.
type Weights struct {
	Expertise       int     `json:"expertise"`
	Experience      int     `json:"experience"`
	Interpersonal   int     `json:"interpersonal"`
	Technical       int     `json:"technical"`
	ReferralQuality int     `json:"referralQuality"`
	RuleShare       float64 `json:"ruleShare"`
	SemanticShare   float64 `json:"semanticShare"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Expertise:       30,
		Experience:      20,
		Interpersonal:   15,
		Technical:       15,
		ReferralQuality: 20,
		RuleShare:       0.5,
		SemanticShare:   0.5,
	}
}

// RuleTotal is the maximum achievable rule score.
func (w Weights) RuleTotal() int {
	return w.Expertise + w.Experience + w.Interpersonal + w.Technical + w.ReferralQuality
}

// Validate checks that the dimensions sum to 100 and the blend sums to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]int{
		"expertise":        w.Expertise,
		"experience":       w.Experience,
		"interpersonal":    w.Interpersonal,
		"technical":        w.Technical,
		"referral_quality": w.ReferralQuality,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s weight is negative", ErrInvalidWeights, name)
		}
	}
	if total := w.RuleTotal(); total != MaxScore {
		return fmt.Errorf("%w: dimension weights sum to %d", ErrInvalidWeights, total)
	}
	if w.RuleShare < 0 || w.SemanticShare < 0 || math.Abs(w.RuleShare+w.SemanticShare-1) > 1e-9 {
		return fmt.Errorf("%w: blend shares must be non-negative and sum to 1", ErrInvalidWeights)
	}
	return nil
}

// YearsRange is an inclusive band of years of experience.
type YearsRange struct {
	Min int
	Max int
}

var experienceRanges = map[referrals.ExperienceLevel]YearsRange{
	referrals.LevelTopManagement: {Min: 12, Max: 18},
	referrals.LevelCLevel:        {Min: 18, Max: 25},
	referrals.LevelBoard:         {Min: 25, Max: 50},
}

// ExperienceRange returns the band for a tier.
func ExperienceRange(level referrals.ExperienceLevel) (YearsRange, bool) {
	r, ok := experienceRanges[level]
	return r, ok
}

const (
	// MaxScore bounds every aggregate score.
	MaxScore = 100

	experienceBelowSlack = 2
	experienceAboveSlack = 3

	longMotivationChars   = 50
	longMotivationPoints  = 8
	shortMotivationPoints = 4
	materialsPoints       = 4
	strongRelationPoints  = 8
	alumniRelationPoints  = 4
)
