package scoring

import (
	"time"

	"referral-backend/internal/referrals"
)

// Grade is the letter band derived from a final score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// SemanticStatus records how the semantic score was obtained.
type SemanticStatus string

const (
	SemanticOK            SemanticStatus = "ok"
	SemanticDisabled      SemanticStatus = "disabled"
	SemanticNotConfigured SemanticStatus = "not_configured"
	SemanticTransport     SemanticStatus = "transport"
	SemanticMalformed     SemanticStatus = "malformed"
)

// Breakdown is the full explanation of a score.
type Breakdown struct {
	ExpertiseMatch     int      `json:"expertiseMatch"`
	ExperienceMatch    int      `json:"experienceMatch"`
	InterpersonalMatch int      `json:"interpersonalSkillsMatch"`
	TechnicalMatch     int      `json:"technicalSkillsMatch"`
	ReferralQuality    int      `json:"referralQuality"`
	RuleScore          int      `json:"ruleScore"`
	SemanticScore      int      `json:"semanticScore"`
	SemanticStrengths  []string `json:"semanticStrengths"`
	SemanticGaps       []string `json:"semanticGaps"`
	SemanticSummary    string   `json:"semanticSummary"`
	FinalScore         int      `json:"finalScore"`
	Grade              Grade    `json:"grade"`
}

// Record is the persisted score of a referral.
type Record struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organizationId"`
	ReferralID     string         `json:"referralId"`
	JobID          string         `json:"jobId"`
	CandidateID    string         `json:"candidateId"`
	Breakdown      Breakdown      `json:"breakdown"`
	ModelUsed      string         `json:"modelUsed"`
	SemanticStatus SemanticStatus `json:"semanticStatus"`
	ScoredAt       time.Time      `json:"scoredAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Ranked is a referral positioned in a job ranking. Score is nil when the
// referral has never been scored.
type Ranked struct {
	Referral referrals.Referral `json:"referral"`
	Score    *Record            `json:"score,omitempty"`
	Rank     int                `json:"rank"`
}

// Scored pairs a referral with a score in a batch result.
type Scored struct {
	Referral referrals.Referral `json:"referral"`
	Score    Record             `json:"score"`
	Reused   bool               `json:"reused"`
}

// FinalOrZero returns the final score or 0 when unscored.
func (r Ranked) FinalOrZero() int {
	if r.Score == nil {
		return 0
	}
	return r.Score.Breakdown.FinalScore
}
