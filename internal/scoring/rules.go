package scoring

import (
	"strings"
	"unicode/utf8"

	"referral-backend/internal/referrals"
)

// ExpertiseMatch awards the full weight when both domains are set and equal.
func ExpertiseMatch(c referrals.CandidateProfile, j referrals.JobProfile, weight int) int {
	if c.ExpertiseDomain == "" || j.ExpertiseDomain == "" {
		return 0
	}
	if c.ExpertiseDomain == j.ExpertiseDomain {
		return weight
	}
	return 0
}

// ExperienceMatch compares years of experience against the job tier band.
// Jobs without a known tier get half credit.
func ExperienceMatch(c referrals.CandidateProfile, j referrals.JobProfile, weight int) int {
	band, ok := ExperienceRange(j.ExperienceLevel)
	if !ok {
		return weight / 2
	}
	years := c.YearsExperience
	switch {
	case years >= band.Min && years <= band.Max:
		return weight
	case years >= band.Min-experienceBelowSlack && years <= band.Max+experienceAboveSlack:
		return weight / 2
	default:
		return 0
	}
}

// InterpersonalMatch gives weight/3 per shared tag, capped at weight.
func InterpersonalMatch(c referrals.CandidateProfile, j referrals.JobProfile, weight int) int {
	jobTags := tagSet(j.InterpersonalSkills)
	if len(jobTags) == 0 {
		return weight / 2
	}
	shared := 0
	for tag := range tagSet(c.InterpersonalSkills) {
		if _, ok := jobTags[tag]; ok {
			shared++
		}
	}
	return min(shared*(weight/3), weight)
}

// TechnicalMatch scores the share of job skills the candidate covers,
// including enriched profile skills. Comparison is case-insensitive.
func TechnicalMatch(c referrals.CandidateProfile, j referrals.JobProfile, weight int) int {
	jobSkills := referrals.LowerSet(j.TechnicalSkills)
	if len(jobSkills) == 0 {
		return weight / 2
	}
	candidate := c.AllTechnicalSkills()
	if len(candidate) == 0 {
		return 0
	}
	shared := 0
	for _, s := range candidate {
		if _, ok := jobSkills[s]; ok {
			shared++
		}
	}
	return weight * shared / len(jobSkills)
}

// ReferralQuality rewards a written motivation, supporting material and a
// close working relationship, capped at weight.
func ReferralQuality(r referrals.Referral, weight int) int {
	score := 0
	motivation := r.ProfileMotivation
	switch {
	case utf8.RuneCountInString(motivation) > longMotivationChars:
		score += longMotivationPoints
	case motivation != "":
		score += shortMotivationPoints
	}
	if len(r.SupportingMaterials) > 0 {
		score += materialsPoints
	}
	switch r.RelationshipType {
	case referrals.RelationshipCompany, referrals.RelationshipHierarchical:
		score += strongRelationPoints
	case referrals.RelationshipAlumni:
		score += alumniRelationPoints
	}
	return min(score, weight)
}

// RuleAggregator runs the five rule evaluators with a fixed set of weights.
type RuleAggregator struct {
	weights Weights
}

// NewRuleAggregator validates w and returns an aggregator bound to a copy of it.
func NewRuleAggregator(w Weights) (*RuleAggregator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &RuleAggregator{weights: w}, nil
}

// Weights returns the aggregator's weights.
func (a *RuleAggregator) Weights() Weights { return a.weights }

// Evaluate fills the rule fields of a Breakdown.
func (a *RuleAggregator) Evaluate(b referrals.Bundle) Breakdown {
	w := a.weights
	out := Breakdown{
		ExpertiseMatch:     ExpertiseMatch(b.Candidate, b.Job, w.Expertise),
		ExperienceMatch:    ExperienceMatch(b.Candidate, b.Job, w.Experience),
		InterpersonalMatch: InterpersonalMatch(b.Candidate, b.Job, w.Interpersonal),
		TechnicalMatch:     TechnicalMatch(b.Candidate, b.Job, w.Technical),
		ReferralQuality:    ReferralQuality(b.Referral, w.ReferralQuality),
	}
	out.RuleScore = clampScore(out.ExpertiseMatch + out.ExperienceMatch + out.InterpersonalMatch + out.TechnicalMatch + out.ReferralQuality)
	return out
}

func tagSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func clampScore(v int) int {
	return max(0, min(MaxScore, v))
}
