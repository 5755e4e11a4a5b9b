package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-backend/internal/referrals"
)

func TestExpertiseMatch(t *testing.T) {
	tests := []struct {
		name string
		cand referrals.ExpertiseDomain
		job  referrals.ExpertiseDomain
		want int
	}{
		{name: "equal", cand: referrals.DomainFinance, job: referrals.DomainFinance, want: 30},
		{name: "different", cand: referrals.DomainFinance, job: referrals.DomainHR, want: 0},
		{name: "both empty", cand: "", job: "", want: 0},
		{name: "job empty", cand: referrals.DomainHR, job: "", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpertiseMatch(
				referrals.CandidateProfile{ExpertiseDomain: tt.cand},
				referrals.JobProfile{ExpertiseDomain: tt.job},
				30,
			)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExperienceMatch(t *testing.T) {
	tests := []struct {
		name  string
		level referrals.ExperienceLevel
		years int
		want  int
	}{
		{name: "no tier", level: "", years: 3, want: 10},
		{name: "unknown tier", level: "INTERN", years: 3, want: 10},
		{name: "lower bound", level: referrals.LevelTopManagement, years: 12, want: 20},
		{name: "upper bound", level: referrals.LevelTopManagement, years: 18, want: 20},
		{name: "two below", level: referrals.LevelTopManagement, years: 10, want: 10},
		{name: "three below", level: referrals.LevelTopManagement, years: 9, want: 0},
		{name: "five below", level: referrals.LevelTopManagement, years: 7, want: 0},
		{name: "three above", level: referrals.LevelTopManagement, years: 21, want: 10},
		{name: "four above", level: referrals.LevelTopManagement, years: 22, want: 0},
		{name: "c-level inside", level: referrals.LevelCLevel, years: 20, want: 20},
		{name: "board near", level: referrals.LevelBoard, years: 23, want: 10},
		{name: "board far above", level: referrals.LevelBoard, years: 54, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExperienceMatch(
				referrals.CandidateProfile{YearsExperience: tt.years},
				referrals.JobProfile{ExperienceLevel: tt.level},
				20,
			)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpersonalMatch(t *testing.T) {
	job := []string{"ADAPTABILITY", "EMOTIONAL_INTELLIGENCE", "INFLUENCE_PERSUASION"}
	tests := []struct {
		name string
		cand []string
		job  []string
		want int
	}{
		{name: "job lists none", cand: []string{"ADAPTABILITY"}, job: nil, want: 7},
		{name: "zero shared", cand: []string{"DELEGATION_EMPOWERMENT"}, job: job, want: 0},
		{name: "one shared", cand: []string{"ADAPTABILITY"}, job: job, want: 5},
		{name: "three shared", cand: job, job: job, want: 15},
		{name: "duplicates count once", cand: []string{"ADAPTABILITY", "ADAPTABILITY"}, job: job, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterpersonalMatch(
				referrals.CandidateProfile{InterpersonalSkills: tt.cand},
				referrals.JobProfile{InterpersonalSkills: tt.job},
				15,
			)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTechnicalMatch(t *testing.T) {
	tests := []struct {
		name     string
		cand     []string
		enriched []string
		job      []string
		want     int
	}{
		{name: "job lists none", cand: []string{"go"}, job: nil, want: 7},
		{name: "candidate has none", cand: nil, job: []string{"go"}, want: 0},
		{name: "full coverage", cand: []string{"Go", "SQL"}, job: []string{"go", "sql"}, want: 15},
		{name: "one of three floors", cand: []string{"go"}, job: []string{"go", "sql", "k8s"}, want: 5},
		{name: "two of three floors", cand: []string{"go", "sql"}, job: []string{"go", "sql", "k8s"}, want: 10},
		{name: "enriched fills gap", cand: []string{"go"}, enriched: []string{"SQL"}, job: []string{"go", "sql"}, want: 15},
		{name: "enriched only", cand: nil, enriched: []string{"Go"}, job: []string{"go", "rust"}, want: 7},
		{name: "no overlap", cand: []string{"java"}, job: []string{"go"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := referrals.CandidateProfile{TechnicalSkills: tt.cand}
			if tt.enriched != nil {
				c.Enriched = &referrals.EnrichedProfile{Skills: tt.enriched}
			}
			got := TechnicalMatch(c, referrals.JobProfile{TechnicalSkills: tt.job}, 15)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTechnicalMatchNeverExceedsWeight(t *testing.T) {
	skills := []string{"a", "b", "c", "d", "e", "f", "g"}
	for jobN := 1; jobN <= len(skills); jobN++ {
		for candN := 0; candN <= len(skills); candN++ {
			got := TechnicalMatch(
				referrals.CandidateProfile{TechnicalSkills: skills[:candN]},
				referrals.JobProfile{TechnicalSkills: skills[:jobN]},
				15,
			)
			require.GreaterOrEqual(t, got, 0)
			require.LessOrEqual(t, got, 15)
		}
	}
}

func TestReferralQuality(t *testing.T) {
	long := strings.Repeat("x", 51)
	exact := strings.Repeat("x", 50)
	tests := []struct {
		name string
		ref  referrals.Referral
		want int
	}{
		{name: "empty other", ref: referrals.Referral{RelationshipType: referrals.RelationshipOther}, want: 0},
		{name: "short motivation", ref: referrals.Referral{ProfileMotivation: "great fit"}, want: 4},
		{name: "whitespace motivation counts as present", ref: referrals.Referral{ProfileMotivation: "   "}, want: 4},
		{name: "fifty chars is short", ref: referrals.Referral{ProfileMotivation: exact}, want: 4},
		{name: "long motivation", ref: referrals.Referral{ProfileMotivation: long}, want: 8},
		{name: "materials", ref: referrals.Referral{SupportingMaterials: []string{"x"}}, want: 4},
		{name: "alumni", ref: referrals.Referral{RelationshipType: referrals.RelationshipAlumni}, want: 4},
		{name: "hierarchical", ref: referrals.Referral{RelationshipType: referrals.RelationshipHierarchical}, want: 8},
		{
			name: "everything",
			ref: referrals.Referral{
				ProfileMotivation:   long,
				SupportingMaterials: []string{"talk", "article"},
				RelationshipType:    referrals.RelationshipCompany,
			},
			want: 20,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReferralQuality(tt.ref, 20))
		})
	}
}

func TestReferralQualityCapsAtWeight(t *testing.T) {
	ref := referrals.Referral{
		ProfileMotivation:   strings.Repeat("y", 80),
		SupportingMaterials: []string{"a"},
		RelationshipType:    referrals.RelationshipCompany,
	}
	assert.Equal(t, 10, ReferralQuality(ref, 10))
}

func TestRuleAggregatorBoundsAcrossGrid(t *testing.T) {
	agg, err := NewRuleAggregator(DefaultWeights())
	require.NoError(t, err)

	levels := []referrals.ExperienceLevel{"", referrals.LevelTopManagement, referrals.LevelCLevel, referrals.LevelBoard}
	rels := []referrals.RelationshipType{referrals.RelationshipCompany, referrals.RelationshipAlumni, referrals.RelationshipOther}
	for _, level := range levels {
		for years := 0; years <= 60; years += 3 {
			for _, rel := range rels {
				b := referrals.Bundle{
					Referral: referrals.Referral{RelationshipType: rel, ProfileMotivation: strings.Repeat("m", years), SupportingMaterials: []string{"x"}},
					Candidate: referrals.CandidateProfile{
						YearsExperience:     years,
						ExpertiseDomain:     referrals.DomainFinance,
						InterpersonalSkills: []string{"ADAPTABILITY", "EMOTIONAL_INTELLIGENCE", "INFLUENCE_PERSUASION"},
						TechnicalSkills:     []string{"ifrs"},
					},
					Job: referrals.JobProfile{
						ExperienceLevel:     level,
						ExpertiseDomain:     referrals.DomainFinance,
						InterpersonalSkills: []string{"ADAPTABILITY", "EMOTIONAL_INTELLIGENCE", "INFLUENCE_PERSUASION"},
						TechnicalSkills:     []string{"ifrs", "consolidation"},
					},
				}
				out := agg.Evaluate(b)
				assert.Contains(t, []int{0, 30}, out.ExpertiseMatch)
				assert.True(t, out.ExperienceMatch >= 0 && out.ExperienceMatch <= 20)
				assert.True(t, out.InterpersonalMatch >= 0 && out.InterpersonalMatch <= 15)
				assert.True(t, out.TechnicalMatch >= 0 && out.TechnicalMatch <= 15)
				assert.True(t, out.ReferralQuality >= 0 && out.ReferralQuality <= 20)
				assert.True(t, out.RuleScore >= 0 && out.RuleScore <= 100)
				assert.Equal(t, out.ExpertiseMatch+out.ExperienceMatch+out.InterpersonalMatch+out.TechnicalMatch+out.ReferralQuality, out.RuleScore)
			}
		}
	}
}

func TestNewRuleAggregatorRejectsBadWeights(t *testing.T) {
	w := DefaultWeights()
	w.Expertise = 40
	_, err := NewRuleAggregator(w)
	require.ErrorIs(t, err, ErrInvalidWeights)

	w = DefaultWeights()
	w.SemanticShare = 0.7
	_, err = NewRuleAggregator(w)
	require.ErrorIs(t, err, ErrInvalidWeights)

	w = DefaultWeights()
	w.Technical = -5
	w.Expertise = 50
	_, err = NewRuleAggregator(w)
	require.ErrorIs(t, err, ErrInvalidWeights)
}

func TestCustomWeightsDoNotLeak(t *testing.T) {
	custom := Weights{Expertise: 40, Experience: 20, Interpersonal: 15, Technical: 15, ReferralQuality: 10, RuleShare: 1, SemanticShare: 0}
	agg, err := NewRuleAggregator(custom)
	require.NoError(t, err)

	b := referrals.Bundle{
		Candidate: referrals.CandidateProfile{ExpertiseDomain: referrals.DomainHR},
		Job:       referrals.JobProfile{ExpertiseDomain: referrals.DomainHR},
	}
	assert.Equal(t, 40, agg.Evaluate(b).ExpertiseMatch)
	assert.Equal(t, 30, DefaultWeights().Expertise)
}
