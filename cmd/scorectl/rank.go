package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"referral-backend/internal/referrals"
	"referral-backend/internal/scoring"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score a job's referrals from the fixture and print them best first",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundles, err := loadFixture(viper.GetString("fixture"))
		if err != nil {
			return err
		}
		if len(bundles) == 0 {
			return fmt.Errorf("fixture has no referrals")
		}
		svc, err := newService(cmd.Context(), bundles)
		if err != nil {
			return err
		}

		job := bundles[0].Job
		opts := scoring.Options{DisableSemantic: viper.GetBool("no-semantic")}
		items, err := svc.ScoreJob(cmd.Context(), job.OrganizationID, job.ID, referrals.Status(""), opts)
		if err != nil {
			return err
		}

		rows := make([]rankRow, 0, len(items))
		for i, it := range items {
			rows = append(rows, rankRow{
				Rank:       i + 1,
				ReferralID: it.Referral.ID,
				FinalScore: it.Score.Breakdown.FinalScore,
				Grade:      string(it.Score.Breakdown.Grade),
				RuleScore:  it.Score.Breakdown.RuleScore,
				Semantic:   it.Score.Breakdown.SemanticScore,
				Status:     string(it.Score.SemanticStatus),
			})
		}
		return printJSON(cmd, rows)
	},
}

type rankRow struct {
	Rank       int    `json:"rank"`
	ReferralID string `json:"referralId"`
	FinalScore int    `json:"finalScore"`
	Grade      string `json:"grade"`
	RuleScore  int    `json:"ruleScore"`
	Semantic   int    `json:"semanticScore"`
	Status     string `json:"semanticStatus"`
}
