package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"referral-backend/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score every referral in the fixture and print the breakdowns",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundles, err := loadFixture(viper.GetString("fixture"))
		if err != nil {
			return err
		}
		svc, err := newService(cmd.Context(), bundles)
		if err != nil {
			return err
		}

		opts := scoring.Options{DisableSemantic: viper.GetBool("no-semantic")}
		out := make([]scoredReferral, 0, len(bundles))
		for _, b := range bundles {
			eval := svc.Evaluate(cmd.Context(), b, opts)
			out = append(out, scoredReferral{ReferralID: b.Referral.ID, Evaluation: eval})
		}
		return printJSON(cmd, out)
	},
}

type scoredReferral struct {
	ReferralID string `json:"referralId"`
	scoring.Evaluation
}
