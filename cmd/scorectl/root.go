package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"referral-backend/internal/bootstrap"
	"referral-backend/internal/referrals"
	"referral-backend/internal/scoring"
	"referral-backend/internal/semantic"
	"referral-backend/internal/shared/config"
	"referral-backend/internal/shared/telemetry"
)

const app = "scorectl"

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "scorectl scores candidate referrals against job openings from JSON fixtures",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("fixture", "f", "", "path to a JSON fixture")
	rootCmd.PersistentFlags().Bool("no-semantic", false, "skip the LLM call and use the rule score in its place")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider override (openai, gemini, none)")
	rootCmd.PersistentFlags().String("model", "", "LLM model override")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")

	for _, name := range []string{"fixture", "no-semantic", "provider", "model", "debug"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	rootCmd.AddCommand(scoreCmd, rankCmd)
}

// newService builds an in-memory scoring service around the configured LLM.
func newService(ctx context.Context, bundles []referrals.Bundle) (*scoring.Service, error) {
	cfg := config.Load()
	if p := strings.TrimSpace(viper.GetString("provider")); p != "" {
		cfg.LLMProvider = p
	}
	if m := strings.TrimSpace(viper.GetString("model")); m != "" {
		cfg.LLMModel = m
	}

	level := "warn"
	if viper.GetBool("debug") {
		level = "debug"
	}
	logger := telemetry.New(level, "console")

	client, err := bootstrap.BuildLLM(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	evaluator := semantic.NewEvaluator(client, logger)
	evaluator.Timeout = cfg.LLMTimeout

	source := referrals.NewMemoryRepo()
	for _, b := range bundles {
		source.PutBundle(b)
	}
	svc := scoring.NewService(source, scoring.NewMemoryRepo(), evaluator, logger.With(zap.String("app", app)))
	svc.Concurrency = cfg.ScoringConcurrency
	return svc, nil
}

// loadFixture reads either a single bundle object or an array of bundles.
func loadFixture(path string) ([]referrals.Bundle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("--fixture is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var bundles []referrals.Bundle
		if err := json.Unmarshal(raw, &bundles); err != nil {
			return nil, fmt.Errorf("decode fixture: %w", err)
		}
		return bundles, nil
	}
	var b referrals.Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return []referrals.Bundle{b}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
