package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/easeaico/tryangel/internal/config"
	"github.com/easeaico/tryangel/internal/learner"
	"github.com/easeaico/tryangel/internal/scheduler"
)

var sweepThreshold float64

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate dropout risk once and print the users at risk",
	Long: `Evaluate the dropout risk of every stored profile without modifying it and
print the users at or above the threshold as JSON.

Examples:
  tryangel sweep --threshold 0.5`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().Float64Var(&sweepThreshold, "threshold", -1, "risk threshold (defaults to RISK_ALERT_THRESHOLD)")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if sweepThreshold < 0 {
		sweepThreshold = cfg.RiskAlertThreshold
	}

	repo, closeRepo, err := openRepository(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	users, err := scheduler.NewRiskSweeper(learner.NewService(repo), sweepThreshold).RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []scheduler.AtRiskUser{}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(users)
}
