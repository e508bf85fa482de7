package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mend/internal/analytics"
)

var analyticsSince string

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Query run performance analytics",
}

var analyticsActionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Pass and execution-failure rates per action kind",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := analytics.QueryActionStats(d, analyticsSince)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(w, "no step data")
			return nil
		}
		fmt.Fprintf(w, "%-12s %6s %6s %10s %10s\n", "ACTION", "TOTAL", "PASS", "PASS%", "EXECFAIL%")
		for _, s := range stats {
			fmt.Fprintf(w, "%-12s %6d %6d %9.1f%% %9.1f%%\n", s.Action, s.Total, s.Passed, s.PassRate, s.ExecFail)
		}
		return nil
	},
}

var analyticsDurationsCmd = &cobra.Command{
	Use:   "durations",
	Short: "Average and percentile step durations per action kind",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := analytics.QueryStepDurations(d, analyticsSince)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(w, "no step data")
			return nil
		}
		fmt.Fprintf(w, "%-12s %6s %8s %8s %8s\n", "ACTION", "COUNT", "AVG(s)", "P50(s)", "P95(s)")
		for _, s := range stats {
			fmt.Fprintf(w, "%-12s %6d %8.1f %8.1f %8.1f\n", s.Action, s.Count, s.Avg, s.P50, s.P95)
		}
		return nil
	},
}

var analyticsRiskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Pass rates per risk level",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := analytics.QueryRiskStats(d, analyticsSince)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(w, "no step data")
			return nil
		}
		fmt.Fprintf(w, "%-8s %6s %10s\n", "RISK", "TOTAL", "PASS%")
		for _, s := range stats {
			fmt.Fprintf(w, "%-8s %6d %9.1f%%\n", s.Risk, s.Total, s.PassRate)
		}
		return nil
	},
}

var analyticsThroughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Run outcomes per week",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := analytics.QueryRunThroughput(d, analyticsSince)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(w, "no run data")
			return nil
		}
		fmt.Fprintf(w, "%-10s %5s %5s %8s %7s %10s\n", "PERIOD", "RUNS", "FULL", "PARTIAL", "FAILED", "AVGPASS%")
		for _, s := range stats {
			fmt.Fprintf(w, "%-10s %5d %5d %8d %7d %9.1f%%\n", s.Period, s.Runs, s.FullPass, s.Partial, s.Failed, s.AvgPassRate)
		}
		return nil
	},
}

var analyticsRunCmd = &cobra.Command{
	Use:   "run [run-id]",
	Short: "Step timeline for one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		events, err := analytics.QueryRunDetail(d, args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintf(w, "no steps recorded for run %s\n", args[0])
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(w, "%s  %-10s  %s\n", e.Timestamp, e.Action, e.Title)
			fmt.Fprintf(w, "%20s%s\n", "", e.Detail)
		}
		return nil
	},
}

func init() {
	analyticsCmd.PersistentFlags().StringVar(&analyticsSince, "since", "", "only include data at or after this timestamp (YYYY-MM-DD)")

	analyticsCmd.AddCommand(analyticsActionsCmd)
	analyticsCmd.AddCommand(analyticsDurationsCmd)
	analyticsCmd.AddCommand(analyticsRiskCmd)
	analyticsCmd.AddCommand(analyticsThroughputCmd)
	analyticsCmd.AddCommand(analyticsRunCmd)
}
