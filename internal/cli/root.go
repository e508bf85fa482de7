package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "mend",
	Short: "mend — an autonomous code remediation agent",
	Long: `mend plans, applies, and verifies code fixes against a git repository.

Plans come from a fallback chain (rules, oracle, caches) that always yields
a plan. Each step is applied and tested transactionally; failures roll back.
Run history is stored in ~/.mend/ (SQLite for runs, JSONL for bug memory).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ExitError carries a specific process exit code out of a command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "file", "f", "", "path to config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
}
