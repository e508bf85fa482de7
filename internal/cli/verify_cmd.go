package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mend/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [output-file]",
	Short: "Classify test-runner output as pass or fail",
	Long: `Verify extracts test statistics (pytest-style counters) from the given
file, or stdin when no file is named, and reports the pass/fail verdict
the agent would reach for that output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("read output: %w", err)
		}

		w := cmd.OutOrStdout()
		stats := verify.ExtractStats(string(data))
		if !stats.HasMarkers() {
			fmt.Fprintln(w, "no test statistics found in output")
			return &ExitError{Code: 2}
		}

		fmt.Fprintf(w, "collected=%d passed=%d failed=%d errors=%d xfailed=%d warnings=%d\n",
			stats.Collected, stats.Passed, stats.Failed, stats.Errors, stats.XFailed, stats.Warnings)

		switch {
		case stats.NoTestsRan:
			fmt.Fprintln(w, "verdict: FAIL (no tests ran)")
			return &ExitError{Code: 2}
		case stats.Failed > 0 || stats.Errors > 0:
			fmt.Fprintln(w, "verdict: FAIL")
			return &ExitError{Code: 2}
		default:
			fmt.Fprintln(w, "verdict: PASS")
			return nil
		}
	},
}
