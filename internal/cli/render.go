package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/lucasnoah/mend/internal/agent"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold)
	failLabel = color.New(color.FgRed, color.Bold)
	warnLabel = color.New(color.FgYellow, color.Bold)
	faint     = color.New(color.Faint)
)

// renderReport writes a human-readable run report. Color is disabled when
// the writer is not a terminal.
func renderReport(w io.Writer, r *agent.Report) {
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		color.NoColor = true
	}

	fmt.Fprintf(w, "Run %s\n", r.RunID)
	fmt.Fprintf(w, "Goal: %s\n", r.Goal)
	if r.Branch != "" {
		fmt.Fprintf(w, "Branch: %s\n", r.Branch)
	}
	fmt.Fprintln(w)

	for i, s := range r.Steps {
		label := passLabel.Sprint("PASS")
		if !s.Passed {
			label = failLabel.Sprint("FAIL")
			if s.Risk == "high" {
				label = warnLabel.Sprint("FAIL!")
			}
		}
		fmt.Fprintf(w, "  %d. [%s] %s (%s, risk=%s, %s)\n",
			i+1, label, s.Description, s.Action, s.Risk, s.Duration.Round(time.Millisecond))
		if !s.Passed && s.Reason != "" {
			fmt.Fprintf(w, "     %s\n", faint.Sprint(s.Reason))
		}
	}
	if len(r.Steps) > 0 {
		fmt.Fprintln(w)
	}

	if r.Suite != nil {
		suiteLabel := passLabel.Sprint("PASS")
		if r.Suite.Failed > 0 || r.Suite.ExitCode != 0 {
			suiteLabel = failLabel.Sprint("FAIL")
		}
		fmt.Fprintf(w, "Full suite: [%s] %d passed, %d failed (%s)\n",
			suiteLabel, r.Suite.Passed, r.Suite.Failed, r.Suite.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "%s\n", r.Summary)
	fmt.Fprintf(w, "Pass rate: %.0f%% (%d/%d) in %s\n",
		r.PassRate*100, r.PassedSteps, r.TotalSteps, r.TotalDuration.Round(time.Millisecond))
}
