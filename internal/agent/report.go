package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lucasnoah/mend/internal/patch"
	"github.com/lucasnoah/mend/internal/plan"
)

// StepOutcome records what happened to one plan item.
type StepOutcome struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Action      plan.Action   `json:"action"`
	Risk        plan.Risk     `json:"risk"`
	ExecOK      bool          `json:"exec_ok"`
	Passed      bool          `json:"passed"`
	Reason      string        `json:"reason,omitempty"`
	OutputTail  string        `json:"output_tail,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Report is the final output of one agent run.
type Report struct {
	RunID         string             `json:"run_id"`
	Goal          string             `json:"goal"`
	Summary       string             `json:"summary"`
	Branch        string             `json:"branch,omitempty"`
	Steps         []StepOutcome      `json:"steps"`
	TotalSteps    int                `json:"total_steps"`
	PassedSteps   int                `json:"passed_steps"`
	PassRate      float64            `json:"pass_rate"`
	Suite         *patch.SuiteResult `json:"suite,omitempty"`
	TotalDuration time.Duration      `json:"total_duration"`
}

// summarize produces the human-readable summary line, listing the distinct
// action kinds that failed.
func summarize(steps []StepOutcome) string {
	if len(steps) == 0 {
		return "no remediation steps were generated: manual intervention required"
	}

	passed := 0
	failedActions := make(map[string]bool)
	for _, s := range steps {
		if s.Passed {
			passed++
		} else {
			failedActions[string(s.Action)] = true
		}
	}

	if passed == len(steps) {
		return fmt.Sprintf("all %d step(s) passed", len(steps))
	}

	kinds := make([]string, 0, len(failedActions))
	for k := range failedActions {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return fmt.Sprintf("%d/%d step(s) passed; failures in: %s",
		passed, len(steps), strings.Join(kinds, ", "))
}

// tail returns the last n characters of s, truncated not elided, so
// diagnosis stays possible without unbounded report growth.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
