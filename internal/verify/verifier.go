// Package verify classifies execution outcomes against success criteria.
// Everything here is a pure function of its inputs: malformed input degrades
// to a failed classification, never a panic or an error return.
package verify

import (
	"fmt"
	"strings"

	"github.com/lucasnoah/mend/internal/patch"
	"github.com/lucasnoah/mend/internal/plan"
)

// Criteria are caller-supplied conditions that override the default
// pass/fail heuristics. Each present criterion must individually match.
type Criteria struct {
	ExitCode       *int     `json:"exit_code,omitempty"`
	StdoutPatterns []string `json:"stdout_patterns,omitempty"`
	StderrPatterns []string `json:"stderr_patterns,omitempty"`
}

// Details carries the structured evidence behind a classification.
type Details struct {
	Stats           *TestStats `json:"stats,omitempty"`
	MatchedPatterns []string   `json:"matched_patterns,omitempty"`
	Excerpt         string     `json:"excerpt,omitempty"`
}

// Result is the classification of one execution outcome. Passed is always
// an explicit boolean.
type Result struct {
	Passed  bool    `json:"passed"`
	Reason  string  `json:"reason"`
	Details Details `json:"details"`
}

const excerptLen = 300

// Verify classifies an execution result for a plan step. Classification
// runs in priority order: invalid result, failed execution, test-statistics
// extraction, non-test command heuristic, explicit criteria, then the
// default pattern list. Execution that completed without any failure signal
// passes.
func Verify(step plan.Item, res *patch.ExecutionResult, criteria *Criteria) Result {
	_ = step // classification depends only on the result and criteria

	if res == nil {
		return Result{Passed: false, Reason: "invalid execution result: nil"}
	}

	if !res.OK {
		reason := "execution failed"
		if res.Error != "" {
			reason = fmt.Sprintf("execution failed: %s", res.Error)
		}
		return Result{
			Passed:  false,
			Reason:  reason,
			Details: Details{Excerpt: excerpt(res.Stdout + "\n" + res.Stderr)},
		}
	}

	combined := res.Stdout + "\n" + res.Stderr

	// Structured test statistics take precedence when any marker is present.
	stats := ExtractStats(combined)
	if stats.HasMarkers() {
		switch {
		case stats.NoTestsRan:
			return Result{Passed: false, Reason: "no tests ran", Details: Details{Stats: &stats}}
		case stats.Failed > 0:
			return Result{
				Passed:  false,
				Reason:  fmt.Sprintf("%d test(s) failed", stats.Failed),
				Details: Details{Stats: &stats, Excerpt: excerpt(combined)},
			}
		case stats.Passed > 0:
			return Result{
				Passed:  true,
				Reason:  fmt.Sprintf("%d test(s) passed", stats.Passed),
				Details: Details{Stats: &stats},
			}
		}
	}

	// No test markers at all: a clean non-test command counts as a pass,
	// unless the caller supplied explicit criteria to check instead.
	if criteria == nil {
		if !containsErrorMarker(combined) {
			return Result{Passed: true, Reason: "command completed without errors"}
		}
	} else {
		return verifyCriteria(res, criteria)
	}

	return verifyDefaultPatterns(combined)
}

// verifyCriteria checks each supplied criterion; any mismatch fails with a
// criterion-specific reason.
func verifyCriteria(res *patch.ExecutionResult, c *Criteria) Result {
	var matched []string

	if c.ExitCode != nil {
		got := -1
		if res.ExitCode != nil {
			got = *res.ExitCode
		}
		if got != *c.ExitCode {
			return Result{
				Passed: false,
				Reason: fmt.Sprintf("exit code mismatch: expected %d, got %d", *c.ExitCode, got),
			}
		}
		matched = append(matched, fmt.Sprintf("exit_code=%d", *c.ExitCode))
	}

	for _, p := range c.StdoutPatterns {
		if !strings.Contains(res.Stdout, p) {
			return Result{Passed: false, Reason: fmt.Sprintf("stdout missing pattern %q", p)}
		}
		matched = append(matched, "stdout:"+p)
	}
	for _, p := range c.StderrPatterns {
		if !strings.Contains(res.Stderr, p) {
			return Result{Passed: false, Reason: fmt.Sprintf("stderr missing pattern %q", p)}
		}
		matched = append(matched, "stderr:"+p)
	}

	return Result{
		Passed:  true,
		Reason:  "all success criteria satisfied",
		Details: Details{MatchedPatterns: matched},
	}
}

var defaultPassMarkers = []string{" passed", "ok", "success"}
var defaultFailMarkers = []string{" failed", "error:", "traceback"}

// verifyDefaultPatterns applies the fixed default pattern list. Fail
// markers win over pass markers; neither matching defaults to pass, since
// execution completed without a nonzero exit.
func verifyDefaultPatterns(combined string) Result {
	lower := strings.ToLower(combined)
	for _, m := range defaultFailMarkers {
		if strings.Contains(lower, m) {
			return Result{
				Passed:  false,
				Reason:  fmt.Sprintf("output matched failure pattern %q", strings.TrimSpace(m)),
				Details: Details{MatchedPatterns: []string{m}, Excerpt: excerpt(combined)},
			}
		}
	}
	for _, m := range defaultPassMarkers {
		if strings.Contains(lower, m) {
			return Result{
				Passed:  true,
				Reason:  fmt.Sprintf("output matched success pattern %q", strings.TrimSpace(m)),
				Details: Details{MatchedPatterns: []string{m}},
			}
		}
	}
	return Result{Passed: true, Reason: "execution completed"}
}

// VerifyTestResults performs only the test-statistics extraction, passing
// iff no tests failed or errored. The parsed stats are returned as detail.
func VerifyTestResults(res *patch.ExecutionResult) Result {
	if res == nil {
		return Result{Passed: false, Reason: "invalid execution result: nil"}
	}
	combined := res.Stdout + "\n" + res.Stderr
	stats := ExtractStats(combined)

	if stats.NoTestsRan || (!stats.HasMarkers() && !res.OK) {
		return Result{Passed: false, Reason: "no tests ran", Details: Details{Stats: &stats}}
	}
	if stats.Failed > 0 || stats.Errors > 0 {
		return Result{
			Passed:  false,
			Reason:  fmt.Sprintf("%d failed, %d errored", stats.Failed, stats.Errors),
			Details: Details{Stats: &stats, Excerpt: excerpt(combined)},
		}
	}
	return Result{
		Passed:  true,
		Reason:  fmt.Sprintf("%d test(s) passed", stats.Passed),
		Details: Details{Stats: &stats},
	}
}

var errorMarkers = []string{"error", "exception", "traceback"}

func containsErrorMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range errorMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= excerptLen {
		return s
	}
	return s[len(s)-excerptLen:]
}
