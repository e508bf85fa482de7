package verify

import (
	"strings"
	"testing"

	"github.com/lucasnoah/mend/internal/patch"
	"github.com/lucasnoah/mend/internal/plan"
)

func step() plan.Item {
	return plan.NewItem("s1", "run tests")
}

func intPtr(n int) *int { return &n }

func TestVerify_NilResult(t *testing.T) {
	r := Verify(step(), nil, nil)
	if r.Passed {
		t.Error("expected nil result to fail")
	}
	if r.Reason != "invalid execution result: nil" {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
}

func TestVerify_FailedExecutionNeverPasses(t *testing.T) {
	res := &patch.ExecutionResult{
		OK:     false,
		Stdout: "10 passed",
		Error:  "patch failed to apply",
	}
	r := Verify(step(), res, nil)
	if r.Passed {
		t.Error("expected failed execution to fail even with passing output")
	}
	if !strings.Contains(r.Reason, "execution failed") {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
}

func TestVerify_PytestAllPassed(t *testing.T) {
	res := &patch.ExecutionResult{
		OK:     true,
		Stdout: "collected 12 items\n\n12 passed in 0.34s",
	}
	r := Verify(step(), res, nil)
	if !r.Passed {
		t.Errorf("expected pass, got reason %q", r.Reason)
	}
	if r.Details.Stats == nil || r.Details.Stats.Passed != 12 {
		t.Errorf("expected stats with 12 passed, got %+v", r.Details.Stats)
	}
}

func TestVerify_PytestFailuresWin(t *testing.T) {
	res := &patch.ExecutionResult{
		OK:     true,
		Stdout: "collected 12 items\n\n10 passed, 2 failed in 0.51s",
	}
	r := Verify(step(), res, nil)
	if r.Passed {
		t.Error("expected failing tests to fail verification")
	}
	if r.Details.Stats == nil || r.Details.Stats.Failed != 2 {
		t.Errorf("expected stats with 2 failed, got %+v", r.Details.Stats)
	}
}

func TestVerify_NoTestsRan(t *testing.T) {
	res := &patch.ExecutionResult{
		OK:     true,
		Stdout: "no tests ran in 0.01s",
	}
	r := Verify(step(), res, nil)
	if r.Passed {
		t.Error("expected no-tests-ran to fail")
	}
	if r.Reason != "no tests ran" {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
}

func TestVerify_CleanNonTestCommandPasses(t *testing.T) {
	res := &patch.ExecutionResult{
		OK:     true,
		Stdout: "formatted 3 files",
	}
	r := Verify(step(), res, nil)
	if !r.Passed {
		t.Errorf("expected clean command to pass, got reason %q", r.Reason)
	}
	if r.Reason != "command completed without errors" {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
}

func TestVerify_CriteriaExitCodeMismatch(t *testing.T) {
	res := &patch.ExecutionResult{OK: true, ExitCode: intPtr(0)}
	r := Verify(step(), res, &Criteria{ExitCode: intPtr(2)})
	if r.Passed {
		t.Error("expected exit code mismatch to fail")
	}
	if r.Reason != "exit code mismatch: expected 2, got 0" {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
}

func TestVerify_CriteriaAllSatisfied(t *testing.T) {
	res := &patch.ExecutionResult{
		OK:       true,
		Stdout:   "deployment complete",
		Stderr:   "warning: slow disk",
		ExitCode: intPtr(0),
	}
	c := &Criteria{
		ExitCode:       intPtr(0),
		StdoutPatterns: []string{"deployment complete"},
		StderrPatterns: []string{"slow disk"},
	}
	r := Verify(step(), res, c)
	if !r.Passed {
		t.Errorf("expected pass, got reason %q", r.Reason)
	}
	if len(r.Details.MatchedPatterns) != 3 {
		t.Errorf("expected 3 matched patterns, got %v", r.Details.MatchedPatterns)
	}
}

func TestVerify_CriteriaMissingStdoutPattern(t *testing.T) {
	res := &patch.ExecutionResult{OK: true, Stdout: "done"}
	r := Verify(step(), res, &Criteria{StdoutPatterns: []string{"deployment complete"}})
	if r.Passed {
		t.Error("expected missing pattern to fail")
	}
	if !strings.Contains(r.Reason, "stdout missing pattern") {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
}

func TestVerify_DefaultFailMarkerBeatsPassMarker(t *testing.T) {
	res := &patch.ExecutionResult{
		OK:     true,
		Stdout: "build ok\nerror: undefined symbol",
	}
	r := Verify(step(), res, nil)
	if r.Passed {
		t.Error("expected failure marker to win over pass marker")
	}
}

func TestVerify_TracebackFails(t *testing.T) {
	res := &patch.ExecutionResult{
		OK:     true,
		Stderr: "Traceback (most recent call last):\n  File \"app.py\", line 3",
	}
	r := Verify(step(), res, nil)
	if r.Passed {
		t.Error("expected traceback in output to fail")
	}
}

func TestVerifyTestResults_PassAndFail(t *testing.T) {
	pass := VerifyTestResults(&patch.ExecutionResult{OK: true, Stdout: "5 passed in 1.2s"})
	if !pass.Passed {
		t.Errorf("expected pass, got reason %q", pass.Reason)
	}

	fail := VerifyTestResults(&patch.ExecutionResult{OK: true, Stdout: "4 passed, 1 failed, 2 errors in 1.2s"})
	if fail.Passed {
		t.Error("expected failures to fail")
	}
	if fail.Details.Stats.Errors != 2 {
		t.Errorf("expected 2 errors, got %d", fail.Details.Stats.Errors)
	}
}

func TestVerifyTestResults_NilResult(t *testing.T) {
	if r := VerifyTestResults(nil); r.Passed {
		t.Error("expected nil result to fail")
	}
}
