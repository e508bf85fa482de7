// Package agent runs the remediation loop: plan, apply, verify, aggregate.
// The loop is strictly sequential; steps may depend on the file changes and
// commits of earlier steps, so ordering is a correctness requirement.
package agent

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/mend/internal/bugmemory"
	"github.com/lucasnoah/mend/internal/patch"
	"github.com/lucasnoah/mend/internal/plan"
	"github.com/lucasnoah/mend/internal/verify"
)

// PlanSource provides the heuristic plan for the loop.
type PlanSource interface {
	BuildPlan(maxItems int) []plan.Item
}

// StepExecutor applies one plan item and runs its verification command.
type StepExecutor interface {
	ApplyPatchAndTest(item plan.Item) *patch.ExecutionResult
}

// Lifecycle wraps a run in the transactional protocol: a feature branch at
// the start, a commit per passed step, a hard rollback per failed step, and
// a full-suite rerun once every step has passed.
type Lifecycle interface {
	CreateFeatureBranch(name string) error
	Commit(message string) error
	Rollback() error
	RunTestSuite() *patch.SuiteResult
}

// FailureLog feeds observed failures back into future planning.
type FailureLog interface {
	Append(r bugmemory.Record) error
}

// Recorder persists run history. Implementations are best effort; the loop
// ignores recording errors.
type Recorder interface {
	LogRun(runID, goal string, totalSteps, passedSteps int, passRate float64, durationMs int64, summary string) error
	LogStep(runID, stepID, title, action, risk string, execOK, passed bool, reason string, durationMs int64, outputTail string) error
}

const defaultOutputTail = 500

// Controller orchestrates one agent run.
type Controller struct {
	planner    PlanSource
	executor   StepExecutor
	lifecycle  Lifecycle  // may be nil
	failures   FailureLog // may be nil
	history    Recorder   // may be nil
	progress   io.Writer  // may be nil
	outputTail int
}

// NewController creates a Controller. history may be nil to skip run
// recording.
func NewController(planner PlanSource, executor StepExecutor, history Recorder) *Controller {
	return &Controller{
		planner:    planner,
		executor:   executor,
		history:    history,
		outputTail: defaultOutputTail,
	}
}

// SetProgress sets a writer for live progress output (e.g. os.Stderr).
func (c *Controller) SetProgress(w io.Writer) {
	c.progress = w
}

// SetLifecycle enables the transactional branch/commit/rollback/suite
// protocol around the run.
func (c *Controller) SetLifecycle(l Lifecycle) {
	c.lifecycle = l
}

// SetFailureLog enables recording failed steps into bug memory.
func (c *Controller) SetFailureLog(f FailureLog) {
	c.failures = f
}

func (c *Controller) logf(format string, args ...any) {
	if c.progress != nil {
		fmt.Fprintf(c.progress, "  → "+format+"\n", args...)
	}
}

// RunAgent executes up to maxSteps remediation steps for the goal and
// returns the aggregate report. Steps run in order and the loop continues
// past failures: a failed high-risk step is logged as a warning but never
// halts the remaining steps. Per-step panics become failed step records.
func (c *Controller) RunAgent(goal string, maxSteps int) *Report {
	start := time.Now()
	report := &Report{
		RunID: uuid.NewString(),
		Goal:  goal,
	}

	c.logf("planning up to %d step(s) for: %s", maxSteps, goal)
	items := c.planner.BuildPlan(maxSteps)
	if len(items) == 0 {
		report.Summary = summarize(nil)
		report.TotalDuration = time.Since(start)
		c.record(report)
		return report
	}

	branched := false
	if c.lifecycle != nil {
		branch := "mend/run-" + report.RunID[:8]
		if err := c.lifecycle.CreateFeatureBranch(branch); err != nil {
			c.logf("warning: could not create branch, running without commits: %v", err)
		} else {
			branched = true
			report.Branch = branch
			c.logf("created branch %s", branch)
		}
	}

	for i, item := range items {
		c.logf("step %d/%d: %s [%s, risk=%s]", i+1, len(items), item.Title, item.Action, item.Risk)
		outcome := c.runStep(item)
		report.Steps = append(report.Steps, outcome)

		if outcome.Passed {
			report.PassedSteps++
			c.logf("step %d passed (%s)", i+1, outcome.Duration.Round(time.Millisecond))
			if branched {
				if err := c.lifecycle.Commit("mend: " + item.Title); err != nil {
					c.logf("warning: commit for step %d failed: %v", i+1, err)
				}
			}
			continue
		}

		if item.Risk == plan.RiskHigh {
			c.logf("warning: high-risk step %d failed: %s", i+1, outcome.Reason)
		} else {
			c.logf("step %d failed: %s", i+1, outcome.Reason)
		}
		if branched {
			if err := c.lifecycle.Rollback(); err != nil {
				c.logf("warning: rollback for step %d failed: %v", i+1, err)
			} else {
				c.logf("rolled back step %d", i+1)
			}
		}
		c.recordFailure(item, outcome.Reason)
	}

	report.TotalSteps = len(report.Steps)
	if report.TotalSteps > 0 {
		report.PassRate = float64(report.PassedSteps) / float64(report.TotalSteps)
	}

	if c.lifecycle != nil && report.TotalSteps > 0 && report.PassedSteps == report.TotalSteps {
		c.logf("all steps passed, rerunning full test suite")
		suite := c.lifecycle.RunTestSuite()
		report.Suite = suite
		if suite.Failed > 0 || suite.ExitCode != 0 {
			c.logf("warning: full suite reports %d failure(s)", suite.Failed)
		} else {
			c.logf("full suite: %d passed", suite.Passed)
		}
	}

	report.Summary = summarize(report.Steps)
	report.TotalDuration = time.Since(start)

	c.record(report)
	return report
}

// runStep executes and verifies one item, converting any panic into a
// failed outcome so a single bad step never aborts the run.
func (c *Controller) runStep(item plan.Item) (outcome StepOutcome) {
	stepStart := time.Now()
	outcome = StepOutcome{
		ID:          item.ID,
		Description: item.Title,
		Action:      item.Action,
		Risk:        item.Risk,
	}

	defer func() {
		if r := recover(); r != nil {
			outcome.ExecOK = false
			outcome.Passed = false
			outcome.Reason = fmt.Sprintf("step aborted: %v", r)
			outcome.Duration = time.Since(stepStart)
		}
	}()

	res := c.executor.ApplyPatchAndTest(item)
	outcome.ExecOK = res != nil && res.OK

	vr := verify.Verify(item, res, nil)
	outcome.Passed = outcome.ExecOK && vr.Passed
	outcome.Reason = vr.Reason
	if res != nil {
		outcome.OutputTail = tail(res.Stdout+"\n"+res.Stderr, c.outputTail)
	}
	outcome.Duration = time.Since(stepStart)
	return outcome
}

// recordFailure appends a failed step to bug memory so later plans can
// prioritize the file. Best effort.
func (c *Controller) recordFailure(item plan.Item, reason string) {
	if c.failures == nil {
		return
	}
	file := item.Target
	if file == "" && len(item.TestsToRun) > 0 {
		file = item.TestsToRun[0]
	}
	if file == "" {
		file = item.Title
	}
	_ = c.failures.Append(bugmemory.Record{File: file, Message: reason})
}

// record persists the run best-effort.
func (c *Controller) record(r *Report) {
	if c.history == nil {
		return
	}
	_ = c.history.LogRun(r.RunID, r.Goal, r.TotalSteps, r.PassedSteps, r.PassRate, r.TotalDuration.Milliseconds(), r.Summary)
	for _, s := range r.Steps {
		_ = c.history.LogStep(r.RunID, s.ID, s.Description, string(s.Action), string(s.Risk), s.ExecOK, s.Passed, s.Reason, s.Duration.Milliseconds(), s.OutputTail)
	}
}

// ExitCode maps a report onto the CLI exit convention: 0 full pass,
// 1 partial, 2 all failed.
func (r *Report) ExitCode() int {
	switch {
	case r.TotalSteps == 0:
		return 2
	case r.PassedSteps == r.TotalSteps:
		return 0
	case r.PassedSteps == 0:
		return 2
	default:
		return 1
	}
}
