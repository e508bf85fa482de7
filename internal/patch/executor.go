// Package patch applies remediation steps to a workspace and runs their
// verification commands. All operations act on a single workspace, which may
// be a sandbox copy of the caller's repository.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasnoah/mend/internal/plan"
	"github.com/lucasnoah/mend/internal/testrunner"
	"github.com/lucasnoah/mend/internal/workspace"
)

// ExecutionResult is the outcome of applying one plan item. OK is false
// whenever the patch fails to apply or the verification command cannot be
// started; absence of OK is never success.
type ExecutionResult struct {
	OK       bool     `json:"ok"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	ExitCode *int     `json:"exit_code,omitempty"`
	Error    string   `json:"error,omitempty"`
	TestsRun []string `json:"tests_run,omitempty"`
}

// SuiteResult is the outcome of a full-suite rerun.
type SuiteResult struct {
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output"`
}

// Config holds executor settings.
type Config struct {
	SandboxDir     string // when set, operations run in a copy of the repo
	DefaultTestDir string // test target when a step names none
	PR             PRConfig
}

// Executor applies patches and runs tests against one workspace. A single
// Executor owns its workspace for the duration of one controller run;
// concurrent runs over the same workspace must be serialized by the caller.
type Executor struct {
	ws    *workspace.Workspace
	tests *testrunner.Runner
	cfg   Config
	pr    *prClient
}

// NewExecutor creates an Executor over repoDir. When cfg.SandboxDir is set
// the repository is copied there first and all operations are redirected
// into the copy.
func NewExecutor(git workspace.GitRunner, cmd testrunner.CommandRunner, repoDir string, testTimeout time.Duration, cfg Config) (*Executor, error) {
	ws, err := workspace.New(git, repoDir)
	if err != nil {
		return nil, err
	}

	if cfg.SandboxDir != "" {
		ws, err = ws.PrepareSandbox(cfg.SandboxDir)
		if err != nil {
			return nil, fmt.Errorf("prepare sandbox: %w", err)
		}
	}

	return &Executor{
		ws:    ws,
		tests: testrunner.NewRunner(cmd, ws.Dir(), testTimeout),
		cfg:   cfg,
		pr:    newPRClient(cfg.PR),
	}, nil
}

// Workspace returns the workspace the executor operates on (the sandbox
// copy when one is configured).
func (e *Executor) Workspace() *workspace.Workspace {
	return e.ws
}

// ApplyPatchAndTest applies the item's patch (if any) and runs its tests.
// A patch that fails to apply short-circuits: no test is attempted and the
// result carries the tool's stderr.
func (e *Executor) ApplyPatchAndTest(item plan.Item) *ExecutionResult {
	if item.Patch != "" {
		if err := ValidateDiff(item.Patch); err != nil {
			return &ExecutionResult{
				OK:     false,
				Stderr: err.Error(),
				Error:  "patch rejected before apply",
			}
		}
		if out, err := e.applyPatch(item.Patch); err != nil {
			return &ExecutionResult{
				OK:     false,
				Stderr: out,
				Error:  fmt.Sprintf("patch failed to apply: %v", err),
			}
		}
	}

	res := e.tests.Run(item.TestsToRun, e.cfg.DefaultTestDir)
	code := res.ExitCode
	out := &ExecutionResult{
		OK:       res.ExitCode == 0 && !res.TimedOut,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: &code,
		TestsRun: res.TestsRun,
	}
	if res.TimedOut {
		out.Error = testrunner.TimeoutMarker
	}
	return out
}

// applyPatch writes the diff to a temp file and applies it with staging.
func (e *Executor) applyPatch(diff string) (string, error) {
	f, err := os.CreateTemp("", "mend-patch-*.diff")
	if err != nil {
		return "", fmt.Errorf("write patch file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(diff); err != nil {
		f.Close()
		return "", fmt.Errorf("write patch file: %w", err)
	}
	f.Close()

	return e.ws.Git("apply", "--index", path)
}

// CreateFeatureBranch creates and checks out a new branch.
func (e *Executor) CreateFeatureBranch(name string) error {
	if name == "" {
		return fmt.Errorf("branch name is empty")
	}
	if _, err := e.ws.Git("checkout", "-b", name); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// Commit stages everything and commits with the given message.
func (e *Executor) Commit(message string) error {
	if _, err := e.ws.Git("add", "-A"); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	if _, err := e.ws.Git("commit", "-m", message); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback hard-resets the workspace to the last commit, discarding the
// failed attempt. Destructive; the sandbox exists to contain this.
func (e *Executor) Rollback() error {
	if _, err := e.ws.Git("reset", "--hard"); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// RunTestSuite reruns the full suite after all steps pass, returning parsed
// pass/fail counts and the wall duration.
func (e *Executor) RunTestSuite() *SuiteResult {
	res := e.tests.Run(nil, e.cfg.DefaultTestDir)
	combined := res.Stdout + "\n" + res.Stderr
	stats := ParseSuiteCounts(combined)
	return &SuiteResult{
		Passed:   stats.Passed,
		Failed:   stats.Failed,
		ExitCode: res.ExitCode,
		Duration: res.Duration,
		Output:   combined,
	}
}

// PushBranch pushes the given branch to origin.
func (e *Executor) PushBranch(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name is empty")
	}
	if _, err := e.ws.Git("push", "-u", "origin", branch); err != nil {
		return fmt.Errorf("push branch: %w", err)
	}
	return nil
}

// CreatePullRequest opens a PR for the current branch. Best effort: unless
// PR creation is enabled in config this is a no-op with Attempted=false.
func (e *Executor) CreatePullRequest(opts PROpts) *PRResult {
	return e.pr.Create(e.ws, opts)
}

// DefaultSandboxDir returns a path under the system temp dir for sandboxing
// the named repository.
func DefaultSandboxDir(repoDir string) string {
	return filepath.Join(os.TempDir(), "mend-sandbox-"+filepath.Base(repoDir))
}
