// Package testrunner invokes external test processes and captures their
// output for verification.
package testrunner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// TimeoutMarker is written to stderr when a test process exceeds its
// deadline. The verifier and reports key off this string.
const TimeoutMarker = "test process timed out"

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec %s: %w", name, err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// Result captures one test invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
	TestsRun []string
}

// Runner executes test targets in a working directory.
type Runner struct {
	cmd     CommandRunner
	dir     string
	timeout time.Duration
}

// NewRunner creates a Runner for the given working directory. A zero
// timeout defaults to 5 minutes.
func NewRunner(cmd CommandRunner, dir string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Runner{cmd: cmd, dir: dir, timeout: timeout}
}

// Run executes the given test targets, or defaultDir when targets is empty.
// The command is chosen from the detected framework family of the targets.
// A timed-out process is killed and reported as a failure, never left
// hanging.
func (r *Runner) Run(targets []string, defaultDir string) *Result {
	run := targets
	if len(run) == 0 {
		if defaultDir == "" {
			defaultDir = "tests"
		}
		run = []string{defaultDir}
	}

	family := DetectFamily(run)
	name, args := family.Command(run)
	return r.invoke(name, args, run)
}

// invoke runs one test process to completion under the runner's timeout.
func (r *Runner) invoke(name string, args []string, targets []string) *Result {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, exitCode, err := r.cmd.Run(ctx, r.dir, name, args...)
	duration := time.Since(start)

	res := &Result{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: duration,
		TestsRun: targets,
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		res.Stderr = fmt.Sprintf("%s after %s", TimeoutMarker, r.timeout)
		return res
	}
	if err != nil {
		res.ExitCode = -1
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
	}
	return res
}
