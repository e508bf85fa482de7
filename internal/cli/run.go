package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mend/internal/agent"
	"github.com/lucasnoah/mend/internal/config"
	"github.com/lucasnoah/mend/internal/oracle"
	"github.com/lucasnoah/mend/internal/patch"
	"github.com/lucasnoah/mend/internal/planner"
	"github.com/lucasnoah/mend/internal/testrunner"
	"github.com/lucasnoah/mend/internal/workspace"
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Run the remediation agent against a repository",
	Long: `Run plans remediation steps for the goal, applies each step to the
repository, runs its tests, and reports per-step outcomes.

Exit codes: 0 all steps passed, 1 partial pass, 2 no steps passed or no
steps were generated, 3 setup or internal error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := "fix failing tests"
		if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
			goal = args[0]
		}

		repoDir, _ := cmd.Flags().GetString("repo")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")
		sandbox, _ := cmd.Flags().GetBool("sandbox")
		jsonOut, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		cfg, err := loadConfig()
		if err != nil {
			return &ExitError{Code: 3, Err: err}
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			return &ExitError{Code: 3, Err: fmt.Errorf("invalid config: %s", errs[0])}
		}
		if repoDir == "" {
			repoDir = cfg.Executor.RepoDir
		}
		if maxSteps <= 0 {
			maxSteps = cfg.Agent.MaxSteps
		}

		ctrl, cleanup, err := buildController(cfg, repoDir, sandbox, noHistory)
		if err != nil {
			return &ExitError{Code: 3, Err: err}
		}
		defer cleanup()

		if !quiet && !jsonOut {
			ctrl.SetProgress(cmd.ErrOrStderr())
		}

		report := ctrl.RunAgent(goal, maxSteps)

		if jsonOut {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return &ExitError{Code: 3, Err: err}
			}
		} else {
			renderReport(cmd.OutOrStdout(), report)
		}

		if code := report.ExitCode(); code != 0 {
			return &ExitError{Code: code}
		}
		return nil
	},
}

// buildController wires the planner, executor, and run history into a
// Controller for one run.
func buildController(cfg *config.Config, repoDir string, sandbox, noHistory bool) (*agent.Controller, func(), error) {
	mem, err := openMemory(cfg)
	if err != nil {
		return nil, nil, err
	}

	git := &workspace.ExecGit{}
	ws, err := workspace.New(git, repoDir)
	if err != nil {
		return nil, nil, err
	}

	var provider oracle.Provider
	if os.Getenv("OPENAI_API_KEY") != "" {
		p, err := oracle.NewOpenAI(oracle.OpenAIConfig{
			DeepModel: cfg.Planner.DeepModel,
			FastModel: cfg.Planner.FastModel,
			BaseURL:   cfg.Planner.BaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		provider = p
	}

	pl := planner.New(provider, mem, ws,
		planner.WithOracleTimeout(cfg.OracleTimeout()),
		planner.WithCacheTTL(cfg.CacheTTL()),
	)

	execCfg := patch.Config{
		DefaultTestDir: cfg.Executor.DefaultTestDir,
		PR: patch.PRConfig{
			Enabled: cfg.PR.Enabled,
			Owner:   cfg.PR.Owner,
			Repo:    cfg.PR.Repo,
			Token:   githubToken(cfg),
			APIBase: cfg.PR.APIBase,
		},
	}
	if sandbox {
		execCfg.SandboxDir = cfg.Executor.SandboxDir
		if execCfg.SandboxDir == "" {
			execCfg.SandboxDir = patch.DefaultSandboxDir(repoDir)
		}
	}

	exec, err := patch.NewExecutor(git, &testrunner.ExecRunner{}, repoDir, cfg.TestTimeout(), execCfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var history agent.Recorder
	if !noHistory {
		d, dbCleanup, err := openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		history = d
		cleanup = dbCleanup
	}

	ctrl := agent.NewController(pl, exec, history)
	ctrl.SetLifecycle(exec)
	ctrl.SetFailureLog(mem)
	return ctrl, cleanup, nil
}

func init() {
	runCmd.Flags().String("repo", "", "repository directory (defaults to executor.repo_dir)")
	runCmd.Flags().Int("max-steps", 0, "maximum remediation steps (defaults to agent.max_steps)")
	runCmd.Flags().Bool("sandbox", false, "apply patches in a sandbox copy of the repo")
	runCmd.Flags().Bool("json", false, "emit the report as JSON")
	runCmd.Flags().Bool("quiet", false, "suppress progress output")
	runCmd.Flags().Bool("no-history", false, "skip recording the run in the database")
}
