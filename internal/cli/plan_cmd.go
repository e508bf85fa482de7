package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mend/internal/oracle"
	"github.com/lucasnoah/mend/internal/plan"
	"github.com/lucasnoah/mend/internal/planner"
	"github.com/lucasnoah/mend/internal/workspace"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build and print a remediation plan without executing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoDir, _ := cmd.Flags().GetString("repo")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")
		prompt, _ := cmd.Flags().GetString("prompt")
		errorType, _ := cmd.Flags().GetString("error-type")
		problemFile, _ := cmd.Flags().GetString("file")
		jsonOut, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if repoDir == "" {
			repoDir = cfg.Executor.RepoDir
		}
		if maxSteps <= 0 {
			maxSteps = cfg.Agent.MaxSteps
		}

		mem, err := openMemory(cfg)
		if err != nil {
			return err
		}
		ws, err := workspace.New(&workspace.ExecGit{}, repoDir)
		if err != nil {
			return err
		}

		var provider oracle.Provider
		if os.Getenv("OPENAI_API_KEY") != "" {
			p, err := oracle.NewOpenAI(oracle.OpenAIConfig{
				DeepModel: cfg.Planner.DeepModel,
				FastModel: cfg.Planner.FastModel,
				BaseURL:   cfg.Planner.BaseURL,
			})
			if err != nil {
				return err
			}
			provider = p
		}

		pl := planner.New(provider, mem, ws,
			planner.WithOracleTimeout(cfg.OracleTimeout()),
			planner.WithCacheTTL(cfg.CacheTTL()),
		)

		// A prompt or error type routes through the full fallback chain;
		// otherwise the plan comes from repository signals alone.
		if prompt != "" || errorType != "" {
			sp := pl.CreatePlan(context.Background(), planner.Request{
				Prompt:      prompt,
				ErrorType:   errorType,
				ProblemFile: problemFile,
			})
			return printPlan(cmd, sp, jsonOut)
		}

		items := pl.BuildPlan(maxSteps)
		return printPlan(cmd, &plan.StructuredPlan{Goal: "repository remediation", Steps: items}, jsonOut)
	},
}

func printPlan(cmd *cobra.Command, sp *plan.StructuredPlan, jsonOut bool) error {
	w := cmd.OutOrStdout()
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sp)
	}

	fmt.Fprintf(w, "Goal: %s\n", sp.Goal)
	if sp.Rationale != "" {
		fmt.Fprintf(w, "Rationale: %s\n", sp.Rationale)
	}
	if len(sp.Steps) == 0 {
		fmt.Fprintln(w, "No steps.")
		return nil
	}
	for i, s := range sp.Steps {
		fmt.Fprintf(w, "  %d. %s (%s, risk=%s)\n", i+1, s.Title, s.Action, s.Risk)
		if s.Target != "" {
			fmt.Fprintf(w, "     target: %s\n", s.Target)
		}
		if len(s.TestsToRun) > 0 {
			fmt.Fprintf(w, "     tests: %v\n", s.TestsToRun)
		}
	}
	return nil
}

func init() {
	planCmd.Flags().String("repo", "", "repository directory")
	planCmd.Flags().Int("max-steps", 0, "maximum plan steps")
	planCmd.Flags().String("prompt", "", "plan from a free-form prompt via the oracle chain")
	planCmd.Flags().String("error-type", "", "known error type for rule-based planning")
	planCmd.Flags().String("file", "", "problem file for rule-based planning")
	planCmd.Flags().Bool("json", false, "emit the plan as JSON")
}
