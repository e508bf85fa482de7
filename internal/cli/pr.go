package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mend/internal/patch"
	"github.com/lucasnoah/mend/internal/testrunner"
	"github.com/lucasnoah/mend/internal/workspace"
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Manage pull requests for applied fixes",
}

var prCreateCmd = &cobra.Command{
	Use:   "create [branch]",
	Short: "Push a branch and open a pull request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch := args[0]
		title, _ := cmd.Flags().GetString("title")
		body, _ := cmd.Flags().GetString("body")
		draft, _ := cmd.Flags().GetBool("draft")
		repoDir, _ := cmd.Flags().GetString("repo")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if repoDir == "" {
			repoDir = cfg.Executor.RepoDir
		}
		if title == "" {
			title = fmt.Sprintf("mend: automated fixes (%s)", branch)
		}

		exec, err := patch.NewExecutor(&workspace.ExecGit{}, &testrunner.ExecRunner{}, repoDir, cfg.TestTimeout(), patch.Config{
			DefaultTestDir: cfg.Executor.DefaultTestDir,
			PR: patch.PRConfig{
				Enabled: true,
				Owner:   cfg.PR.Owner,
				Repo:    cfg.PR.Repo,
				Token:   githubToken(cfg),
				APIBase: cfg.PR.APIBase,
			},
		})
		if err != nil {
			return err
		}

		if err := exec.PushBranch(branch); err != nil {
			return fmt.Errorf("push branch: %w", err)
		}

		result := exec.CreatePullRequest(patch.PROpts{
			Title: title,
			Body:  body,
			Head:  branch,
			Base:  cfg.PR.Base,
			Draft: draft,
		})
		if !result.Created {
			return fmt.Errorf("create pull request: %s", result.Error)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "PR created: %s\n", result.URL)
		return nil
	},
}

func init() {
	prCreateCmd.Flags().String("title", "", "pull request title")
	prCreateCmd.Flags().String("body", "", "pull request body")
	prCreateCmd.Flags().Bool("draft", false, "open as a draft")
	prCreateCmd.Flags().String("repo", "", "repository directory")

	prCmd.AddCommand(prCreateCmd)
}
