package cmd

import (
	"fmt"

	"github.com/Mr-Squirrely-Net/GitBugger/internal/config"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/github"
	"github.com/spf13/cobra"
)

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "File an issue in a GitHub repository",
	Long: `File an issue in a GitHub repository.

The issue is described with flags or read from a YAML file with --from-file.
If GitHub answers 403 Forbidden the request is treated as rate limited and
retried after GITBUGGER_RETRY_DELAY (default 60s), at most
GITBUGGER_RETRY_MAX_ATTEMPTS times in total. Any other failure is reported
without retrying.

Example:
  gitbugger github -r octo/hello-world -t "Crash on start" --body "..." -k bug -l ui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repository, err := cmd.Flags().GetString("repository")
		if err != nil {
			return err
		}
		owner, repo, err := github.SplitRepository(repository)
		if err != nil {
			return err
		}

		issue, err := issueFromFlags(cmd)
		if err != nil {
			return err
		}

		cfg, closeLog, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		if err := config.ValidateGitHubConfig(cfg); err != nil {
			return err
		}

		runner, err := newRunner(cfg)
		if err != nil {
			return err
		}

		githubClient, err := github.NewClient(cfg.GitHub, runner)
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %w", err)
		}

		if verify, _ := cmd.Flags().GetBool("verify"); verify {
			if _, err := githubClient.Verify(cmd.Context()); err != nil {
				return err
			}
		}

		created, err := githubClient.Submit(cmd.Context(), owner, repo, issue)
		if err != nil {
			reportFailure(cmd, err)
			return fmt.Errorf("failed to file issue in %s: %w", repository, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created issue #%d: %s\n", created.Number, created.URL)
		return nil
	},
}

func init() {
	addIssueFlags(githubCmd)
	githubCmd.Flags().Bool("verify", false, "Check the token against the API before filing")
}
