package cmd

import (
	"fmt"

	"github.com/Mr-Squirrely-Net/GitBugger/internal/config"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/jira"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/logging"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/submit"
	"github.com/spf13/cobra"
)

// jiraCmd files the same issue into one or more JIRA projects.
var jiraCmd = &cobra.Command{
	Use:   "jira",
	Short: "File an issue in JIRA projects",
	Long: `File an issue in one or more JIRA projects.

You can specify multiple boards using -b/--board flag multiple times.

Example:
  gitbugger jira -b PROJ1 -b PROJ2 -t "Crash on start" -k bug

Issue kinds map onto JIRA issue types:
- 'bug' is created as 'Bug'
- 'enhancement' is created as 'Improvement'
- anything else is created as 'Task'

Only the first assignee is used, and the milestone becomes the fix version.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		boards, err := cmd.Flags().GetStringArray("board")
		if err != nil {
			return err
		}
		if len(boards) == 0 {
			return fmt.Errorf("at least one JIRA board must be specified using --board")
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

		if err := config.ValidateJiraConfig(cfg); err != nil {
			return err
		}

		runner, err := newRunner(cfg, submit.WithClassifier(jira.Classify))
		if err != nil {
			return err
		}

		jiraClient, err := jira.NewClient(cfg.Jira, runner)
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %w", err)
		}

		var failed int
		for _, board := range boards {
			created, err := jiraClient.Submit(cmd.Context(), board, issue)
			if err != nil {
				logging.Error("error filing issue on board",
					"board", board,
					"error", err)
				reportFailure(cmd, err)
				failed++
				if cmd.Context().Err() != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", created.Key)
		}

		if failed > 0 {
			return fmt.Errorf("failed to file issue on %d of %d boards", failed, len(boards))
		}
		return nil
	},
}

func init() {
	addIssueFlags(jiraCmd)
	jiraCmd.Flags().StringArrayP("board", "b", []string{}, "JIRA project key(s) to file the issue in (can be specified multiple times)")
}
