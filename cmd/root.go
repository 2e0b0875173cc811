// Package cmd provides the command-line interface for the GitBugger CLI tool.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gitbugger",
	Short: "GitBugger files issues against GitHub repositories",
	Long: `GitBugger is a CLI tool that files issues against a GitHub repository or a
JIRA project. Submissions that are rate limited by the remote service are retried
after a fixed delay until they succeed or the retry policy is exhausted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Cancelling ctx aborts an in-flight submission, including a rate-limit wait.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().StringP("repository", "r", "", "GitHub repository name (e.g., 'username/repo')")
	rootCmd.PersistentFlags().String("config", "", "Path to a configuration file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	// Add the GitHub command
	rootCmd.AddCommand(githubCmd)

	// Add the JIRA command
	rootCmd.AddCommand(jiraCmd)
}
