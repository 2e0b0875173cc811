package cmd

import (
	"fmt"
	"os"

	"github.com/Mr-Squirrely-Net/GitBugger/internal/config"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/logging"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/submit"
	"github.com/Mr-Squirrely-Net/GitBugger/pkg/models"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const appName = "gitbugger"

// addIssueFlags registers the flags that describe the issue to file.
func addIssueFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "Issue title")
	cmd.Flags().String("body", "", "Issue body")
	cmd.Flags().StringArrayP("label", "l", []string{}, "Label to add (can be specified multiple times)")
	cmd.Flags().StringArrayP("assignee", "a", []string{}, "Assignee login (can be specified multiple times)")
	cmd.Flags().StringP("milestone", "m", "", "Milestone identifier or number")
	cmd.Flags().StringP("kind", "k", "", "Issue kind: bug or enhancement")
	cmd.Flags().StringP("from-file", "f", "", "Read the issue from a YAML file; flags add to it")
}

// issueFromFlags builds the issue described by the command's flags.
func issueFromFlags(cmd *cobra.Command) (models.Issue, error) {
	path, _ := cmd.Flags().GetString("from-file")
	title, _ := cmd.Flags().GetString("title")
	body, _ := cmd.Flags().GetString("body")

	var builder *models.Builder
	if path != "" {
		f, err := models.LoadIssueFile(path)
		if err != nil {
			return models.Issue{}, err
		}
		if title != "" {
			f.Title = title
		}
		if body != "" {
			f.Body = body
		}
		builder = f.Builder()
	} else {
		builder = models.NewIssue(title, body)
	}

	if kind, _ := cmd.Flags().GetString("kind"); kind != "" {
		builder.AddKind(models.Kind(kind))
	}
	labels, _ := cmd.Flags().GetStringArray("label")
	builder.AddLabels(labels...)
	assignees, _ := cmd.Flags().GetStringArray("assignee")
	builder.AddAssignees(assignees...)
	if milestone, _ := cmd.Flags().GetString("milestone"); milestone != "" {
		builder.AddMilestone(milestone)
	}

	issue, err := builder.Build()
	if err != nil {
		return models.Issue{}, fmt.Errorf("invalid issue: %w", err)
	}
	return issue, nil
}

// loadConfig reads configuration from --config or the environment and
// applies the logging settings. The returned func closes the log file, if any.
func loadConfig(cmd *cobra.Command) (*config.Config, func(), error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadConfigFile(path)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	closeLog := func() {}
	if cfg.Log.File {
		w, f, err := logging.OpenLogFile(appName, cfg.Log.Dir)
		if err != nil {
			return nil, nil, err
		}
		logging.SetupLogger(w, logging.LogLevel(cfg.Log.Level))
		closeLog = func() { f.Close() }
	} else {
		logging.SetupLogger(os.Stderr, logging.LogLevel(cfg.Log.Level))
	}

	return cfg, closeLog, nil
}

// newRunner builds the submission runner for cfg. A positive rate limit
// paces every attempt of every submission made through it.
func newRunner(cfg *config.Config, opts ...submit.Option) (*submit.Runner, error) {
	if cfg.HTTP.RateLimit > 0 {
		opts = append(opts, submit.WithLimiter(rate.NewLimiter(rate.Limit(cfg.HTTP.RateLimit), 1)))
	}
	return submit.NewRunner(cfg.Policy(), opts...)
}

// reportFailure prints the diagnostic for a failed submission.
func reportFailure(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Failed to file issue: %s\n", submit.Message(err))
}
