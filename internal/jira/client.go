// Package jira files issues into JIRA projects.
package jira

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Mr-Squirrely-Net/GitBugger/internal/config"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/logging"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/submit"
	"github.com/Mr-Squirrely-Net/GitBugger/pkg/models"
	jira "github.com/andygrunwald/go-jira"
)

// Client handles interactions with the JIRA API
type Client struct {
	client *jira.Client
	runner *submit.Runner
}

// Created describes a ticket accepted by JIRA.
type Created struct {
	Key      string
	Attempts int
	Waits    int
}

// Classify treats 429 as rate limiting in addition to the statuses
// submit.ClassifyStatus handles, since JIRA Cloud throttles with it.
func Classify(statusCode int) submit.Class {
	if statusCode == http.StatusTooManyRequests {
		return submit.RateLimited
	}
	return submit.ClassifyStatus(statusCode)
}

// NewClient creates a JIRA client using basic auth. The runner should be
// built with WithClassifier(Classify).
func NewClient(cfg config.JiraConfig, runner *submit.Runner) (*Client, error) {
	if err := config.ValidateJiraConfig(&config.Config{Jira: cfg}); err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, fmt.Errorf("submission runner is required")
	}

	tp := jira.BasicAuthTransport{
		Username: cfg.Username,
		Password: cfg.Token,
	}

	client, err := jira.NewClient(tp.Client(), cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	logging.Info("jira configuration",
		"url", cfg.URL,
		"username", cfg.Username,
		"token", logging.MaskSensitive(cfg.Token))

	return &Client{client: client, runner: runner}, nil
}

// IssueType picks the JIRA issue type for an issue from its labels.
func IssueType(issue models.Issue) string {
	if issue.HasLabel(string(models.KindBug)) {
		return "Bug"
	}
	if issue.HasLabel(string(models.KindEnhancement)) {
		return "Improvement"
	}
	return "Task"
}

// Fields maps an issue onto JIRA issue fields for projectKey.
func Fields(projectKey string, issue models.Issue) *jira.IssueFields {
	fields := &jira.IssueFields{
		Project: jira.Project{
			Key: projectKey,
		},
		Summary:     issue.Title(),
		Description: issue.Body(),
		Type: jira.IssueType{
			Name: IssueType(issue),
		},
	}

	// JIRA labels cannot contain spaces
	for _, label := range issue.Labels() {
		fields.Labels = append(fields.Labels, strings.ReplaceAll(label, " ", "-"))
	}

	if assignees := issue.Assignees(); len(assignees) > 0 {
		fields.Assignee = &jira.User{Name: assignees[0]}
		if len(assignees) > 1 {
			logging.Warn("jira supports a single assignee, ignoring the rest",
				"assignee", assignees[0],
				"ignored", assignees[1:])
		}
	}

	if milestone, ok := issue.Milestone(); ok {
		fields.FixVersions = []*jira.FixVersion{{Name: milestone}}
	}

	return fields
}

// Submit creates issue in the JIRA project identified by projectKey,
// retrying rate-limited attempts according to the runner's policy.
func (c *Client) Submit(ctx context.Context, projectKey string, issue models.Issue) (*Created, error) {
	if projectKey == "" {
		return nil, fmt.Errorf("jira project key is required")
	}
	if issue.Title() == "" {
		return nil, models.ErrEmptyTitle
	}

	fields := Fields(projectKey, issue)
	logging.Info("submitting jira issue",
		"project", projectKey,
		"title", issue.Title(),
		"type", fields.Type.Name)

	var key string
	result, err := c.runner.Run(ctx, func(ctx context.Context) (*submit.Reply, error) {
		created, resp, err := c.client.Issue.CreateWithContext(ctx, &jira.Issue{Fields: fields})
		if resp == nil {
			if err == nil {
				err = fmt.Errorf("no response from jira")
			}
			return nil, err
		}
		if err == nil {
			key = created.Key
			return &submit.Reply{StatusCode: resp.StatusCode}, nil
		}

		// go-jira leaves the body unread on error responses
		defer resp.Body.Close()
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}
		return &submit.Reply{StatusCode: resp.StatusCode, Body: body}, nil
	})
	if err != nil {
		logging.Error("failed to create jira issue",
			"project", projectKey,
			"error", err)
		return nil, err
	}

	logging.Info("jira issue created",
		"project", projectKey,
		"key", key,
		"attempts", result.Attempts)
	return &Created{Key: key, Attempts: result.Attempts, Waits: result.Waits}, nil
}
