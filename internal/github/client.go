// Package github provides functionality for filing issues through the GitHub API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Mr-Squirrely-Net/GitBugger/internal/config"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/logging"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/submit"
	"github.com/Mr-Squirrely-Net/GitBugger/pkg/models"
	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"
)

// Version is reported in the User-Agent header.
const Version = "1.0.0"

const (
	defaultDomain = "github.com"
	mediaTypeV3   = "application/vnd.github.v3+json"
)

// ErrInvalidRepository is returned when the owner or repository name is missing.
var ErrInvalidRepository = errors.New("invalid repository")

// Client files issues against one GitHub API endpoint. Its configuration is
// fixed at construction and it is safe for concurrent use.
type Client struct {
	client     *github.Client
	httpClient *http.Client
	runner     *submit.Runner
}

// Created describes an issue accepted by GitHub.
type Created struct {
	Number int
	URL    string
	// Attempts is the number of requests it took, including rate-limited ones.
	Attempts int
	// Waits is the number of rate-limit delays waited out.
	Waits int
}

// APIURL returns the REST API base URL for a GitHub domain. Any domain other
// than github.com is treated as GitHub Enterprise.
func APIURL(domain string) string {
	if domain == "" || domain == defaultDomain {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// UserAgent builds the User-Agent header for a product label.
func UserAgent(productLabel string) string {
	if productLabel == "" {
		productLabel = config.DefaultProductLabel
	}
	return fmt.Sprintf("%s (gitbugger/%s)", productLabel, Version)
}

// SplitRepository splits "owner/repo" into its parts.
func SplitRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s, expected format: owner/repo", ErrInvalidRepository, repository)
	}
	return parts[0], parts[1], nil
}

// NewClient creates a GitHub client that authenticates with cfg.Token and
// submits issues through runner.
func NewClient(cfg config.GitHubConfig, runner *submit.Runner) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}
	if runner == nil {
		return nil, fmt.Errorf("submission runner is required")
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = APIURL(cfg.Domain)
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	parsedURL, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid github api url: %s", apiURL)
	}

	logging.Info("github configuration",
		"api_url", apiURL,
		"product", cfg.ProductLabel,
		"token", logging.MaskSensitive(cfg.Token))

	// GitHub expects "Authorization: token <value>"; oauth2 uses TokenType
	// verbatim as the scheme.
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token, TokenType: "token"},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	client := github.NewClient(tc)
	client.BaseURL = parsedURL
	client.UploadURL = parsedURL
	client.UserAgent = UserAgent(cfg.ProductLabel)

	return &Client{
		client:     client,
		httpClient: tc,
		runner:     runner,
	}, nil
}

// Verify checks the token by fetching the authenticated user and returns
// the user's login.
func (c *Client) Verify(ctx context.Context) (string, error) {
	user, resp, err := c.client.Users.Get(ctx, "")
	if err != nil {
		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		logging.Error("failed to test github token",
			"error", err,
			"status_code", statusCode)
		return "", fmt.Errorf("error testing github token: %w", err)
	}

	logging.Info("github authentication successful",
		"username", user.GetLogin())
	return user.GetLogin(), nil
}

// Submit creates issue in owner/repo. Rate-limited attempts are retried
// according to the runner's policy; every other failure is returned as
// submit.RemoteRejectedError, submit.TransportError or a cancellation error.
//
// Submit is not idempotent: a request whose response is lost may still have
// created the issue, and it is not retried.
func (c *Client) Submit(ctx context.Context, owner, repo string, issue models.Issue) (*Created, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: owner and repository name are required", ErrInvalidRepository)
	}
	if issue.Title() == "" {
		return nil, models.ErrEmptyTitle
	}

	path := fmt.Sprintf("repos/%v/%v/issues", url.PathEscape(owner), url.PathEscape(repo))
	if _, err := json.Marshal(issue); err != nil {
		return nil, fmt.Errorf("failed to encode issue: %w", err)
	}

	repository := owner + "/" + repo
	logging.Info("submitting github issue",
		"repository", repository,
		"title", issue.Title(),
		"labels", issue.Labels())

	result, err := c.runner.Run(ctx, func(ctx context.Context) (*submit.Reply, error) {
		req, err := c.newRequest(ctx, path, issue)
		if err != nil {
			return nil, err
		}
		return c.send(req)
	})
	if err != nil {
		logging.Error("failed to create github issue",
			"repository", repository,
			"error", err)
		return nil, err
	}

	created := &Created{Attempts: result.Attempts, Waits: result.Waits}

	var ghIssue github.Issue
	if err := json.Unmarshal(result.Reply.Body, &ghIssue); err != nil {
		logging.Warn("created issue response could not be decoded",
			"repository", repository,
			"error", err)
	} else {
		created.Number = ghIssue.GetNumber()
		created.URL = ghIssue.GetHTMLURL()
	}

	logging.Info("github issue created",
		"repository", repository,
		"number", created.Number,
		"url", created.URL,
		"attempts", created.Attempts)
	return created, nil
}

// newRequest builds one issue creation request. A fresh request is needed
// for every attempt since the body is consumed when sent.
func (c *Client) newRequest(ctx context.Context, path string, issue models.Issue) (*http.Request, error) {
	req, err := c.client.NewRequest(http.MethodPost, path, issue)
	if err != nil {
		return nil, fmt.Errorf("failed to build issue request: %w", err)
	}
	req = req.WithContext(ctx)
	req.Close = true
	req.Header.Set("Connection", "close")
	req.Header.Set("Accept", mediaTypeV3)
	return req, nil
}

// send executes req and returns the raw status and body. Non-2xx statuses
// are not errors here; classifying them is the runner's job.
func (c *Client) send(req *http.Request) (*submit.Reply, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &submit.Reply{StatusCode: resp.StatusCode, Body: body}, nil
}
