package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mr-Squirrely-Net/GitBugger/internal/config"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/submit"
	"github.com/Mr-Squirrely-Net/GitBugger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	runner, err := submit.NewRunner(
		submit.Policy{Delay: time.Millisecond, MaxAttempts: 3, RequestTimeout: 5 * time.Second},
		submit.WithClassifier(Classify),
	)
	require.NoError(t, err)

	client, err := NewClient(config.JiraConfig{
		URL:      server.URL,
		Username: "test@example.com",
		Token:    "test-token",
	}, runner)
	require.NoError(t, err)
	return client
}

func TestJiraClientCredentialValidation(t *testing.T) {
	runner, err := submit.NewRunner(submit.DefaultPolicy())
	require.NoError(t, err)

	testCases := []struct {
		name          string
		url           string
		username      string
		token         string
		errorContains string
	}{
		{
			name:          "Missing URL",
			username:      "test@example.com",
			token:         "test-token",
			errorContains: "JIRA_URL",
		},
		{
			name:          "Missing username",
			url:           "https://example.atlassian.net",
			token:         "test-token",
			errorContains: "JIRA_USERNAME",
		},
		{
			name:          "Missing token",
			url:           "https://example.atlassian.net",
			username:      "test@example.com",
			errorContains: "JIRA_TOKEN",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(config.JiraConfig{URL: tc.url, Username: tc.username, Token: tc.token}, runner)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errorContains)
		})
	}
}

func TestFields(t *testing.T) {
	issue, err := models.NewIssue("Crash on start", "steps").
		AddKind(models.KindBug).
		AddLabel("needs triage").
		AddAssignees("alice", "bob").
		AddMilestone("v1.2").
		Build()
	require.NoError(t, err)

	fields := Fields("PROJ", issue)
	assert.Equal(t, "PROJ", fields.Project.Key)
	assert.Equal(t, "Crash on start", fields.Summary)
	assert.Equal(t, "steps", fields.Description)
	assert.Equal(t, "Bug", fields.Type.Name)
	assert.Equal(t, []string{"bug", "needs-triage"}, fields.Labels)
	require.NotNil(t, fields.Assignee)
	assert.Equal(t, "alice", fields.Assignee.Name)
	require.Len(t, fields.FixVersions, 1)
	assert.Equal(t, "v1.2", fields.FixVersions[0].Name)
}

func TestIssueType(t *testing.T) {
	testCases := []struct {
		name     string
		kind     models.Kind
		expected string
	}{
		{name: "Bug", kind: models.KindBug, expected: "Bug"},
		{name: "Enhancement", kind: models.KindEnhancement, expected: "Improvement"},
		{name: "No kind", kind: "", expected: "Task"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := models.NewIssue("t", "")
			if tc.kind != "" {
				b.AddKind(tc.kind)
			}
			issue, err := b.Build()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, IssueType(issue))
		})
	}
}

func TestSubmitRetriesThenCreates(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/rest/api/2/issue", request.URL.Path)
		user, pass, ok := request.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test@example.com", user)
		assert.Equal(t, "test-token", pass)

		var body struct {
			Fields struct {
				Summary string `json:"summary"`
				Project struct {
					Key string `json:"key"`
				} `json:"project"`
			} `json:"fields"`
		}
		assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "bug1", body.Fields.Summary)
		assert.Equal(t, "PROJ", body.Fields.Project.Key)

		switch atomic.AddInt32(&calls, 1) {
		case 1:
			writer.WriteHeader(http.StatusTooManyRequests)
		case 2:
			writer.WriteHeader(http.StatusForbidden)
		default:
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusCreated)
			fmt.Fprint(writer, `{"id":"10000","key":"PROJ-1","self":"https://jira.example.com/rest/api/2/issue/10000"}`)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	issue, err := models.NewIssue("bug1", "desc").AddLabel("bug").Build()
	require.NoError(t, err)

	created, err := client.Submit(context.Background(), "PROJ", issue)
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", created.Key)
	assert.Equal(t, 3, created.Attempts)
	assert.Equal(t, 2, created.Waits)
}

func TestSubmitRejected(t *testing.T) {
	body := `{"errorMessages":[],"errors":{"project":"project is required"}}`
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(&calls, 1)
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(writer, body)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	issue, err := models.NewIssue("bug1", "desc").Build()
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), "PROJ", issue)
	var rejected *submit.RemoteRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Equal(t, body, rejected.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSubmitRequiresProjectKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()

	client := newTestClient(t, server)
	issue, err := models.NewIssue("bug1", "").Build()
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), "", issue)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, submit.RateLimited, Classify(http.StatusTooManyRequests))
	assert.Equal(t, submit.RateLimited, Classify(http.StatusForbidden))
	assert.Equal(t, submit.Created, Classify(http.StatusCreated))
	assert.Equal(t, submit.Rejected, Classify(http.StatusBadRequest))
}
