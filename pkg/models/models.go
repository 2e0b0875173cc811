// Package models defines data structures shared across the application.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrEmptyTitle is returned when an issue is built without a title.
var ErrEmptyTitle = errors.New("issue title must not be empty")

// Kind is a preset category that maps onto a repository label.
type Kind string

const (
	// KindBug marks an issue as a defect report.
	KindBug Kind = "bug"
	// KindEnhancement marks an issue as a feature request.
	KindEnhancement Kind = "enhancement"
)

// Label returns the repository label a kind is filed under.
func (k Kind) Label() (string, error) {
	switch k {
	case KindBug, KindEnhancement:
		return string(k), nil
	default:
		return "", fmt.Errorf("unknown issue kind %q", string(k))
	}
}

// Issue is an issue ready to be submitted. It is produced by Builder.Build
// and never changes afterwards.
type Issue struct {
	title     string
	body      string
	labels    []string
	milestone *string
	assignees []string
}

// Title is the issue's summary line.
func (i Issue) Title() string { return i.title }

// Body is the issue's description text.
func (i Issue) Body() string { return i.body }

// Labels returns a copy of the labels in the order they were added.
func (i Issue) Labels() []string { return cloneStrings(i.labels) }

// Assignees returns a copy of the assignees in the order they were added.
func (i Issue) Assignees() []string { return cloneStrings(i.assignees) }

// Milestone returns the milestone identifier and whether one was set.
func (i Issue) Milestone() (string, bool) {
	if i.milestone == nil {
		return "", false
	}
	return *i.milestone, true
}

// HasLabel reports whether the issue carries the given label.
func (i Issue) HasLabel(name string) bool {
	for _, l := range i.labels {
		if l == name {
			return true
		}
	}
	return false
}

// issueRequest is the wire form of an issue creation request.
type issueRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels,omitempty"`
	Milestone *string  `json:"milestone,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

// MarshalJSON encodes the issue as an issue creation request body.
func (i Issue) MarshalJSON() ([]byte, error) {
	return json.Marshal(issueRequest{
		Title:     i.title,
		Body:      i.body,
		Labels:    i.labels,
		Milestone: i.milestone,
		Assignees: i.assignees,
	})
}

// Builder accumulates the fields of one issue. Every mutator returns the
// builder so calls can be chained.
type Builder struct {
	title     string
	body      string
	labels    []string
	milestone *string
	assignees []string
	err       error
}

// NewIssue starts a builder for an issue with the given title and body.
func NewIssue(title, body string) *Builder {
	return &Builder{title: title, body: body}
}

// AddLabel appends a label.
func (b *Builder) AddLabel(label string) *Builder {
	b.labels = append(b.labels, label)
	return b
}

// AddLabels appends labels in order.
func (b *Builder) AddLabels(labels ...string) *Builder {
	b.labels = append(b.labels, labels...)
	return b
}

// AddAssignee appends an assignee login.
func (b *Builder) AddAssignee(login string) *Builder {
	b.assignees = append(b.assignees, login)
	return b
}

// AddAssignees appends assignee logins in order.
func (b *Builder) AddAssignees(logins ...string) *Builder {
	b.assignees = append(b.assignees, logins...)
	return b
}

// AddMilestone sets the milestone identifier, replacing any previous one.
func (b *Builder) AddMilestone(milestone string) *Builder {
	b.milestone = &milestone
	return b
}

// AddMilestoneNumber sets the milestone by number. It is stored in its
// string form, so AddMilestoneNumber(5) and AddMilestone("5") are equivalent.
func (b *Builder) AddMilestoneNumber(number int) *Builder {
	return b.AddMilestone(strconv.Itoa(number))
}

// AddKind appends the label for a preset kind. An unknown kind is reported
// by Build.
func (b *Builder) AddKind(kind Kind) *Builder {
	label, err := kind.Label()
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	return b.AddLabel(label)
}

// Build returns a snapshot of the accumulated fields. Later calls on the
// builder do not affect issues already built.
func (b *Builder) Build() (Issue, error) {
	if b.title == "" {
		return Issue{}, ErrEmptyTitle
	}
	if b.err != nil {
		return Issue{}, b.err
	}

	issue := Issue{
		title:     b.title,
		body:      b.body,
		labels:    cloneStrings(b.labels),
		assignees: cloneStrings(b.assignees),
	}
	if b.milestone != nil {
		m := *b.milestone
		issue.milestone = &m
	}
	return issue, nil
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
