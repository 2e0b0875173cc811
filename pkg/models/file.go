package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IssueFile is the on-disk YAML description of an issue.
//
//	title: Crash on start
//	body: |
//	  Steps to reproduce...
//	kind: bug
//	labels: [ui]
//	assignees: [octocat]
//	milestone: "5"
type IssueFile struct {
	Title     string   `yaml:"title"`
	Body      string   `yaml:"body"`
	Kind      Kind     `yaml:"kind"`
	Labels    []string `yaml:"labels"`
	Assignees []string `yaml:"assignees"`
	Milestone string   `yaml:"milestone"`
}

// LoadIssueFile reads an issue description from a YAML file.
func LoadIssueFile(path string) (*IssueFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read issue file: %w", err)
	}

	var f IssueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse issue file %s: %w", path, err)
	}
	return &f, nil
}

// Builder returns a builder seeded with the file's fields.
func (f *IssueFile) Builder() *Builder {
	b := NewIssue(f.Title, f.Body)
	if f.Kind != "" {
		b.AddKind(f.Kind)
	}
	b.AddLabels(f.Labels...)
	b.AddAssignees(f.Assignees...)
	if f.Milestone != "" {
		b.AddMilestone(f.Milestone)
	}
	return b
}
