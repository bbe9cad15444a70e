package jira

import (
	jira "github.com/andygrunwald/go-jira"
)

// Snapshot is the read-only subset of an issue's fields used to build an
// enhancement prompt. Empty strings mean the field is unset in Jira; the
// prompt renderer substitutes the placeholder text.
type Snapshot struct {
	Key         string   `json:"key"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	IssueType   string   `json:"issue_type"`
	Assignee    string   `json:"assignee"`
	Status      string   `json:"status"`
	Labels      []string `json:"labels"`
	Components  []string `json:"components"`
}

func snapshotFromIssue(issue *jira.Issue) *Snapshot {
	snap := &Snapshot{Key: issue.Key}

	fields := issue.Fields
	if fields == nil {
		return snap
	}

	snap.Summary = fields.Summary
	snap.Description = fields.Description
	snap.IssueType = fields.Type.Name
	snap.Labels = fields.Labels

	if fields.Priority != nil {
		snap.Priority = fields.Priority.Name
	}
	if fields.Assignee != nil {
		snap.Assignee = fields.Assignee.DisplayName
	}
	if fields.Status != nil {
		snap.Status = fields.Status.Name
	}

	for _, component := range fields.Components {
		if component != nil {
			snap.Components = append(snap.Components, component.Name)
		}
	}

	return snap
}
