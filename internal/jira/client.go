package jira

import (
	"fmt"

	jira "github.com/andygrunwald/go-jira"
	"github.com/rs/zerolog/log"
)

// Client handles interactions with the Jira REST API using a single
// service-account identity.
type Client struct {
	client *jira.Client
}

// NewClient creates a Jira client for the given instance URL. The API
// token goes in the basic-auth password field (Jira Cloud convention).
func NewClient(serverURL, email, apiToken string) (*Client, error) {
	tp := jira.BasicAuthTransport{
		Username: email,
		Password: apiToken,
	}

	client, err := jira.NewClient(tp.Client(), serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &Client{client: client}, nil
}

// GetIssue fetches a single issue and reduces it to the snapshot of
// fields the enhancement prompt needs.
func (c *Client) GetIssue(issueKey string) (*Snapshot, error) {
	issue, resp, err := c.client.Issue.Get(issueKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue %s: %v%s", issueKey, err, statusSuffix(resp))
	}

	return snapshotFromIssue(issue), nil
}

// SearchProject returns snapshots for the most recently created issues in
// a project.
func (c *Client) SearchProject(projectKey string, maxResults int) ([]*Snapshot, error) {
	jql := fmt.Sprintf("project = %s ORDER BY created DESC", projectKey)
	issues, resp, err := c.client.Issue.Search(jql, &jira.SearchOptions{MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to search project %s: %v%s", projectKey, err, statusSuffix(resp))
	}

	snapshots := make([]*Snapshot, 0, len(issues))
	for i := range issues {
		snapshots = append(snapshots, snapshotFromIssue(&issues[i]))
	}
	return snapshots, nil
}

// UpdateDescription overwrites the description field of an issue. No
// other field is touched.
func (c *Client) UpdateDescription(issueKey, description string) error {
	data := map[string]interface{}{
		"fields": map[string]interface{}{
			"description": description,
		},
	}

	resp, err := c.client.Issue.UpdateIssue(issueKey, data)
	if err != nil {
		return fmt.Errorf("failed to update issue %s: %v%s", issueKey, err, statusSuffix(resp))
	}

	log.Debug().Str("issue_key", issueKey).Int("description_len", len(description)).
		Msg("Updated issue description")
	return nil
}

// CountProjects returns the number of projects visible to the service
// account. Used as a cheap connectivity probe.
func (c *Client) CountProjects() (int, error) {
	projects, resp, err := c.client.Project.GetList()
	if err != nil {
		return 0, fmt.Errorf("failed to list projects: %v%s", err, statusSuffix(resp))
	}
	return len(*projects), nil
}

func statusSuffix(resp *jira.Response) string {
	if resp == nil || resp.Response == nil {
		return ""
	}
	return fmt.Sprintf(" (status: %d)", resp.StatusCode)
}
