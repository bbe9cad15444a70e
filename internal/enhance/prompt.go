package enhance

import (
	"fmt"
	"strings"

	"github.com/ticketsmith/internal/jira"
)

// Placeholder text for unset snapshot fields.
const (
	placeholderNotSet        = "Not set"
	placeholderUnassigned    = "Unassigned"
	placeholderNoTitle       = "No title"
	placeholderNoDescription = "No description"
	placeholderUnknown       = "Unknown"
	placeholderNone          = "None"
)

const taskInstruction = `TASK: Analyze the current ticket and provide an enhanced description that follows the policy rules above.
Focus ONLY on improving the description field while maintaining all the important information.

Provide your response in the following format:

ENHANCED DESCRIPTION:
[Your enhanced description here - be detailed, structured, and professional]

Please enhance this ticket description now:`

// BuildPrompt renders the full prompt: policy document, ticket fields in
// a fixed label:value layout, the caller's instructions verbatim, then
// the task instruction. Pure function of its inputs.
func BuildPrompt(policy string, snap *jira.Snapshot, customInstructions string) string {
	var b strings.Builder

	b.WriteString(policy)
	b.WriteString("\n\n")
	b.WriteString(renderSnapshot(snap))
	b.WriteString("\n\n")
	if customInstructions != "" {
		b.WriteString(customInstructions)
		b.WriteString("\n\n")
	}
	b.WriteString(taskInstruction)

	return b.String()
}

func renderSnapshot(snap *jira.Snapshot) string {
	return fmt.Sprintf(`CURRENT TICKET:
Key: %s
Title: %s
Description: %s
Priority: %s
Issue Type: %s
Assignee: %s
Status: %s
Labels: %s
Components: %s`,
		snap.Key,
		orPlaceholder(snap.Summary, placeholderNoTitle),
		orPlaceholder(snap.Description, placeholderNoDescription),
		orPlaceholder(snap.Priority, placeholderNotSet),
		orPlaceholder(snap.IssueType, placeholderNotSet),
		orPlaceholder(snap.Assignee, placeholderUnassigned),
		orPlaceholder(snap.Status, placeholderUnknown),
		joinOrPlaceholder(snap.Labels),
		joinOrPlaceholder(snap.Components),
	)
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

func joinOrPlaceholder(values []string) string {
	if len(values) == 0 {
		return placeholderNone
	}
	return strings.Join(values, ", ")
}
