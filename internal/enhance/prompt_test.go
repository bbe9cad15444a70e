package enhance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ticketsmith/internal/jira"
)

func fullSnapshot() *jira.Snapshot {
	return &jira.Snapshot{
		Key:         "DIGI-894",
		Summary:     "Checkout page crashes",
		Description: "It breaks sometimes",
		Priority:    "High",
		IssueType:   "Bug",
		Assignee:    "Dana Scully",
		Status:      "In Progress",
		Labels:      []string{"checkout", "payments"},
		Components:  []string{"web", "billing"},
	}
}

func TestBuildPromptContainsKeyAndTitleOnce(t *testing.T) {
	prompt := BuildPrompt(DefaultPolicy, fullSnapshot(), "")

	assert.Equal(t, 1, strings.Count(prompt, "DIGI-894"))
	assert.Equal(t, 1, strings.Count(prompt, "Checkout page crashes"))
}

func TestBuildPromptRendersPopulatedFields(t *testing.T) {
	prompt := BuildPrompt(DefaultPolicy, fullSnapshot(), "")

	assert.Contains(t, prompt, "Key: DIGI-894")
	assert.Contains(t, prompt, "Title: Checkout page crashes")
	assert.Contains(t, prompt, "Description: It breaks sometimes")
	assert.Contains(t, prompt, "Priority: High")
	assert.Contains(t, prompt, "Issue Type: Bug")
	assert.Contains(t, prompt, "Assignee: Dana Scully")
	assert.Contains(t, prompt, "Status: In Progress")
	assert.Contains(t, prompt, "Labels: checkout, payments")
	assert.Contains(t, prompt, "Components: web, billing")
}

func TestBuildPromptRendersPlaceholders(t *testing.T) {
	prompt := BuildPrompt(DefaultPolicy, &jira.Snapshot{Key: "DIGI-1"}, "")

	assert.Contains(t, prompt, "Title: No title")
	assert.Contains(t, prompt, "Description: No description")
	assert.Contains(t, prompt, "Priority: Not set")
	assert.Contains(t, prompt, "Issue Type: Not set")
	assert.Contains(t, prompt, "Assignee: Unassigned")
	assert.Contains(t, prompt, "Status: Unknown")
	assert.Contains(t, prompt, "Labels: None")
	assert.Contains(t, prompt, "Components: None")
}

func TestBuildPromptStartsWithPolicy(t *testing.T) {
	prompt := BuildPrompt(DefaultPolicy, fullSnapshot(), "")

	assert.True(t, strings.HasPrefix(prompt, DefaultPolicy))
}

func TestBuildPromptIncludesCustomInstructionsVerbatim(t *testing.T) {
	instructions := "Keep it under 200 words.\nUse bullet points."

	prompt := BuildPrompt(DefaultPolicy, fullSnapshot(), instructions)

	assert.Contains(t, prompt, instructions)
}

func TestBuildPromptEndsWithTaskInstruction(t *testing.T) {
	prompt := BuildPrompt(DefaultPolicy, fullSnapshot(), "whatever")

	assert.True(t, strings.HasSuffix(prompt, "Please enhance this ticket description now:"))
	assert.Contains(t, prompt, Marker)
	assert.Contains(t, prompt, "Focus ONLY on improving the description field")
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	snap := fullSnapshot()

	assert.Equal(t,
		BuildPrompt(DefaultPolicy, snap, "x"),
		BuildPrompt(DefaultPolicy, snap, "x"))
}
