package enhance

import (
	"fmt"
	"os"
)

// DefaultPolicy is the editorial policy prompted to the model ahead of
// the ticket data. Operators can replace it with their own document via
// the policy.file config key.
const DefaultPolicy = `JIRA TICKET ENHANCEMENT POLICY:

1. MANDATORY FIELDS:
   - All tickets must have clear, descriptive titles
   - Descriptions must include specific details, not vague statements
   - Priority must be set (Critical, High, Medium, Low)
   - Issue type must be specified (Bug, Story, Task, Epic)

2. BUG TICKETS:
   - Must include reproduction steps
   - Must specify expected vs actual behavior
   - Should include environment details (browser, OS, version)
   - Must have severity assessment

3. STORY/FEATURE TICKETS:
   - Must include acceptance criteria
   - Should have user story format: "As a [user], I want [goal] so that [benefit]"
   - Must include definition of done

4. TASK TICKETS:
   - Must have clear action items
   - Should include estimated effort
   - Must specify deliverables

5. GENERAL RULES:
   - Use professional, clear language
   - Remove duplicate information
   - Add relevant labels and components
   - Suggest appropriate assignee if obvious
   - Flag missing critical information`

// LoadPolicy returns the policy document to use: the file at path when
// given, otherwise the built-in default.
func LoadPolicy(path string) (string, error) {
	if path == "" {
		return DefaultPolicy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy file: %w", err)
	}
	return string(data), nil
}
