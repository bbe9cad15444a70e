package enhance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ticketsmith/internal/jira"
	"github.com/ticketsmith/internal/llm"
)

// Tracker is the subset of the Jira client the pipeline needs.
type Tracker interface {
	GetIssue(issueKey string) (*jira.Snapshot, error)
	UpdateDescription(issueKey, description string) error
}

// Result is the transient outcome of one enhancement call. It is
// returned to the caller and never persisted.
type Result struct {
	ID                  string    `json:"id"`
	Success             bool      `json:"success"`
	EnhancedDescription string    `json:"enhanced_description,omitempty"`
	RawModelOutput      string    `json:"raw_model_output,omitempty"`
	Error               string    `json:"error,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// Enhancer runs the preview/apply pipeline: fetch ticket, build prompt,
// one generation call, extract, optionally write back.
type Enhancer struct {
	tracker   Tracker
	generator llm.Generator
	policy    string
}

// NewEnhancer creates a pipeline bound to a tracker and a generator.
func NewEnhancer(tracker Tracker, generator llm.Generator, policy string) *Enhancer {
	if policy == "" {
		policy = DefaultPolicy
	}
	return &Enhancer{
		tracker:   tracker,
		generator: generator,
		policy:    policy,
	}
}

// Preview produces an enhanced description without touching the ticket.
// It never returns an error: every failure is folded into the Result.
func (e *Enhancer) Preview(ctx context.Context, issueKey, customInstructions string) Result {
	snap, err := e.tracker.GetIssue(issueKey)
	if err != nil {
		return failedResult(fmt.Sprintf("failed to fetch issue %s: %v", issueKey, err))
	}
	return e.PreviewSnapshot(ctx, snap, customInstructions)
}

// PreviewSnapshot runs the pipeline against an already-fetched snapshot,
// skipping the tracker read. Batch mode uses this to avoid refetching.
func (e *Enhancer) PreviewSnapshot(ctx context.Context, snap *jira.Snapshot, customInstructions string) Result {
	prompt := BuildPrompt(e.policy, snap, customInstructions)

	raw, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return failedResult(fmt.Sprintf("generation failed for %s: %v", snap.Key, err))
	}

	extraction := Extract(raw)
	if extraction.Outcome != Extracted {
		// Degrades to an empty description rather than a hard failure;
		// the two non-extracted outcomes are logged apart so operators
		// can tell a silent model from an empty rewrite.
		log.Warn().
			Str("issue_key", snap.Key).
			Str("outcome", extraction.Outcome.String()).
			Int("raw_len", len(raw)).
			Msg("No description extracted from model output")
	}

	return Result{
		ID:                  uuid.NewString(),
		Success:             true,
		EnhancedDescription: extraction.Description,
		RawModelOutput:      raw,
		Timestamp:           time.Now().UTC(),
	}
}

// Apply previews and, only on success, writes the enhanced description
// back to the ticket. A generation failure never reaches the tracker.
func (e *Enhancer) Apply(ctx context.Context, issueKey, customInstructions string) (bool, string) {
	result := e.Preview(ctx, issueKey, customInstructions)
	if !result.Success {
		return false, fmt.Sprintf("enhancement failed for %s: %s", issueKey, result.Error)
	}

	if err := e.tracker.UpdateDescription(issueKey, result.EnhancedDescription); err != nil {
		return false, fmt.Sprintf("failed to update %s: %v", issueKey, err)
	}

	return true, fmt.Sprintf("successfully updated description for %s", issueKey)
}

func failedResult(msg string) Result {
	return Result{
		ID:        uuid.NewString(),
		Success:   false,
		Error:     msg,
		Timestamp: time.Now().UTC(),
	}
}
