package enhance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketsmith/internal/jira"
)

type fakeTracker struct {
	issues       map[string]*jira.Snapshot
	getErr       error
	updateErr    error
	updatedKey   string
	updatedText  string
	updateCalled bool
}

func (f *fakeTracker) GetIssue(issueKey string) (*jira.Snapshot, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	snap, ok := f.issues[issueKey]
	if !ok {
		return nil, errors.New("issue does not exist")
	}
	return snap, nil
}

func (f *fakeTracker) UpdateDescription(issueKey, description string) error {
	f.updateCalled = true
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedKey = issueKey
	f.updatedText = description
	return nil
}

type fakeGenerator struct {
	output string
	err    error
	prompt string
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func testEnhancer(tracker *fakeTracker, gen *fakeGenerator) *Enhancer {
	return NewEnhancer(tracker, gen, "")
}

func TestPreviewSuccess(t *testing.T) {
	tracker := &fakeTracker{issues: map[string]*jira.Snapshot{
		"DIGI-894": {Key: "DIGI-894", Summary: "Checkout crashes"},
	}}
	gen := &fakeGenerator{output: "ENHANCED DESCRIPTION:\nA much better description."}

	result := testEnhancer(tracker, gen).Preview(context.Background(), "DIGI-894", "")

	require.True(t, result.Success)
	assert.Equal(t, "A much better description.", result.EnhancedDescription)
	assert.Equal(t, gen.output, result.RawModelOutput)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.Timestamp.IsZero())
	assert.Empty(t, result.Error)

	// The prompt carried the ticket data and the policy.
	assert.Contains(t, gen.prompt, "Key: DIGI-894")
	assert.True(t, strings.HasPrefix(gen.prompt, DefaultPolicy))
}

func TestPreviewTrackerFailure(t *testing.T) {
	tracker := &fakeTracker{getErr: errors.New("jira down")}
	gen := &fakeGenerator{output: "unused"}

	result := testEnhancer(tracker, gen).Preview(context.Background(), "DIGI-894", "")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "jira down")
	assert.Zero(t, gen.calls)
}

func TestPreviewGenerationFailure(t *testing.T) {
	tracker := &fakeTracker{issues: map[string]*jira.Snapshot{
		"DIGI-894": {Key: "DIGI-894"},
	}}
	gen := &fakeGenerator{err: errors.New("status 500")}

	result := testEnhancer(tracker, gen).Preview(context.Background(), "DIGI-894", "")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "status 500")
}

func TestPreviewMarkerMissingIsNotAFailure(t *testing.T) {
	tracker := &fakeTracker{issues: map[string]*jira.Snapshot{
		"DIGI-894": {Key: "DIGI-894"},
	}}
	gen := &fakeGenerator{output: "the model rambled with no marker"}

	result := testEnhancer(tracker, gen).Preview(context.Background(), "DIGI-894", "")

	assert.True(t, result.Success)
	assert.Empty(t, result.EnhancedDescription)
	assert.Equal(t, gen.output, result.RawModelOutput)
}

func TestApplyWritesBack(t *testing.T) {
	tracker := &fakeTracker{issues: map[string]*jira.Snapshot{
		"DIGI-894": {Key: "DIGI-894"},
	}}
	gen := &fakeGenerator{output: "ENHANCED DESCRIPTION:\nRewritten."}

	ok, msg := testEnhancer(tracker, gen).Apply(context.Background(), "DIGI-894", "")

	assert.True(t, ok)
	assert.Contains(t, msg, "DIGI-894")
	assert.Equal(t, "DIGI-894", tracker.updatedKey)
	assert.Equal(t, "Rewritten.", tracker.updatedText)
}

func TestApplySkipsWriteOnGenerationFailure(t *testing.T) {
	tracker := &fakeTracker{issues: map[string]*jira.Snapshot{
		"DIGI-894": {Key: "DIGI-894"},
	}}
	gen := &fakeGenerator{err: errors.New("generation endpoint unavailable: status 500")}

	ok, msg := testEnhancer(tracker, gen).Apply(context.Background(), "DIGI-894", "")

	assert.False(t, ok)
	assert.Contains(t, msg, "enhancement failed for DIGI-894")
	assert.False(t, tracker.updateCalled)
}

func TestApplyReportsWriteFailure(t *testing.T) {
	tracker := &fakeTracker{
		issues:    map[string]*jira.Snapshot{"DIGI-894": {Key: "DIGI-894"}},
		updateErr: errors.New("permission denied"),
	}
	gen := &fakeGenerator{output: "ENHANCED DESCRIPTION:\nRewritten."}

	ok, msg := testEnhancer(tracker, gen).Apply(context.Background(), "DIGI-894", "")

	assert.False(t, ok)
	assert.Contains(t, msg, "failed to update DIGI-894")
	assert.Contains(t, msg, "permission denied")
}

func TestPreviewSnapshotSkipsTrackerRead(t *testing.T) {
	tracker := &fakeTracker{getErr: errors.New("should not be called")}
	gen := &fakeGenerator{output: "ENHANCED DESCRIPTION:\nFine."}

	snap := &jira.Snapshot{Key: "DIGI-7"}
	result := testEnhancer(tracker, gen).PreviewSnapshot(context.Background(), snap, "")

	assert.True(t, result.Success)
	assert.Equal(t, "Fine.", result.EnhancedDescription)
}

func TestNewEnhancerUsesCustomPolicy(t *testing.T) {
	tracker := &fakeTracker{issues: map[string]*jira.Snapshot{
		"DIGI-894": {Key: "DIGI-894"},
	}}
	gen := &fakeGenerator{output: "ENHANCED DESCRIPTION:\nOK"}

	e := NewEnhancer(tracker, gen, "HOUSE RULES:\n- be terse")
	e.Preview(context.Background(), "DIGI-894", "")

	assert.True(t, strings.HasPrefix(gen.prompt, "HOUSE RULES:"))
}
