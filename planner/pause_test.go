package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurtener/penguiflow-go/llm"
	"github.com/hurtener/penguiflow-go/store"
)

func TestResumeIdempotencyKeyIsDeterministic(t *testing.T) {
	k1 := resumeIdempotencyKey("token-a", map[string]any{"answer": "yes"})
	k2 := resumeIdempotencyKey("token-a", map[string]any{"answer": "yes"})
	assert.Equal(t, k1, k2)
}

func TestResumeIdempotencyKeyDiffersByToken(t *testing.T) {
	k1 := resumeIdempotencyKey("token-a", "same input")
	k2 := resumeIdempotencyKey("token-b", "same input")
	assert.NotEqual(t, k1, k2)
}

func TestResumeIdempotencyKeyDiffersByInput(t *testing.T) {
	k1 := resumeIdempotencyKey("token-a", "input-1")
	k2 := resumeIdempotencyKey("token-a", "input-2")
	assert.NotEqual(t, k1, k2)
}

func TestSaveAndLoadPauseRoundTrips(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()

	traj := NewTrajectory()
	traj.Append(Step{Thought: "about to call a gated tool", NextNode: "approve"})

	pending := pendingStep{NextNode: "approve", Args: map[string]any{"amount": float64(100)}}
	llmContext := []llm.Message{{Role: llm.RoleUser, Content: "please approve"}}

	token, err := savePause(ctx, st, time.Hour, ReasonApprovalRequired, map[string]any{"amount": float64(100)}, traj, pending, llmContext)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	record, gotTraj, gotPending, gotLLMContext, err := loadPause(ctx, st, token)
	require.NoError(t, err)
	assert.Equal(t, string(ReasonApprovalRequired), record.Reason)
	require.Len(t, gotTraj.Steps, 1)
	assert.Equal(t, "about to call a gated tool", gotTraj.Steps[0].Thought)
	assert.Equal(t, "approve", gotPending.NextNode)
	require.Len(t, gotLLMContext, 1)
	assert.Equal(t, "please approve", gotLLMContext[0].Content)
}

func TestLoadPauseResumesNextSeqFromLastStep(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()

	traj := NewTrajectory()
	traj.Append(Step{Thought: "one"})
	traj.Append(Step{Thought: "two"})
	traj.Append(Step{Thought: "three"})

	token, err := savePause(ctx, st, time.Hour, ReasonAwaitInput, nil, traj, pendingStep{}, nil)
	require.NoError(t, err)

	_, gotTraj, _, _, err := loadPause(ctx, st, token)
	require.NoError(t, err)

	next := gotTraj.Append(Step{Thought: "continuation"})
	assert.Equal(t, 3, next.ActionSeq, "resumed trajectory must continue numbering after the persisted steps")
}

func TestLoadPauseUnknownTokenReturnsNotFound(t *testing.T) {
	st := store.NewMemStore()
	_, _, _, _, err := loadPause(context.Background(), st, "ghost-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPauseErrorMentionsReason(t *testing.T) {
	err := Pause(ReasonExternalEvent, map[string]any{"wait_for": "webhook"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(ReasonExternalEvent))
}
