package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharEstimatorDefaultsToFourCharsPerToken(t *testing.T) {
	e := CharEstimator{}
	assert.Equal(t, 0, e.EstimateTokens(""))
	assert.Equal(t, 1, e.EstimateTokens("abcd"))
	assert.Equal(t, 2, e.EstimateTokens("abcde"))
}

func TestCharEstimatorHonorsCustomCharsPerToken(t *testing.T) {
	e := CharEstimator{CharsPerToken: 2}
	assert.Equal(t, 3, e.EstimateTokens("abcdef"))
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
	lastArg string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, prefixText string) (string, error) {
	f.calls++
	f.lastArg = prefixText
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func TestCompressNoOpUnderTwoSteps(t *testing.T) {
	traj := NewTrajectory()
	traj.Append(Step{Thought: "only one"})

	s := &fakeSummarizer{summary: "should not be used"}
	err := compress(context.Background(), traj, s)

	require.NoError(t, err)
	assert.Equal(t, 0, s.calls)
	assert.Len(t, traj.Steps, 1)
	assert.Empty(t, traj.Summaries)
}

func TestCompressCollapsesOldestHalfIntoSummary(t *testing.T) {
	traj := NewTrajectory()
	for i := 0; i < 4; i++ {
		traj.Append(Step{Thought: "step"})
	}

	s := &fakeSummarizer{summary: "condensed history"}
	err := compress(context.Background(), traj, s)

	require.NoError(t, err)
	require.Len(t, traj.Summaries, 1)
	assert.Equal(t, "condensed history", traj.Summaries[0].Summary)
	assert.Equal(t, []int{0, 1}, traj.Summaries[0].AnchorSeqs)
	require.Len(t, traj.Steps, 2)
	assert.Equal(t, 2, traj.Steps[0].ActionSeq)
	assert.Equal(t, 3, traj.Steps[1].ActionSeq)
	assert.Equal(t, 1, s.calls)
}

func TestCompressOddStepCountCutsFloorHalf(t *testing.T) {
	traj := NewTrajectory()
	for i := 0; i < 3; i++ {
		traj.Append(Step{Thought: "step"})
	}

	s := &fakeSummarizer{summary: "condensed"}
	require.NoError(t, compress(context.Background(), traj, s))

	assert.Len(t, traj.Steps, 2)
	assert.Equal(t, []int{0}, traj.Summaries[0].AnchorSeqs)
}

func TestCompressPropagatesSummarizerError(t *testing.T) {
	traj := NewTrajectory()
	traj.Append(Step{Thought: "a"})
	traj.Append(Step{Thought: "b"})

	wantErr := errors.New("summarizer unavailable")
	s := &fakeSummarizer{err: wantErr}

	err := compress(context.Background(), traj, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Len(t, traj.Steps, 2, "a failed compression must not mutate the trajectory")
}

func TestTrajectoryTextIncludesSummariesAndSteps(t *testing.T) {
	traj := NewTrajectory()
	traj.Summaries = append(traj.Summaries, SummaryStep{Summary: "earlier work", AnchorSeqs: []int{0, 1}})
	traj.Append(Step{Thought: "look things up", NextNode: "search"})

	text := trajectoryText(traj)
	assert.Contains(t, text, "earlier work")
	assert.Contains(t, text, "look things up")
	assert.Contains(t, text, "next_node=search")
}
