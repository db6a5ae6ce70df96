package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator tracks trajectory size the way spec §4.9 requires: "a
// character-count heuristic or pluggable counter".
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// CharEstimator is the zero-dependency default: a fixed characters-per-
// token heuristic, accurate enough to trigger compression before a real
// provider's tokenizer would reject the request.
type CharEstimator struct {
	// CharsPerToken defaults to 4 (roughly English-text average) when zero.
	CharsPerToken int
}

func (e CharEstimator) EstimateTokens(text string) int {
	perToken := e.CharsPerToken
	if perToken <= 0 {
		perToken = 4
	}
	if len(text) == 0 {
		return 0
	}
	return (len(text) + perToken - 1) / perToken
}

// TiktokenEstimator wraps pkoukk/tiktoken-go for exact provider-compatible
// token counts, the opt-in alternative to CharEstimator.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the named encoding (e.g. "cl100k_base").
func NewTiktokenEstimator(encodingName string) (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("planner: load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TiktokenEstimator{enc: enc}, nil
}

func (e *TiktokenEstimator) EstimateTokens(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// trajectoryText renders the trajectory (and summaries) into the flat text
// a TokenEstimator measures and a summarizer LLM reads.
func trajectoryText(t *Trajectory) string {
	var b strings.Builder
	for _, s := range t.Summaries {
		fmt.Fprintf(&b, "[summary anchors=%v] %s\n", s.AnchorSeqs, s.Summary)
	}
	for _, step := range t.Steps {
		fmt.Fprintf(&b, "[step %d] thought=%s", step.ActionSeq, step.Thought)
		if step.NextNode != "" {
			fmt.Fprintf(&b, " next_node=%s", step.NextNode)
		}
		if len(step.Plan) > 0 {
			fmt.Fprintf(&b, " plan=%d branches", len(step.Plan))
		}
		if len(step.Observation) > 0 {
			fmt.Fprintf(&b, " observation=%s", step.Observation)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Summarizer produces a compressed summary of a trajectory prefix. It is
// typically backed by a cheaper LLM than the planner's main model.
type Summarizer interface {
	Summarize(ctx context.Context, prefixText string) (string, error)
}

// compress replaces the oldest half of t.Steps with a single SummaryStep,
// preserving their action_seq values as AnchorSeqs so later references
// stay resolvable (spec §4.9). A trajectory with fewer than two steps is
// left unchanged — there is nothing safe to collapse.
func compress(ctx context.Context, t *Trajectory, summarizer Summarizer) error {
	if len(t.Steps) < 2 {
		return nil
	}

	cut := len(t.Steps) / 2
	if cut < 1 {
		cut = 1
	}
	prefix := t.Steps[:cut]

	var b strings.Builder
	anchors := make([]int, 0, len(prefix))
	for _, step := range prefix {
		anchors = append(anchors, step.ActionSeq)
		obs, _ := json.Marshal(step.Observation)
		fmt.Fprintf(&b, "step %d: %s -> %s\n", step.ActionSeq, step.Thought, obs)
	}

	summary, err := summarizer.Summarize(ctx, b.String())
	if err != nil {
		return fmt.Errorf("planner: compress trajectory: %w", err)
	}

	t.Summaries = append(t.Summaries, SummaryStep{Summary: summary, AnchorSeqs: anchors})
	t.Steps = t.Steps[cut:]
	return nil
}
