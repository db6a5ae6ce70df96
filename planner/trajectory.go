package planner

import "encoding/json"

// Step is one append-only trajectory entry (spec §4.9's "trajectory is an
// append-only list of steps"). ActionSeq is assigned by the planner loop
// and is strictly monotonic per run.
type Step struct {
	ActionSeq int    `json:"action_seq"`
	Thought   string `json:"thought"`

	// Exactly one of NextNode or Plan describes what this step invoked.
	NextNode string         `json:"next_node,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	Plan     []PlanStep     `json:"plan,omitempty"`
	Join     *Join          `json:"join,omitempty"`

	Observation json.RawMessage `json:"observation,omitempty"`
	LatencyMS   int64           `json:"latency_ms"`
	Errored     bool            `json:"errored,omitempty"`

	Reflection string `json:"reflection,omitempty"`
}

// SummaryStep replaces a compressed prefix of steps. AnchorSeqs lists the
// ActionSeq values it summarizes, so downstream references to "step N"
// remain resolvable after compression (spec §4.9).
type SummaryStep struct {
	Summary    string `json:"summary"`
	AnchorSeqs []int  `json:"anchor_seqs"`
}

// Trajectory is the append-only log the planner builds as it runs, plus
// any summary steps produced by compression.
type Trajectory struct {
	Steps     []Step        `json:"steps"`
	Summaries []SummaryStep `json:"summaries,omitempty"`
	nextSeq   int
}

// NewTrajectory returns an empty trajectory ready for the first step.
func NewTrajectory() *Trajectory {
	return &Trajectory{}
}

// Append assigns the next action_seq to step and appends it.
func (t *Trajectory) Append(step Step) Step {
	step.ActionSeq = t.nextSeq
	t.nextSeq++
	t.Steps = append(t.Steps, step)
	return step
}

// NextSeq returns the action_seq the next Append call will assign, which
// is one past the terminal step's seq once the run finishes.
func (t *Trajectory) NextSeq() int { return t.nextSeq }
