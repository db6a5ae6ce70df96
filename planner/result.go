package planner

// FinishReason classifies a completed (non-paused) planner run (spec
// §4.13).
type FinishReason string

const (
	FinishAnswerComplete  FinishReason = "answer_complete"
	FinishNoPath          FinishReason = "no_path"
	FinishBudgetExhausted FinishReason = "budget_exhausted"
)

// FinishResult is returned when a run terminates without pausing.
type FinishResult struct {
	Reason  FinishReason
	Payload *FinalPayload
	// Metadata carries reason-specific detail: {thought} for no_path,
	// {which:"hops"|"deadline"|"tokens"} for budget_exhausted.
	Metadata map[string]any
}

// Result is the sum type a planner run produces: exactly one of Finish or
// Pause is populated.
type Result struct {
	Finish *FinishResult
	Pause  *PauseResult

	TraceID         string
	AnswerActionSeq int
}
