package planner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ActionKind discriminates the three shapes the LLM's next-action JSON can
// take (spec §4.8).
type ActionKind string

const (
	ActionSequential ActionKind = "sequential"
	ActionParallel   ActionKind = "parallel"
	ActionFinish     ActionKind = "finish"
)

// PlanStep is one branch of a Parallel action.
type PlanStep struct {
	Node string         `json:"node"`
	Args map[string]any `json:"args"`
}

// Join names the node a parallel plan's branches should be merged into.
type Join struct {
	Node string `json:"node"`
}

// FinalPayload is the action's terminal answer, per spec §4.13's
// raw_answer-preferred contract.
type FinalPayload struct {
	RawAnswer  string         `json:"raw_answer"`
	Sources    []string       `json:"sources,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Artifacts  map[string]any `json:"artifacts,omitempty"`
}

// Action is the planner's parsed view of one LLM response: exactly one of
// NextNode (sequential), Plan (parallel), or Final (finish) is populated,
// selected by Kind.
type Action struct {
	Kind    ActionKind
	Thought string

	NextNode string         `json:"next_node,omitempty"`
	Args     map[string]any `json:"args,omitempty"`

	Plan []PlanStep `json:"plan,omitempty"`
	Join *Join      `json:"join,omitempty"`

	Final *FinalPayload `json:"final,omitempty"`
}

// rawAction mirrors the LLM's literal JSON shape before Kind is derived.
type rawAction struct {
	Thought  string         `json:"thought"`
	NextNode string         `json:"next_node"`
	Args     map[string]any `json:"args"`
	Plan     []PlanStep     `json:"plan"`
	Join     *Join          `json:"join"`
	Final    *FinalPayload  `json:"final"`
}

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// ParseAction extracts an Action from raw LLM output: strips surrounding
// prose/code fences, then attempts a direct json.Unmarshal, falling back
// to jsonrepair.JSONRepair (trailing commas, single quotes, unbalanced
// brackets) on failure. Returns ErrMalformedAction if both attempts fail.
func ParseAction(raw string) (Action, error) {
	candidate := extractJSONObject(raw)

	var parsed rawAction
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			return Action{}, fmt.Errorf("%w: %v (repair: %v)", ErrMalformedAction, err, repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrMalformedAction, err)
		}
	}

	return classifyAction(parsed)
}

// extractJSONObject strips prose surrounding a JSON object: prefers a
// fenced ```json ... ``` block, otherwise takes the substring between the
// first '{' and the matching last '}'.
func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := jsonFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

func classifyAction(parsed rawAction) (Action, error) {
	action := Action{Thought: parsed.Thought}

	switch {
	case parsed.Final != nil:
		action.Kind = ActionFinish
		action.Final = parsed.Final
	case len(parsed.Plan) > 0:
		action.Kind = ActionParallel
		action.Plan = parsed.Plan
		action.Join = parsed.Join
	case parsed.NextNode != "":
		action.Kind = ActionSequential
		action.NextNode = parsed.NextNode
		action.Args = parsed.Args
	default:
		return Action{}, fmt.Errorf("%w: no next_node, plan, or final present", ErrMalformedAction)
	}

	return action, nil
}
