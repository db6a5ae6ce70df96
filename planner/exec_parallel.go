package planner

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/hurtener/penguiflow-go/message"
)

// branchResult is one parallel plan branch's outcome (spec §4.11's "each
// branch produces either a typed observation or a structured error").
type branchResult struct {
	Index  int
	Node   string
	Args   map[string]any
	Output any
	Err    error
}

// joinOutcome summarizes §4.11's composite observation.
type joinOutcome struct {
	Status   string   `json:"status"`
	Reason   string   `json:"reason,omitempty"`
	Output   any      `json:"output,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

// parallelObservation is the structured observation appended to the
// trajectory for a parallel step.
type parallelObservation struct {
	Branches []branchObservation `json:"branches"`
	Stats    struct {
		Success int `json:"success"`
		Failed  int `json:"failed"`
	} `json:"stats"`
	Join *joinOutcome `json:"join,omitempty"`
}

type branchObservation struct {
	Node   string         `json:"node"`
	Args   map[string]any `json:"args,omitempty"`
	Output any            `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// wellKnownJoinFields is the field set detectJoinFields matches against a
// join node's compiled input schema, per SPEC_FULL's Open Question #3
// decision.
var wellKnownJoinFields = []string{"results", "expect", "branches", "failures", "success_count", "failure_count"}

// detectJoinFields inspects the join node's input schema's top-level
// "properties" object and returns which of wellKnownJoinFields are
// present. results and expect are always marked present, whether or not
// the schema declares them; the other fields are set only when declared.
func detectJoinFields(inputSchema []byte) map[string]bool {
	present := make(map[string]bool, len(wellKnownJoinFields))
	if len(inputSchema) == 0 {
		// No schema registered: inject the mandatory pair only.
		present["results"] = true
		present["expect"] = true
		return present
	}

	var schema struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(inputSchema, &schema); err != nil || schema.Properties == nil {
		present["results"] = true
		present["expect"] = true
		return present
	}
	for _, name := range wellKnownJoinFields {
		if _, ok := schema.Properties[name]; ok {
			present[name] = true
		}
	}
	present["results"] = true
	present["expect"] = true
	return present
}

// executeParallel runs every branch of a plan concurrently, then — if
// join was requested and every branch succeeded — invokes the join node
// with auto-injected fields (spec §4.11, steps 2-6). If any branch asked
// to pause the planner, executeParallel returns that pauseSignal instead
// of an observation — a pause anywhere in a fan-out suspends the whole
// step, since there is no meaningful partial-plan resumption.
func executeParallel(ctx context.Context, catalog *Catalog, traceID string, headers message.Headers, plan []PlanStep, join *Join) (parallelObservation, error) {
	results := make([]branchResult, len(plan))

	var wg sync.WaitGroup
	for i, step := range plan {
		wg.Add(1)
		go func(i int, step PlanStep) {
			defer wg.Done()
			output, err := invokeTool(ctx, catalog, traceID, headers, step.Node, step.Args)
			results[i] = branchResult{Index: i, Node: step.Node, Args: step.Args, Output: output, Err: err}
		}(i, step)
	}
	wg.Wait()

	for _, r := range results {
		var pause *pauseSignal
		if errors.As(r.Err, &pause) {
			return parallelObservation{}, pause
		}
	}

	obs := parallelObservation{Branches: make([]branchObservation, len(results))}
	var successes []branchResult
	var failures []branchResult
	for i, r := range results {
		bo := branchObservation{Node: r.Node, Args: r.Args}
		if r.Err != nil {
			bo.Error = r.Err.Error()
			failures = append(failures, r)
		} else {
			bo.Output = r.Output
			successes = append(successes, r)
		}
		obs.Branches[i] = bo
	}
	obs.Stats.Success = len(successes)
	obs.Stats.Failed = len(failures)

	if join == nil {
		return obs, nil
	}

	if len(failures) > 0 {
		failNames := make([]string, 0, len(failures))
		for _, f := range failures {
			failNames = append(failNames, f.Node)
		}
		obs.Join = &joinOutcome{Status: "skipped", Reason: "branch_failures", Failures: failNames}
		return obs, nil
	}

	entry, ok := catalog.Lookup(join.Node)
	if !ok {
		obs.Join = &joinOutcome{Status: "skipped", Reason: "join node not found"}
		return obs, nil
	}

	fields := detectJoinFields(entry.InputSchema)

	outputs := make([]any, len(successes))
	for i, s := range successes {
		outputs[i] = s.Output
	}
	branchNames := make([]string, len(successes))
	for i, s := range successes {
		branchNames[i] = s.Node
	}
	failNames := make([]string, len(failures))
	for i, f := range failures {
		failNames[i] = f.Node
	}
	branchInputs := make([]map[string]any, len(plan))
	for i, step := range plan {
		branchInputs[i] = map[string]any{"node": step.Node, "args": step.Args}
	}

	joinArgs := map[string]any{}
	if fields["results"] {
		joinArgs["results"] = outputs
	}
	if fields["expect"] {
		joinArgs["expect"] = len(plan)
	}
	if fields["branches"] {
		joinArgs["branches"] = branchNames
	}
	if fields["failures"] {
		joinArgs["failures"] = failNames
	}
	if fields["success_count"] {
		joinArgs["success_count"] = len(successes)
	}
	if fields["failure_count"] {
		joinArgs["failure_count"] = len(failures)
	}

	// spec §4.11 point 5: the join node's ctx.Meta() additionally carries
	// these parallel_* fields regardless of which args the node's schema
	// declared, so a join node can read the same information out of the
	// Context instead of (or in addition to) its typed payload.
	joinMeta := map[string]any{
		"parallel_results":       outputs,
		"parallel_success_count": len(successes),
		"parallel_failure_count": len(failures),
		"parallel_failures":      failNames,
		"parallel_input":         branchInputs,
	}

	joinOutput, err := invokeTool(ctx, catalog, traceID, headers, join.Node, joinArgs, joinMeta)
	if err != nil {
		var pause *pauseSignal
		if errors.As(err, &pause) {
			return parallelObservation{}, pause
		}
		obs.Join = &joinOutcome{Status: "error", Reason: err.Error()}
		return obs, nil
	}
	obs.Join = &joinOutcome{Status: "completed", Output: joinOutput}
	return obs, nil
}
