package planner

import (
	"fmt"
	"time"
)

// Budget bounds a planner run: hop count, wall-clock deadline, and
// estimated trajectory token size (spec §4.10).
type Budget struct {
	MaxIters    int
	HopBudget   int
	TokenBudget int
	Deadline    time.Time
}

// ExhaustionReason names why a run hit its budget, surfaced in the
// budget_exhausted finish's metadata.which (spec §4.13).
type ExhaustionReason string

const (
	ExhaustedHops     ExhaustionReason = "hops"
	ExhaustedDeadline ExhaustionReason = "deadline"
	ExhaustedTokens   ExhaustionReason = "tokens"
)

// checkBudget runs the pre-LLM-call checks spec §4.10 requires, in order:
// hops, then deadline, then estimated post-call token size. ok is false
// when any check fails; reason names which one.
func checkBudget(budget Budget, hops int, estimator TokenEstimator, currentText string, nextCallEstimate int) (ok bool, reason ExhaustionReason) {
	if budget.MaxIters > 0 && hops >= budget.MaxIters {
		return false, ExhaustedHops
	}
	if budget.HopBudget > 0 && hops >= budget.HopBudget {
		return false, ExhaustedHops
	}
	if !budget.Deadline.IsZero() && time.Now().After(budget.Deadline) {
		return false, ExhaustedDeadline
	}
	if budget.TokenBudget > 0 {
		projected := estimator.EstimateTokens(currentText) + nextCallEstimate
		if projected > budget.TokenBudget {
			return false, ExhaustedTokens
		}
	}
	return true, ""
}

// Hints carries the planning constraints §4.10 calls "advisory, enforced
// by the validator, not by the LLM".
type Hints struct {
	MaxParallel         int
	AbsoluteMaxParallel int
	SequentialOnly      []string
	ParallelGroups      [][]string
	Ordering            []string
}

// Validate checks the hints' own shape is sane before use, the way
// flow.RetryPolicy.Validate checks policy config before the worker loop
// relies on it.
func (h Hints) Validate() error {
	if h.AbsoluteMaxParallel > 0 && h.MaxParallel > h.AbsoluteMaxParallel {
		return fmt.Errorf("planner: hints: max_parallel %d exceeds absolute_max_parallel %d", h.MaxParallel, h.AbsoluteMaxParallel)
	}
	return nil
}

// validatePlan checks a parsed parallel Action against Hints, returning
// ErrConstraintViolation (wrapped with detail) on violation.
func validatePlan(plan []PlanStep, hints Hints) error {
	if hints.AbsoluteMaxParallel > 0 && len(plan) > hints.AbsoluteMaxParallel {
		return fmt.Errorf("%w: plan has %d branches, absolute_max_parallel is %d", ErrConstraintViolation, len(plan), hints.AbsoluteMaxParallel)
	}

	sequentialOnly := make(map[string]bool, len(hints.SequentialOnly))
	for _, name := range hints.SequentialOnly {
		sequentialOnly[name] = true
	}
	for _, step := range plan {
		if sequentialOnly[step.Node] {
			return fmt.Errorf("%w: node %q is sequential_only and cannot appear in a plan", ErrConstraintViolation, step.Node)
		}
	}

	if len(hints.ParallelGroups) > 0 {
		groupOf := make(map[string]int, len(plan))
		for gi, group := range hints.ParallelGroups {
			for _, name := range group {
				groupOf[name] = gi
			}
		}
		seenGroup := -1
		for _, step := range plan {
			g, ok := groupOf[step.Node]
			if !ok {
				return fmt.Errorf("%w: node %q is not in any allowed parallel_groups", ErrConstraintViolation, step.Node)
			}
			if seenGroup == -1 {
				seenGroup = g
			} else if seenGroup != g {
				return fmt.Errorf("%w: plan spans disallowed parallel_groups", ErrConstraintViolation)
			}
		}
	}

	return nil
}
