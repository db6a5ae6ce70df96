package planner

import "errors"

var (
	// ErrUnknownNode is returned when an LLM-proposed action names a node
	// not present in the catalog offered to it.
	ErrUnknownNode = errors.New("planner: unknown node in action")

	// ErrMalformedAction is returned when the LLM's output could not be
	// parsed as a valid action even after JSON repair.
	ErrMalformedAction = errors.New("planner: malformed action")

	// ErrConstraintViolation is returned when a parsed plan action
	// violates a planning hint (absolute_max_parallel, sequential_only,
	// parallel_groups).
	ErrConstraintViolation = errors.New("planner: plan violates constraints")

	// ErrPauseNotFound is returned by Resume when the token is unknown or
	// its state-store record has expired.
	ErrPauseNotFound = errors.New("planner: pause token not found")
)

// Error wraps a planner failure with the run's trace id for correlation,
// mirroring flow.Error's Code/Cause shape for the planner's own surface.
type Error struct {
	TraceID string
	Code    string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Code
	}
	return e.Code + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }
