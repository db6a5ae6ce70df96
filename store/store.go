// Package store implements the StateStore protocol (spec §6): durable
// pause/resume records and optional per-trace event history, with
// in-memory, SQLite, and Redis backends.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hurtener/penguiflow-go/emit"
)

// ErrNotFound is returned by LoadPause for an unknown or expired token, and
// surfaced to planner callers as the distinct "not found" spec §7 requires
// for "resume with unknown/expired token". Ported from
// dshills-langgraph-go/graph/store.ErrNotFound.
var ErrNotFound = errors.New("store: not found")

// PauseRecord is the durable record a paused planner run is serialized
// into (spec §4.12: "serializes the full trajectory, the pending action,
// the reason, payload, and llm_context into a durable record keyed by an
// opaque resume_token").
type PauseRecord struct {
	Token       string          `json:"token"`
	Reason      string          `json:"reason"`
	Payload     json.RawMessage `json:"payload"`
	Trajectory  json.RawMessage `json:"trajectory"`
	PendingStep json.RawMessage `json:"pending_step"`
	LLMContext  json.RawMessage `json:"llm_context"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Store implements the StateStore protocol (spec §6): pause/resume
// durability plus optional per-trace event history. Implementations must
// be safe for concurrent access by multiple planner runs and guarantee
// last-write-wins per token on save.
//
// Generalized from dshills-langgraph-go/graph/store.Store[S]'s much
// broader checkpoint/step/idempotency surface (that engine persists full
// workflow state for deterministic replay) down to spec §6's narrower
// contract: this runtime's durability concern is pause/resume tokens and
// an optional event log, not state snapshots — the graph itself has no
// shared state to checkpoint.
type Store interface {
	// SavePause persists record under token with a time-to-live. A second
	// SavePause for the same token overwrites the first (last-write-wins).
	SavePause(ctx context.Context, token string, record PauseRecord, ttl time.Duration) error

	// LoadPause retrieves the record saved under token, or ErrNotFound if
	// it doesn't exist or has expired.
	LoadPause(ctx context.Context, token string) (PauseRecord, error)

	// DeletePause removes token's record. Idempotent: deleting an unknown
	// token is not an error.
	DeletePause(ctx context.Context, token string) error

	// AppendEvent durably records ev under traceID, for implementations
	// that offer trace replay. Optional: implementations may no-op.
	AppendEvent(ctx context.Context, traceID string, ev emit.Event) error

	// ListEvents returns every event appended under traceID, in append
	// order. Optional: implementations that no-op AppendEvent return nil.
	ListEvents(ctx context.Context, traceID string) ([]emit.Event, error)
}
