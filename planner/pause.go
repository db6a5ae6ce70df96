package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hurtener/penguiflow-go/llm"
	"github.com/hurtener/penguiflow-go/store"
)

// PauseReason classifies why a tool suspended the planner (spec §4.12).
type PauseReason string

const (
	ReasonApprovalRequired    PauseReason = "approval_required"
	ReasonAwaitInput          PauseReason = "await_input"
	ReasonExternalEvent       PauseReason = "external_event"
	ReasonConstraintsConflict PauseReason = "constraints_conflict"
)

// pauseSignal is returned as a tool's error to request suspension. The
// planner loop recognizes it with errors.As rather than a sentinel value,
// since it carries per-call reason/payload.
type pauseSignal struct {
	Reason  PauseReason
	Payload any
}

func (p *pauseSignal) Error() string {
	return fmt.Sprintf("planner: pause requested (%s)", p.Reason)
}

// Pause is called by a tool's flow.Node implementation to suspend the
// planner run. Returning this as the node's error (with a nil value)
// causes Planner.Run to serialize and persist the run instead of treating
// it as a tool failure.
func Pause(reason PauseReason, payload any) error {
	return &pauseSignal{Reason: reason, Payload: payload}
}

// PauseResult is the shape handed back to the caller of Run/Resume when a
// tool suspends the planner (spec §6's "Planner pause result").
type PauseResult struct {
	PauseToken string
	Reason     PauseReason
	Payload    any
}

// pendingStep captures the action that was in flight when a pause fired,
// so Resume can re-deliver the user's input as that step's observation.
type pendingStep struct {
	NextNode string         `json:"next_node,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
}

// newResumeToken mints an opaque, unguessable pause token.
func newResumeToken() string {
	return uuid.NewString()
}

// resumeIdempotencyKey hashes (token, userInput) so a repeated Resume call
// with identical arguments returns the original outcome rather than
// re-executing, ported from the teacher's checkpoint idempotency-key
// construction (sha256 over the identifying fields, hex-encoded).
func resumeIdempotencyKey(token string, userInput any) string {
	h := sha256.New()
	h.Write([]byte(token))
	if data, err := json.Marshal(userInput); err == nil {
		h.Write(data)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// savePause persists a pause record and returns the minted token.
func savePause(ctx context.Context, st store.Store, ttl time.Duration, reason PauseReason, payload any, traj *Trajectory, pending pendingStep, llmContext []llm.Message) (string, error) {
	token := newResumeToken()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("planner: marshal pause payload: %w", err)
	}
	trajJSON, err := json.Marshal(traj)
	if err != nil {
		return "", fmt.Errorf("planner: marshal trajectory: %w", err)
	}
	pendingJSON, err := json.Marshal(pending)
	if err != nil {
		return "", fmt.Errorf("planner: marshal pending step: %w", err)
	}
	llmJSON, err := json.Marshal(llmContext)
	if err != nil {
		return "", fmt.Errorf("planner: marshal llm context: %w", err)
	}

	record := store.PauseRecord{
		Reason:      string(reason),
		Payload:     payloadJSON,
		Trajectory:  trajJSON,
		PendingStep: pendingJSON,
		LLMContext:  llmJSON,
		CreatedAt:   time.Now(),
	}
	if err := st.SavePause(ctx, token, record, ttl); err != nil {
		return "", fmt.Errorf("planner: save pause: %w", err)
	}
	return token, nil
}

// loadPause restores a pause record into its component parts.
func loadPause(ctx context.Context, st store.Store, token string) (store.PauseRecord, *Trajectory, pendingStep, []llm.Message, error) {
	record, err := st.LoadPause(ctx, token)
	if err != nil {
		return store.PauseRecord{}, nil, pendingStep{}, nil, err
	}

	traj := &Trajectory{}
	if err := json.Unmarshal(record.Trajectory, traj); err != nil {
		return store.PauseRecord{}, nil, pendingStep{}, nil, fmt.Errorf("planner: unmarshal trajectory: %w", err)
	}
	traj.nextSeq = traj.NextSeq()
	if len(traj.Steps) > 0 {
		traj.nextSeq = traj.Steps[len(traj.Steps)-1].ActionSeq + 1
	}

	var pending pendingStep
	if err := json.Unmarshal(record.PendingStep, &pending); err != nil {
		return store.PauseRecord{}, nil, pendingStep{}, nil, fmt.Errorf("planner: unmarshal pending step: %w", err)
	}

	var llmContext []llm.Message
	if err := json.Unmarshal(record.LLMContext, &llmContext); err != nil {
		return store.PauseRecord{}, nil, pendingStep{}, nil, fmt.Errorf("planner: unmarshal llm context: %w", err)
	}

	return record, traj, pending, llmContext, nil
}
