package message

import "github.com/google/uuid"

// NewTraceID returns a fresh, globally unique trace identifier. It is used
// at ingress whenever a caller does not supply one; once assigned a
// trace_id is immutable and propagates through every downstream message and
// chunk derived from it.
func NewTraceID() string {
	return uuid.NewString()
}
