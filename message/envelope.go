package message

import (
	"encoding/json"
	"time"
)

// Envelope carries a typed payload plus routing headers, a stable trace_id,
// a timestamp, an optional deadline, and a mutable Meta map for auxiliary
// per-run data. Meta is never used for routing decisions; only Headers is.
//
// Type parameter T is the payload type, validated against the registry's
// schema for the node that produced or will consume this envelope.
type Envelope[T any] struct {
	Payload   T
	Headers   Headers
	TraceID   string
	Timestamp time.Time
	Deadline  *time.Time
	Meta      map[string]any
}

// New constructs an Envelope, generating a trace_id if traceID is empty and
// stamping Timestamp with now.
func New[T any](payload T, headers Headers, traceID string) Envelope[T] {
	if traceID == "" {
		traceID = NewTraceID()
	}
	return Envelope[T]{
		Payload:   payload,
		Headers:   headers,
		TraceID:   traceID,
		Timestamp: time.Now().UTC(),
		Meta:      make(map[string]any),
	}
}

// WithMeta returns a shallow copy of e with key set to value in Meta. The
// original envelope's Meta map is left untouched.
func (e Envelope[T]) WithMeta(key string, value any) Envelope[T] {
	next := e
	next.Meta = make(map[string]any, len(e.Meta)+1)
	for k, v := range e.Meta {
		next.Meta[k] = v
	}
	next.Meta[key] = value
	return next
}

// Derive builds a successor envelope carrying a new payload but inheriting
// this envelope's trace_id, headers, and deadline — the shape every node
// invocation uses to produce its output message.
func Derive[In, Out any](parent Envelope[In], payload Out) Envelope[Out] {
	return Envelope[Out]{
		Payload:   payload,
		Headers:   parent.Headers,
		TraceID:   parent.TraceID,
		Timestamp: time.Now().UTC(),
		Deadline:  parent.Deadline,
		Meta:      parent.Meta,
	}
}

// SanitizedMeta returns the subset of Meta whose values are JSON-serializable,
// for filtering at the LLM-visible context / playbook-forwarding boundary
// (spec §9: "the full map remains available to tool invocations" but the
// serialization boundary filters non-serializable values).
func (e Envelope[T]) SanitizedMeta() map[string]any {
	out := make(map[string]any, len(e.Meta))
	for k, v := range e.Meta {
		if _, err := json.Marshal(v); err == nil {
			out[k] = v
		}
	}
	return out
}

// wireEnvelope is the JSON shape from spec §6:
// {payload, headers, trace_id, ts, deadline?, meta}.
type wireEnvelope[T any] struct {
	Payload   T              `json:"payload"`
	Headers   Headers        `json:"headers"`
	TraceID   string         `json:"trace_id"`
	Timestamp time.Time      `json:"ts"`
	Deadline  *time.Time     `json:"deadline,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// MarshalJSON implements json.Marshaler per the bridged wire format.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope[T]{
		Payload:   e.Payload,
		Headers:   e.Headers,
		TraceID:   e.TraceID,
		Timestamp: e.Timestamp,
		Deadline:  e.Deadline,
		Meta:      e.Meta,
	})
}

// UnmarshalJSON implements json.Unmarshaler per the bridged wire format.
func (e *Envelope[T]) UnmarshalJSON(data []byte) error {
	var w wireEnvelope[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Payload = w.Payload
	e.Headers = w.Headers
	e.TraceID = w.TraceID
	e.Timestamp = w.Timestamp
	e.Deadline = w.Deadline
	e.Meta = w.Meta
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	return nil
}
