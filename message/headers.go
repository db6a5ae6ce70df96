// Package message defines the typed envelope, headers, and domain payloads
// (working memory, final answer) that flow through the graph runtime and the
// planner.
package message

import (
	"encoding/json"
	"errors"
)

// ErrMissingTenant is returned when constructing Headers without a tenant.
var ErrMissingTenant = errors.New("message: tenant is required")

// Headers carries immutable routing metadata for a message. Headers are
// never mutated after construction; routing policies read Headers, never
// Meta.
type Headers struct {
	tenant   string
	topic    string
	priority int
}

// NewHeaders constructs Headers. tenant is required; topic and priority are
// optional routing hints.
func NewHeaders(tenant, topic string, priority int) (Headers, error) {
	if tenant == "" {
		return Headers{}, ErrMissingTenant
	}
	return Headers{tenant: tenant, topic: topic, priority: priority}, nil
}

// Tenant returns the required tenant identifier.
func (h Headers) Tenant() string { return h.tenant }

// Topic returns the optional topic, or "" if unset.
func (h Headers) Topic() string { return h.topic }

// Priority returns the optional integer priority (default 0).
func (h Headers) Priority() int { return h.priority }

// headersWire is the on-the-wire JSON shape from spec §6:
// {tenant, topic?, priority}.
type headersWire struct {
	Tenant   string `json:"tenant"`
	Topic    string `json:"topic,omitempty"`
	Priority int    `json:"priority"`
}

// MarshalJSON implements json.Marshaler per the bridged wire format.
func (h Headers) MarshalJSON() ([]byte, error) {
	return json.Marshal(headersWire{Tenant: h.tenant, Topic: h.topic, Priority: h.priority})
}

// UnmarshalJSON implements json.Unmarshaler per the bridged wire format.
func (h *Headers) UnmarshalJSON(data []byte) error {
	var w headersWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Tenant == "" {
		return ErrMissingTenant
	}
	h.tenant = w.Tenant
	h.topic = w.Topic
	h.priority = w.Priority
	return nil
}
