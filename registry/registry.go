// Package registry compiles and caches the JSON Schemas nodes declare for
// their input/output contracts (spec §4.2's "every node declares a
// validated input/output contract") and is the source the planner's typed
// tool catalog (spec §5.2) is derived from.
package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError reports a schema violation with the same structured
// field-path information `santhosh-tekuri/jsonschema/v6` attaches to its
// own errors (spec §4.2's "validation failures must carry the offending
// field path, not just a message").
type ValidationError struct {
	NodeName         string
	InstanceLocation string
	KeywordLocation  string
	Message          string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed at %q (%s): %s", e.NodeName, e.InstanceLocation, e.KeywordLocation, e.Message)
}

// Schema is a compiled, validate-ready JSON Schema bound to a node's input
// or output contract.
type Schema struct {
	name     string
	nodeName string
	compiled *jsonschema.Schema
	raw      json.RawMessage
}

// Validate checks value (already decoded into a generic JSON-compatible
// shape: map[string]any, []any, or a scalar) against the compiled schema,
// returning a *ValidationError on the first failure the underlying library
// reports.
func (s *Schema) Validate(value any) error {
	if s.compiled == nil {
		return nil
	}
	if err := s.compiled.Validate(value); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return &ValidationError{
				NodeName:         s.nodeName,
				InstanceLocation: joinLocation(verr.InstanceLocation),
				KeywordLocation:  joinLocation(verr.KeywordLocation),
				Message:          verr.Error(),
			}
		}
		return &ValidationError{NodeName: s.nodeName, Message: err.Error()}
	}
	return nil
}

func joinLocation(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	out := ""
	for _, seg := range segments {
		out += "/" + seg
	}
	return out
}

// Registry compiles and caches schemas keyed by node name + kind (input vs
// output), so repeated validation in the node worker loop (spec §4.2's
// validate-before/validate-after envelope) never recompiles.
//
// Grounded on goadesign-goa-ai/registry/service.go's
// validatePayloadJSONAgainstSchema: same compile-with-jsonschema.NewCompiler
// + AddResource + Compile + Validate shape, generalized from a one-shot
// per-call compile into a cached Registry so the hot node-worker path never
// pays compilation cost per frame.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Register compiles schemaJSON (a raw JSON Schema document) and caches it
// under nodeName+kind (e.g. "input" or "output"). Calling Register again
// with the same nodeName+kind replaces the cached schema.
func (r *Registry) Register(nodeName, kind string, schemaJSON []byte) (*Schema, error) {
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("registry: unmarshal schema for %s/%s: %w", nodeName, kind, err)
	}

	key := schemaKey(nodeName, kind)
	c := jsonschema.NewCompiler()
	if err := c.AddResource(key, doc); err != nil {
		return nil, fmt.Errorf("registry: add schema resource for %s/%s: %w", nodeName, kind, err)
	}
	compiled, err := c.Compile(key)
	if err != nil {
		return nil, fmt.Errorf("registry: compile schema for %s/%s: %w", nodeName, kind, err)
	}

	schema := &Schema{name: key, nodeName: nodeName, compiled: compiled, raw: json.RawMessage(schemaJSON)}

	r.mu.Lock()
	r.schemas[key] = schema
	r.mu.Unlock()

	return schema, nil
}

// Lookup returns the cached schema for nodeName+kind, or nil if none was
// registered (an unregistered schema is treated as "accept anything" by
// callers, per spec §4.2's "nodes without a declared schema skip
// validation").
func (r *Registry) Lookup(nodeName, kind string) *Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[schemaKey(nodeName, kind)]
}

// RawSchema returns the raw JSON Schema document registered for
// nodeName+kind, used by the planner's tool catalog (spec §5.2) to expose
// a node's input contract to the model without recompiling it.
func (r *Registry) RawSchema(nodeName, kind string) (json.RawMessage, bool) {
	r.mu.RLock()
	schema, ok := r.schemas[schemaKey(nodeName, kind)]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return schema.raw, true
}

func schemaKey(nodeName, kind string) string {
	return nodeName + "/" + kind
}
