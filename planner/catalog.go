package planner

import (
	"encoding/json"
	"time"

	"github.com/hurtener/penguiflow-go/flow"
	"github.com/hurtener/penguiflow-go/message"
	"github.com/hurtener/penguiflow-go/registry"
)

// ToolMeta is the planner-only metadata a node+registry pairing needs to
// become a catalog entry (spec §3's "Tool catalog entry"): description,
// tags, side-effect classification, and a latency hint, none of which the
// flow runtime itself needs.
type ToolMeta struct {
	Name        string
	Node        flow.Node
	Description string
	Tags        []string
	SideEffects bool
	LatencyHint time.Duration

	// VisibleTo, if set, restricts which tenants/roles (read from a
	// message.Headers field the caller chooses, e.g. headers.Tenant) may
	// see this tool in their catalog. Nil means visible to everyone.
	VisibleTo func(headers message.Headers) bool
}

// ToolEntry is one resolved catalog entry: ToolMeta plus the compiled
// input/output schemas looked up from the registry.
type ToolEntry struct {
	ToolMeta
	InputSchema  json.RawMessage
	OutputSchema json.RawMessage
}

// Catalog is the set of tools a planner run may invoke, built once from a
// registry and a set of ToolMeta entries, then filtered per-run by
// headers-based policy.
type Catalog struct {
	entries map[string]ToolEntry
	order   []string
}

// NewCatalog resolves each meta's schemas from reg and returns a Catalog.
// Nodes with no registered schema are included with empty schemas (an
// unvalidated tool, same as an unregistered flow node).
func NewCatalog(reg *registry.Registry, metas []ToolMeta) *Catalog {
	c := &Catalog{entries: make(map[string]ToolEntry, len(metas))}
	for _, m := range metas {
		entry := ToolEntry{ToolMeta: m}
		if raw, ok := reg.RawSchema(m.Name, "input"); ok {
			entry.InputSchema = raw
		}
		if raw, ok := reg.RawSchema(m.Name, "output"); ok {
			entry.OutputSchema = raw
		}
		c.entries[m.Name] = entry
		c.order = append(c.order, m.Name)
	}
	return c
}

// Visible returns the catalog entries a caller with headers may see, in
// registration order, implementing spec §4.10's "tool filtering by
// policy: hidden nodes do not appear in the catalog sent to the LLM".
func (c *Catalog) Visible(headers message.Headers) []ToolEntry {
	out := make([]ToolEntry, 0, len(c.order))
	for _, name := range c.order {
		entry := c.entries[name]
		if entry.VisibleTo != nil && !entry.VisibleTo(headers) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Lookup returns the entry for name, or false if unknown or not present
// in the catalog (regardless of visibility filtering).
func (c *Catalog) Lookup(name string) (ToolEntry, bool) {
	entry, ok := c.entries[name]
	return entry, ok
}

// Node returns the flow.Node backing name, for direct tool invocation.
func (c *Catalog) Node(name string) (flow.Node, bool) {
	entry, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Node, true
}
