package flow

// Emission lets a node select which successors receive its output (spec
// §4.1's "selective emission"): a plain return value emits to every
// successor, while an Emission (or []Emission for per-successor payloads)
// narrows or customizes delivery.
type Emission struct {
	Value   any
	Targets []string // empty/nil means every successor
}

// To builds an Emission bound to the named successors. Omit targets to
// mean "every successor" (equivalent to returning value directly).
func To(value any, targets ...string) Emission {
	return Emission{Value: value, Targets: targets}
}

// resolve expands a node's return value into the list of (target, payload)
// pairs to deliver, given the full set of successor names. A plain value or
// an Emission with no Targets fans out to every successor; an Emission with
// Targets (or a []Emission) delivers per-target payloads.
func resolveEmission(value any, successors []string) []targetedPayload {
	switch v := value.(type) {
	case Emission:
		if len(v.Targets) == 0 {
			return fanOutAll(v.Value, successors)
		}
		out := make([]targetedPayload, len(v.Targets))
		for i, t := range v.Targets {
			out[i] = targetedPayload{target: t, payload: v.Value}
		}
		return out
	case []Emission:
		out := make([]targetedPayload, 0, len(v))
		for _, e := range v {
			if len(e.Targets) == 0 {
				out = append(out, fanOutAll(e.Value, successors)...)
				continue
			}
			for _, t := range e.Targets {
				out = append(out, targetedPayload{target: t, payload: e.Value})
			}
		}
		return out
	default:
		return fanOutAll(value, successors)
	}
}

func fanOutAll(value any, successors []string) []targetedPayload {
	out := make([]targetedPayload, len(successors))
	for i, s := range successors {
		out[i] = targetedPayload{target: s, payload: value}
	}
	return out
}

type targetedPayload struct {
	target  string
	payload any
}
