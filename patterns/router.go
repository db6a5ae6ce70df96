package patterns

import "github.com/hurtener/penguiflow-go/flow"

// PredicateRoute pairs a successor name with the predicate that selects it
// (spec §4.4's "router (predicate)": "inspects payload/headers and returns
// a selective-emission directive choosing a subset of its successors by
// name").
type PredicateRoute struct {
	Target    string
	Predicate func(ctx *flow.Context, payload any) bool
}

// PredicateRouter builds a flow.Node that evaluates routes in order and
// emits payload to every route whose predicate matches. If no route
// matches and fallback is non-empty, payload is emitted there instead.
func PredicateRouter(routes []PredicateRoute, fallback ...string) flow.Node {
	return flow.Func(func(ctx *flow.Context, payload any) (any, error) {
		var targets []string
		for _, r := range routes {
			if r.Predicate(ctx, payload) {
				targets = append(targets, r.Target)
			}
		}
		if len(targets) == 0 {
			targets = fallback
		}
		if len(targets) == 0 {
			return nil, nil
		}
		return flow.To(payload, targets...), nil
	})
}

// UnionRoute pairs a discriminant tag with the successor whose input
// schema matches that variant (spec §4.4's "router (union)": "typed over a
// discriminated union; each variant routes to a distinct successor whose
// input type matches that variant").
type UnionRoute struct {
	Tag    string
	Target string
}

// UnionRouter builds a flow.Node that reads discriminant from the decoded
// payload (a map[string]any, the shape JSON-decoded union payloads arrive
// in) and routes to the matching UnionRoute's Target. tagField names the
// discriminant key, e.g. "type" or "kind".
func UnionRouter(tagField string, routes []UnionRoute) flow.Node {
	index := make(map[string]string, len(routes))
	for _, r := range routes {
		index[r.Tag] = r.Target
	}
	return flow.Func(func(ctx *flow.Context, payload any) (any, error) {
		m, ok := payload.(map[string]any)
		if !ok {
			return nil, &flow.Error{Message: "union router payload is not an object", Code: "INVALID_UNION_PAYLOAD"}
		}
		tag, _ := m[tagField].(string)
		target, ok := index[tag]
		if !ok {
			return nil, &flow.Error{Message: "no route for union tag " + tag, Code: "UNKNOWN_UNION_TAG"}
		}
		return flow.To(payload, target), nil
	})
}
