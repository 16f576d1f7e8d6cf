package content

import "strings"

// PredicateKey is the context key under which callers may install a
// map[string]func(Context) bool of custom predicates. The table is consulted
// by "custom" conditions and stripped from event snapshots and cache keys.
const PredicateKey = "predicates"

// Context is the caller-supplied snapshot of player/environment/world state.
// It is an open map of named values; well-known nested shapes are
// environment{weather,season,location}, relationships{id:number},
// inventory:[string], and quests:[string].
type Context map[string]any

// Lookup resolves a dot-path ("environment.weather", "level") against the
// context. Each intermediate segment must be a map.
func (c Context) Lookup(path string) (any, bool) {
	if c == nil {
		return nil, false
	}
	var cur any = map[string]any(c)
	for _, seg := range strings.Split(path, ".") {
		m, ok := asStringMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Number resolves a dot-path to a numeric value. YAML and JSON decoding
// produce a mix of int and float64, so both are accepted.
func (c Context) Number(path string) (float64, bool) {
	v, ok := c.Lookup(path)
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

// Strings returns the string list stored under key (inventory, quests).
// Both []string and the []any produced by generic decoding are accepted.
func (c Context) Strings(key string) []string {
	v, ok := c.Lookup(key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Relationship returns the strength of the named relationship.
func (c Context) Relationship(id string) (float64, bool) {
	return c.Number("relationships." + id)
}

// Predicates returns the caller-installed custom predicate table, if any.
func (c Context) Predicates() map[string]func(Context) bool {
	if c == nil {
		return nil
	}
	tbl, _ := c[PredicateKey].(map[string]func(Context) bool)
	return tbl
}

// Snapshot returns a deep copy of the context suitable for embedding in an
// emitted event. The predicate table is dropped: it is not data and would
// break JSON serialization of archived events.
func (c Context) Snapshot() Context {
	if c == nil {
		return Context{}
	}
	out := make(Context, len(c))
	for k, v := range c {
		if k == PredicateKey {
			continue
		}
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopyValue(item)
		}
		return out
	case Context:
		return map[string]any(val.Snapshot())
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case map[string]float64:
		out := make(map[string]float64, len(val))
		for k, item := range val {
			out[k] = item
		}
		return out
	default:
		return v
	}
}

func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Context:
		return map[string]any(m), true
	}
	return nil, false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
