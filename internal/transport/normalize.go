package transport

import "github.com/iancoleman/strcase"

// Normalize returns a copy of v with every mapping key converted from the
// server's snake_case to the client's camelCase. It descends through nested
// maps and slices; scalars are returned as is.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[CamelKey(k)] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}

// CamelKey converts a single key, e.g. "is_done" to "isDone".
// Keys already in camelCase are unchanged.
func CamelKey(k string) string {
	return strcase.ToLowerCamel(k)
}
