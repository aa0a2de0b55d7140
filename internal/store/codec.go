package store

import (
	"encoding/json"
	"strings"
)

// encodeStringList serializes a string list for a JSON text column.
// A nil list is stored as "[]".
func encodeStringList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeStringList reads a string list from either its stored JSON text
// form or a native slice. Malformed input yields an empty list, never an
// error: a damaged labels column must not make a task unreadable.
func DecodeStringList(v any) []string {
	switch x := v.(type) {
	case nil:
		return []string{}
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []byte:
		return decodeJSONList(string(x))
	case string:
		return decodeJSONList(x)
	default:
		return []string{}
	}
}

func decodeJSONList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
