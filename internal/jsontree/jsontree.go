// Package jsontree works on decoded JSON documents as the dynamic trees
// encoding/json produces (map[string]any / []any / string / float64 / bool /
// nil). NekoRay profiles and sing-box outbounds are both loosely shaped, so
// every optional field is probed through Get/Value instead of typed structs.
package jsontree

import (
	"strconv"
	"strings"
)

// Get walks keys from root and reports whether the full path exists. A key
// that is missing, or a step through anything other than a JSON object,
// yields (nil, false); a present JSON null yields (nil, true), so absence and
// null stay distinguishable.
func Get(root any, keys ...string) (any, bool) {
	cur := root
	for _, key := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Value is Get collapsed to the converter's view: an absent path and a
// present null are both nil, and nil fields are dropped later by PruneNulls.
func Value(root any, keys ...string) any {
	v, _ := Get(root, keys...)
	return v
}

// Truthy reports whether v is non-empty in the loose sense used throughout
// the converter: nil, false, zero numbers, empty strings and empty
// containers are all "not set".
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

// Int coerces v to an integer. JSON numbers truncate toward zero; numeric
// strings are accepted after trimming surrounding whitespace.
func Int(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// PruneNulls returns a copy of v with every nil map entry and nil list
// element removed, at every depth. The input tree is never mutated.
func PruneNulls(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if e == nil {
				continue
			}
			out[k] = PruneNulls(e)
		}
		return out
	case []any:
		out := make([]any, 0, len(x))
		for _, e := range x {
			if e == nil {
				continue
			}
			out = append(out, PruneNulls(e))
		}
		return out
	default:
		return x
	}
}
