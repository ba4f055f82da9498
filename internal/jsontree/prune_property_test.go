package jsontree

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

// drawTree generates a random decoded-JSON tree, null leaves included, with
// bounded depth so shrinking stays fast.
func drawTree(t *rapid.T, depth int) any {
	max := 5
	if depth >= 3 {
		max = 3 // leaves only
	}
	switch rapid.IntRange(0, max).Draw(t, "kind") {
	case 0:
		return nil
	case 1:
		return rapid.Bool().Draw(t, "bool")
	case 2:
		return rapid.Float64().Draw(t, "num")
	case 3:
		return rapid.StringMatching(`[a-z0-9./-]{0,12}`).Draw(t, "str")
	case 4:
		n := rapid.IntRange(0, 4).Draw(t, "maplen")
		m := make(map[string]any, n)
		for i := 0; i < n; i++ {
			k := rapid.StringMatching(`[a-z_]{1,8}`).Draw(t, "key")
			m[k] = drawTree(t, depth+1)
		}
		return m
	default:
		n := rapid.IntRange(0, 4).Draw(t, "listlen")
		l := make([]any, 0, n)
		for i := 0; i < n; i++ {
			l = append(l, drawTree(t, depth+1))
		}
		return l
	}
}

func deepCopyTree(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = deepCopyTree(e)
		}
		return out
	case []any:
		out := make([]any, 0, len(x))
		for _, e := range x {
			out = append(out, deepCopyTree(e))
		}
		return out
	default:
		return x
	}
}

func hasNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		for _, e := range x {
			if hasNull(e) {
				return true
			}
		}
		return false
	case []any:
		for _, e := range x {
			if hasNull(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func TestPruneNulls_IdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := drawTree(t, 0)
		once := PruneNulls(in)
		twice := PruneNulls(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("not idempotent:\nonce=%#v\ntwice=%#v", once, twice)
		}
	})
}

func TestPruneNulls_PureAndNullFreeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := drawTree(t, 0)
		orig := deepCopyTree(in)
		out := PruneNulls(in)
		if !reflect.DeepEqual(in, orig) {
			t.Fatalf("input mutated:\nbefore=%#v\nafter=%#v", orig, in)
		}
		// A non-nil result never contains a null at any depth.
		if out != nil && hasNull(out) {
			t.Fatalf("null survived pruning: %#v", out)
		}
	})
}
