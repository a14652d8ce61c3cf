package render

import (
	"fmt"
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)*)\s*\}\}`)

// ResolveText replaces {{a.b.c}} tokens with the value found at the
// dotted path in the binding context. An unresolved path leaves the
// token literal rather than failing.
func ResolveText(template string, bindings map[string]any) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}
	return tokenRe.ReplaceAllStringFunc(template, func(tok string) string {
		path := tokenRe.FindStringSubmatch(tok)[1]
		v, ok := lookup(bindings, strings.Split(path, "."))
		if !ok {
			return tok
		}
		return stringify(v)
	})
}

func lookup(bindings map[string]any, path []string) (any, bool) {
	var cur any = bindings
	for _, seg := range path {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		// JSON numbers arrive as float64; print integers without decimals.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
