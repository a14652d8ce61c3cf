package render

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
)

// HTML serializes the resolved tree for thin hosts that only splice
// markup. Styling is inlined; text and attributes are escaped.
func (o *Output) HTML() string {
	var b strings.Builder
	if o.Root != nil {
		writeNode(&b, o.Root)
	}
	return b.String()
}

func writeNode(w io.Writer, n *RenderedNode) {
	tag, void := htmlTag(n)

	fmt.Fprintf(w, "<%s", tag)
	if n.ID != "" {
		fmt.Fprintf(w, ` id=%q`, html.EscapeString(n.ID))
	}
	if n.Action != nil {
		fmt.Fprintf(w, ` data-action=%q`, html.EscapeString(string(n.Action.Kind)))
	}
	writeAttrs(w, n)
	if s := styleAttr(n.Style); s != "" {
		fmt.Fprintf(w, ` style=%q`, s)
	}
	if void {
		io.WriteString(w, "/>")
		return
	}
	io.WriteString(w, ">")

	if n.Text != "" {
		io.WriteString(w, html.EscapeString(n.Text))
	}
	for _, child := range n.Children {
		writeNode(w, child)
	}
	fmt.Fprintf(w, "</%s>", tag)
}

func htmlTag(n *RenderedNode) (tag string, void bool) {
	switch n.Kind {
	case KindSection:
		return "section", false
	case KindText:
		return "p", false
	case KindHeading:
		lvl := n.Attrs["level"]
		if lvl == "" {
			lvl = "2"
		}
		return "h" + lvl, false
	case KindButton:
		return "button", false
	case KindImage:
		return "img", true
	case KindLink:
		return "a", false
	case KindInput:
		return "input", true
	case KindDivider:
		return "hr", true
	case KindIcon:
		return "span", false
	default: // container, spacer, form-embed, cards, unknown
		return "div", false
	}
}

func writeAttrs(w io.Writer, n *RenderedNode) {
	if len(n.Attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		if k == "level" { // consumed by the tag name
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if k == "inputType" {
			name = "type"
		}
		fmt.Fprintf(w, ` %s=%q`, name, html.EscapeString(n.Attrs[k]))
	}
}

func styleAttr(style map[string]string) string {
	if len(style) == 0 {
		return ""
	}
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, cssName(k)+":"+style[k])
	}
	return html.EscapeString(strings.Join(parts, ";"))
}

// cssName converts camelCase style keys to kebab-case CSS properties.
func cssName(k string) string {
	var b strings.Builder
	for _, r := range k {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
