package render

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"engagement-engine/internal/action"
	"engagement-engine/internal/observability"
)

// DefaultMaxDepth bounds the tree walk against pathological or
// malformed documents.
const DefaultMaxDepth = 64

// FormRenderer supplies rendering for form-embed nodes, keyed by form id.
type FormRenderer interface {
	RenderForm(formID string) (*RenderedNode, error)
}

// CommerceBinder supplies data bindings for product and event cards.
type CommerceBinder interface {
	Product(id string) (map[string]any, error)
	Event(id string) (map[string]any, error)
}

// Context carries the host-supplied binding data and transient pointer
// state consumed while resolving a document.
type Context struct {
	Bindings map[string]any  // visitor/cart/page/custom fields
	Hovered  map[string]bool // node ids currently under the pointer
}

func (c *Context) hovered(id string) bool {
	return c != nil && c.Hovered[id]
}

func (c *Context) bindings() map[string]any {
	if c == nil {
		return nil
	}
	return c.Bindings
}

// withBinding returns a child context with one extra top-level binding.
func (c *Context) withBinding(key string, val map[string]any) *Context {
	merged := make(map[string]any, len(c.bindings())+1)
	for k, v := range c.bindings() {
		merged[k] = v
	}
	merged[key] = val
	out := &Context{Bindings: merged}
	if c != nil {
		out.Hovered = c.Hovered
	}
	return out
}

// RenderedNode is one node of the resolved output tree: styles merged,
// text bound, action attached.
type RenderedNode struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"-"`
	Tag         string            `json:"type"`
	Text        string            `json:"text,omitempty"`
	Style       map[string]string `json:"style,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty"`
	Action      *action.Action    `json:"action,omitempty"`
	Interactive bool              `json:"interactive,omitempty"`
	Children    []*RenderedNode   `json:"children,omitempty"`
}

// Ref returns the node reference handed to the action dispatcher.
func (n *RenderedNode) Ref() action.NodeRef {
	return action.NodeRef{ID: n.ID, Type: n.Tag}
}

// Output is a fully resolved document plus any diagnostics collected
// along the way. Diagnostics never abort the tree.
type Output struct {
	Root        *RenderedNode `json:"root"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
}

type Renderer struct {
	forms    FormRenderer
	commerce CommerceBinder
	maxDepth int
}

type Option func(*Renderer)

func WithForms(f FormRenderer) Option      { return func(r *Renderer) { r.forms = f } }
func WithCommerce(c CommerceBinder) Option { return func(r *Renderer) { r.commerce = c } }
func WithMaxDepth(d int) Option            { return func(r *Renderer) { r.maxDepth = d } }

func New(opts ...Option) *Renderer {
	r := &Renderer{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render interprets a design document into a resolved output tree.
// A nil document falls back to the fixed legacy layout for the variant.
func (r *Renderer) Render(doc *Document, variant string, rc *Context) *Output {
	if doc == nil {
		doc = LegacyDocument(variant)
	}
	out := &Output{}
	root := &RenderedNode{
		ID:    doc.ID,
		Kind:  KindContainer,
		Tag:   "container",
		Style: cloneStyle(doc.Style),
	}
	for i := range doc.Children {
		if child := r.renderNode(doc.Children[i], rc, 1, out); child != nil {
			root.Children = append(root.Children, child)
		}
	}
	out.Root = root
	return out
}

func (r *Renderer) renderNode(n Node, rc *Context, depth int, out *Output) *RenderedNode {
	if depth > r.maxDepth {
		out.diag("node %q: depth cap %d exceeded; subtree dropped", n.ID, r.maxDepth)
		return nil
	}

	kind := KindOf(n.Type)
	if kind == KindUnknown {
		observability.UnknownNodeTotal.Inc()
		out.diag("node %q: unrecognized type %q; rendering as container", n.ID, n.Type)
	}

	node := &RenderedNode{
		ID:    n.ID,
		Kind:  kind,
		Tag:   n.Type,
		Style: r.effectiveStyle(n, rc),
	}

	switch kind {
	case KindText, KindButton, KindLink:
		node.Text = ResolveText(propString(n, "text"), rc.bindings())
		if kind == KindLink {
			node.attr("href", propString(n, "url"))
		}
	case KindHeading:
		node.Text = ResolveText(propString(n, "text"), rc.bindings())
		node.attr("level", strconv.Itoa(headingLevel(n)))
	case KindImage:
		node.attr("src", ResolveText(propString(n, "src"), rc.bindings()))
		node.attr("alt", propString(n, "alt"))
	case KindInput:
		node.attr("placeholder", propString(n, "placeholder"))
		node.attr("name", propString(n, "name"))
		node.attr("inputType", propString(n, "inputType"))
	case KindIcon:
		node.attr("icon", propString(n, "icon"))
	case KindSpacer:
		node.attr("size", propString(n, "size"))
	case KindFormEmbed:
		r.renderForm(n, node, out)
	case KindProductCard:
		rc = r.bindCommerce(n, "product", rc, out)
	case KindEventCard:
		rc = r.bindCommerce(n, "event", rc, out)
	}

	if m, ok := n.Props["onClick"].(map[string]any); ok {
		a := action.FromProps(m)
		node.Action = &a
		node.Interactive = true
		if node.Style == nil {
			node.Style = map[string]string{}
		}
		node.Style["cursor"] = "pointer"
	}

	for i := range n.Children {
		if child := r.renderNode(n.Children[i], rc, depth+1, out); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func (r *Renderer) renderForm(n Node, node *RenderedNode, out *Output) {
	formID := propString(n, "formId")
	if r.forms == nil {
		out.diag("node %q: form %q requested but no form renderer configured", n.ID, formID)
		return
	}
	frag, err := r.forms.RenderForm(formID)
	if err != nil {
		out.diag("node %q: form %q failed to render: %v", n.ID, formID, err)
		return
	}
	if frag != nil {
		node.Children = append(node.Children, frag)
	}
}

// bindCommerce resolves the card's data through the host binder and
// exposes it to the subtree under the given key.
func (r *Renderer) bindCommerce(n Node, key string, rc *Context, out *Output) *Context {
	id := propString(n, key+"Id")
	if r.commerce == nil {
		out.diag("node %q: %s card requested but no commerce binder configured", n.ID, key)
		return rc
	}
	var (
		data map[string]any
		err  error
	)
	if key == "product" {
		data, err = r.commerce.Product(id)
	} else {
		data, err = r.commerce.Event(id)
	}
	if err != nil {
		out.diag("node %q: %s %q lookup failed: %v", n.ID, key, id, err)
		return rc
	}
	return rc.withBinding(key, data)
}

// effectiveStyle merges base style, then the animation keyframe override
// when props.animation is set, then the hover override while the pointer
// is over the node.
func (r *Renderer) effectiveStyle(n Node, rc *Context) map[string]string {
	style := cloneStyle(n.Style)
	if anim := propString(n, "animation"); anim != "" {
		if kf, ok := animationKeyframes[anim]; ok {
			style = mergeStyle(style, kf)
		} else {
			log.Debug().Str("node", n.ID).Str("animation", anim).Msg("unknown animation; ignoring")
		}
	}
	if rc.hovered(n.ID) {
		if hover, ok := n.Props["hoverStyle"].(map[string]any); ok {
			style = mergeStyle(style, toStyleMap(hover))
		}
	}
	return style
}

// animationKeyframes are the terminal frames of the supported entrance
// animations, applied over the base style.
var animationKeyframes = map[string]map[string]string{
	"fade-in":  {"opacity": "1", "transition": "opacity 0.3s ease-in"},
	"slide-up": {"transform": "translateY(0)", "transition": "transform 0.3s ease-out"},
	"slide-in": {"transform": "translateX(0)", "transition": "transform 0.3s ease-out"},
	"bounce":   {"animation": "bounce 0.6s"},
	"pulse":    {"animation": "pulse 1.5s infinite"},
}

func (o *Output) diag(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.Diagnostics = append(o.Diagnostics, msg)
	log.Debug().Msg("render: " + msg)
}

func (n *RenderedNode) attr(key, val string) {
	if val == "" {
		return
	}
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[key] = val
}

func propString(n Node, key string) string {
	if v, ok := n.Props[key].(string); ok {
		return v
	}
	return ""
}

func headingLevel(n Node) int {
	switch v := n.Props["level"].(type) {
	case float64:
		if v >= 1 && v <= 6 {
			return int(v)
		}
	case int:
		if v >= 1 && v <= 6 {
			return v
		}
	case string:
		if lvl, err := strconv.Atoi(v); err == nil && lvl >= 1 && lvl <= 6 {
			return lvl
		}
	}
	return 2
}

func cloneStyle(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeStyle(base, over map[string]string) map[string]string {
	if base == nil {
		base = make(map[string]string, len(over))
	}
	for k, v := range over {
		base[k] = v
	}
	return base
}

func toStyleMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
