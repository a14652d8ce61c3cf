package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engagement-engine/internal/action"
)

func TestRender_UnknownTypeRendersContainerWithChildren(t *testing.T) {
	doc := &Document{
		ID:   "doc",
		Type: "container",
		Children: []Node{
			{
				ID:   "mystery",
				Type: "holo-banner",
				Children: []Node{
					{ID: "c1", Type: "text", Props: map[string]any{"text": "one"}},
					{ID: "c2", Type: "text", Props: map[string]any{"text": "two"}},
				},
			},
		},
	}

	out := New().Render(doc, "popup", nil)
	require.NotNil(t, out.Root)
	require.Len(t, out.Root.Children, 1)

	mystery := out.Root.Children[0]
	assert.Equal(t, KindUnknown, mystery.Kind)
	assert.Len(t, mystery.Children, 2)
	assert.Equal(t, "one", mystery.Children[0].Text)
	assert.Equal(t, "two", mystery.Children[1].Text)
	require.Len(t, out.Diagnostics, 1)
	assert.Contains(t, out.Diagnostics[0], "holo-banner")
}

func TestRender_DepthCapDropsSubtree(t *testing.T) {
	// Build a chain deeper than the cap.
	leaf := Node{ID: "leaf", Type: "text", Props: map[string]any{"text": "deep"}}
	node := leaf
	for i := 0; i < 10; i++ {
		node = Node{ID: "wrap", Type: "container", Children: []Node{node}}
	}
	doc := &Document{ID: "doc", Type: "container", Children: []Node{node}}

	out := New(WithMaxDepth(5)).Render(doc, "popup", nil)
	require.NotEmpty(t, out.Diagnostics)
	assert.Contains(t, out.Diagnostics[0], "depth cap")

	// The shallow part of the tree survives.
	depth := 0
	for n := out.Root; len(n.Children) > 0; n = n.Children[0] {
		depth++
	}
	assert.Equal(t, 5, depth)
}

func TestRender_StyleMerge(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		hovered bool
		want    map[string]string
	}{
		{
			name: "base only",
			node: Node{ID: "n", Type: "text", Style: map[string]string{"color": "red"}},
			want: map[string]string{"color": "red"},
		},
		{
			name: "animation keyframe overrides base",
			node: Node{ID: "n", Type: "text",
				Style: map[string]string{"opacity": "0", "color": "red"},
				Props: map[string]any{"animation": "fade-in"}},
			want: map[string]string{"opacity": "1", "color": "red", "transition": "opacity 0.3s ease-in"},
		},
		{
			name: "hover override wins while hovered",
			node: Node{ID: "n", Type: "text",
				Style: map[string]string{"color": "red"},
				Props: map[string]any{"hoverStyle": map[string]any{"color": "blue"}}},
			hovered: true,
			want:    map[string]string{"color": "blue"},
		},
		{
			name: "hover override ignored while not hovered",
			node: Node{ID: "n", Type: "text",
				Style: map[string]string{"color": "red"},
				Props: map[string]any{"hoverStyle": map[string]any{"color": "blue"}}},
			want: map[string]string{"color": "red"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := &Context{}
			if tt.hovered {
				rc.Hovered = map[string]bool{"n": true}
			}
			doc := &Document{ID: "doc", Children: []Node{tt.node}}
			out := New().Render(doc, "popup", rc)
			require.Len(t, out.Root.Children, 1)
			if diff := cmp.Diff(tt.want, out.Root.Children[0].Style); diff != "" {
				t.Errorf("style mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_OnClickAttachesActionAndCursor(t *testing.T) {
	doc := &Document{ID: "doc", Children: []Node{{
		ID:   "cta",
		Type: "button",
		Props: map[string]any{
			"text": "Go",
			"onClick": map[string]any{
				"action": "link",
				"url":    "/shop",
				"newTab": true,
			},
		},
	}}}

	out := New().Render(doc, "popup", nil)
	require.Len(t, out.Root.Children, 1)
	cta := out.Root.Children[0]

	require.NotNil(t, cta.Action)
	assert.Equal(t, action.Link, cta.Action.Kind)
	assert.Equal(t, "/shop", cta.Action.URL)
	assert.True(t, cta.Action.NewTab)
	assert.True(t, cta.Interactive)
	assert.Equal(t, "pointer", cta.Style["cursor"])
}

func TestRender_TextBinding(t *testing.T) {
	doc := &Document{ID: "doc", Children: []Node{
		{ID: "h", Type: "heading", Props: map[string]any{"text": "Hi {{visitor.name}}", "level": float64(3)}},
	}}
	rc := &Context{Bindings: map[string]any{"visitor": map[string]any{"name": "Ada"}}}

	out := New().Render(doc, "popup", rc)
	h := out.Root.Children[0]
	assert.Equal(t, "Hi Ada", h.Text)
	assert.Equal(t, "3", h.Attrs["level"])
}

func TestRender_NilDocumentFallsBackToLegacyLayout(t *testing.T) {
	for _, variant := range []string{"popup", "bar", "nudge", "slide-in", "chat"} {
		t.Run(variant, func(t *testing.T) {
			out := New().Render(nil, variant, nil)
			require.NotNil(t, out.Root)
			assert.NotEmpty(t, out.Root.Children)
			assert.Empty(t, out.Diagnostics)
		})
	}
}

type stubForms struct {
	err error
}

func (s stubForms) RenderForm(formID string) (*RenderedNode, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &RenderedNode{ID: "form-" + formID, Kind: KindContainer, Tag: "container"}, nil
}

func TestRender_FormEmbed(t *testing.T) {
	doc := &Document{ID: "doc", Children: []Node{
		{ID: "f", Type: "form-embed", Props: map[string]any{"formId": "newsletter"}},
	}}

	t.Run("delegates to form renderer", func(t *testing.T) {
		out := New(WithForms(stubForms{})).Render(doc, "popup", nil)
		f := out.Root.Children[0]
		require.Len(t, f.Children, 1)
		assert.Equal(t, "form-newsletter", f.Children[0].ID)
	})

	t.Run("missing capability degrades with diagnostic", func(t *testing.T) {
		out := New().Render(doc, "popup", nil)
		assert.Empty(t, out.Root.Children[0].Children)
		require.NotEmpty(t, out.Diagnostics)
		assert.Contains(t, out.Diagnostics[0], "form")
	})

	t.Run("form error degrades with diagnostic", func(t *testing.T) {
		out := New(WithForms(stubForms{err: errors.New("boom")})).Render(doc, "popup", nil)
		assert.Empty(t, out.Root.Children[0].Children)
		require.NotEmpty(t, out.Diagnostics)
	})
}

type stubCommerce struct{}

func (stubCommerce) Product(id string) (map[string]any, error) {
	return map[string]any{"name": "Widget " + id, "price": "9.99"}, nil
}

func (stubCommerce) Event(id string) (map[string]any, error) {
	return map[string]any{"title": "Event " + id}, nil
}

func TestRender_ProductCardBindsCommerceData(t *testing.T) {
	doc := &Document{ID: "doc", Children: []Node{{
		ID:    "card",
		Type:  "product-card",
		Props: map[string]any{"productId": "42"},
		Children: []Node{
			{ID: "pname", Type: "text", Props: map[string]any{"text": "{{product.name}} - {{product.price}}"}},
		},
	}}}

	out := New(WithCommerce(stubCommerce{})).Render(doc, "popup", nil)
	card := out.Root.Children[0]
	require.Len(t, card.Children, 1)
	assert.Equal(t, "Widget 42 - 9.99", card.Children[0].Text)
}

func TestOutput_HTML(t *testing.T) {
	doc := &Document{ID: "doc", Children: []Node{
		{ID: "h", Type: "heading", Props: map[string]any{"text": "Big <Sale>", "level": float64(2)}},
		{ID: "img", Type: "image", Props: map[string]any{"src": "/x.png", "alt": "pic"}},
		{ID: "cta", Type: "button",
			Props: map[string]any{"text": "Go", "onClick": map[string]any{"action": "close"}},
			Style: map[string]string{"marginTop": "8px"}},
	}}

	html := New().Render(doc, "popup", nil).HTML()
	assert.Contains(t, html, "<h2")
	assert.Contains(t, html, "Big &lt;Sale&gt;")
	assert.Contains(t, html, `<img`)
	assert.Contains(t, html, `src="/x.png"`)
	assert.Contains(t, html, `data-action="close"`)
	assert.Contains(t, html, "margin-top:8px")
	assert.True(t, strings.HasPrefix(html, "<div"))
}
