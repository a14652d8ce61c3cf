package render

// LegacyDocument is the fixed fallback layout used when an element
// carries no design document. One layout per variant tag.
func LegacyDocument(variant string) *Document {
	switch variant {
	case "bar":
		return &Document{
			ID:   "legacy-bar",
			Type: "container",
			Style: map[string]string{
				"display": "flex", "alignItems": "center", "justifyContent": "center",
				"width": "100%", "padding": "10px 16px", "background": "#1a1a2e", "color": "#ffffff",
			},
			Children: []Node{
				{ID: "legacy-bar-text", Type: "text", Props: map[string]any{"text": "{{element.message}}"}},
				{ID: "legacy-bar-cta", Type: "button",
					Props: map[string]any{"text": "{{element.cta}}", "onClick": map[string]any{"action": "link", "url": "{{element.url}}"}},
					Style: map[string]string{"marginLeft": "12px"}},
			},
		}
	case "nudge":
		return &Document{
			ID:   "legacy-nudge",
			Type: "container",
			Style: map[string]string{
				"padding": "12px", "borderRadius": "8px", "background": "#f5f5f5", "maxWidth": "320px",
			},
			Children: []Node{
				{ID: "legacy-nudge-text", Type: "text", Props: map[string]any{"text": "{{element.message}}"}},
			},
		}
	case "slide-in":
		return &Document{
			ID:   "legacy-slide-in",
			Type: "container",
			Style: map[string]string{
				"position": "fixed", "bottom": "20px", "right": "20px", "maxWidth": "360px",
				"padding": "16px", "borderRadius": "8px", "background": "#ffffff",
				"boxShadow": "0 4px 24px rgba(0,0,0,0.15)",
			},
			Children: []Node{
				{ID: "legacy-slide-in-heading", Type: "heading", Props: map[string]any{"text": "{{element.title}}", "level": 3}},
				{ID: "legacy-slide-in-text", Type: "text", Props: map[string]any{"text": "{{element.message}}"}},
				{ID: "legacy-slide-in-close", Type: "button",
					Props: map[string]any{"text": "Dismiss", "onClick": map[string]any{"action": "close"}}},
			},
		}
	case "chat":
		return &Document{
			ID:   "legacy-chat",
			Type: "container",
			Style: map[string]string{
				"position": "fixed", "bottom": "20px", "right": "20px", "width": "56px", "height": "56px",
				"borderRadius": "50%", "background": "#4a6cf7", "color": "#ffffff",
				"display": "flex", "alignItems": "center", "justifyContent": "center",
			},
			Children: []Node{
				{ID: "legacy-chat-icon", Type: "icon", Props: map[string]any{"icon": "chat"}},
			},
		}
	default: // popup
		return &Document{
			ID:   "legacy-popup",
			Type: "container",
			Style: map[string]string{
				"maxWidth": "480px", "margin": "0 auto", "padding": "24px",
				"borderRadius": "12px", "background": "#ffffff", "textAlign": "center",
			},
			Children: []Node{
				{ID: "legacy-popup-heading", Type: "heading", Props: map[string]any{"text": "{{element.title}}", "level": 2}},
				{ID: "legacy-popup-text", Type: "text", Props: map[string]any{"text": "{{element.message}}"}},
				{ID: "legacy-popup-cta", Type: "button",
					Props: map[string]any{"text": "{{element.cta}}", "onClick": map[string]any{"action": "link", "url": "{{element.url}}"}},
					Style: map[string]string{"marginTop": "16px"}},
				{ID: "legacy-popup-close", Type: "button",
					Props: map[string]any{"text": "No thanks", "onClick": map[string]any{"action": "close"}},
					Style: map[string]string{"marginTop": "8px", "opacity": "0.7"}},
			},
		}
	}
}
