package action

// Kind discriminates the declared effect of an interaction. The wire
// format keeps the plain string so externally authored documents stay
// compatible.
type Kind string

const (
	Link     Kind = "link"
	Scroll   Kind = "scroll"
	Close    Kind = "close"
	Copy     Kind = "copy"
	Share    Kind = "share"
	Download Kind = "download"

	// Domain actions are never handled intrinsically; they are always
	// forwarded to the host.
	AddToCart  Kind = "add_to_cart"
	Checkout   Kind = "checkout"
	Book       Kind = "book"
	SubmitForm Kind = "submit_form"
	OpenForm   Kind = "open_form"
)

// Action is the declared effect attached to a design node.
type Action struct {
	Kind      Kind   `json:"action"`
	URL       string `json:"url,omitempty"`
	NewTab    bool   `json:"newTab,omitempty"`
	Target    string `json:"target,omitempty"`
	Text      string `json:"text,omitempty"`
	ProductID string `json:"productId,omitempty"`
	FormID    string `json:"formId,omitempty"`
}

// NodeRef identifies the design node an action originated from without
// dragging the full rendered tree across the package boundary.
type NodeRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// FromProps decodes an action out of an untyped props bag.
func FromProps(m map[string]any) Action {
	a := Action{
		Kind:      Kind(str(m, "action")),
		URL:       str(m, "url"),
		Target:    str(m, "target"),
		Text:      str(m, "text"),
		ProductID: str(m, "productId"),
		FormID:    str(m, "formId"),
	}
	if v, ok := m["newTab"].(bool); ok {
		a.NewTab = v
	}
	return a
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
