package render

// Document is the wire schema of an element's design tree.
type Document struct {
	ID       string            `json:"id" yaml:"id"`
	Type     string            `json:"type" yaml:"type"`
	Name     string            `json:"name,omitempty" yaml:"name"`
	Children []Node            `json:"children" yaml:"children"`
	Style    map[string]string `json:"style,omitempty" yaml:"style"`
	Props    map[string]any    `json:"props,omitempty" yaml:"props"`
}

// Node is one design node: a string type tag, untyped props and style
// bags, and children.
type Node struct {
	ID       string            `json:"id" yaml:"id"`
	Type     string            `json:"type" yaml:"type"`
	Name     string            `json:"name,omitempty" yaml:"name"`
	Children []Node            `json:"children,omitempty" yaml:"children"`
	Props    map[string]any    `json:"props,omitempty" yaml:"props"`
	Style    map[string]string `json:"style,omitempty" yaml:"style"`
}

// Kind is the closed internal variant behind the wire type tag.
// KindUnknown is the forward-compatible fallback arm: unrecognized tags
// render as a generic container instead of aborting the tree.
type Kind int

const (
	KindUnknown Kind = iota
	KindContainer
	KindSection
	KindText
	KindHeading
	KindButton
	KindImage
	KindLink
	KindInput
	KindDivider
	KindSpacer
	KindIcon
	KindFormEmbed
	KindProductCard
	KindEventCard
)

var kindByTag = map[string]Kind{
	"container":      KindContainer,
	"section":        KindSection,
	"text":           KindText,
	"heading":        KindHeading,
	"button":         KindButton,
	"outline-button": KindButton,
	"link-button":    KindButton,
	"image":          KindImage,
	"link":           KindLink,
	"input":          KindInput,
	"divider":        KindDivider,
	"spacer":         KindSpacer,
	"icon":           KindIcon,
	"form-embed":     KindFormEmbed,
	"product-card":   KindProductCard,
	"event-card":     KindEventCard,
}

// KindOf maps a wire type tag to its internal kind.
func KindOf(tag string) Kind {
	if k, ok := kindByTag[tag]; ok {
		return k
	}
	return KindUnknown
}
