package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveText(t *testing.T) {
	tests := []struct {
		name     string
		template string
		bindings map[string]any
		want     string
	}{
		{
			name:     "simple path",
			template: "Hello {{user.name}}",
			bindings: map[string]any{"user": map[string]any{"name": "Ada"}},
			want:     "Hello Ada",
		},
		{
			name:     "unresolved path stays literal",
			template: "Hello {{user.name}}",
			bindings: map[string]any{},
			want:     "Hello {{user.name}}",
		},
		{
			name:     "nil bindings stay literal",
			template: "Hello {{user.name}}",
			bindings: nil,
			want:     "Hello {{user.name}}",
		},
		{
			name:     "multiple tokens",
			template: "{{a}} and {{b.c}}",
			bindings: map[string]any{"a": "one", "b": map[string]any{"c": "two"}},
			want:     "one and two",
		},
		{
			name:     "partial resolution",
			template: "{{known}} {{unknown}}",
			bindings: map[string]any{"known": "yes"},
			want:     "yes {{unknown}}",
		},
		{
			name:     "whitespace inside braces",
			template: "Hi {{ user.name }}",
			bindings: map[string]any{"user": map[string]any{"name": "Ada"}},
			want:     "Hi Ada",
		},
		{
			name:     "integer-valued json number",
			template: "{{cart.count}} items",
			bindings: map[string]any{"cart": map[string]any{"count": float64(3)}},
			want:     "3 items",
		},
		{
			name:     "path through non-map stays literal",
			template: "{{user.name.first}}",
			bindings: map[string]any{"user": map[string]any{"name": "Ada"}},
			want:     "{{user.name.first}}",
		},
		{
			name:     "no tokens",
			template: "plain text",
			bindings: map[string]any{"a": "b"},
			want:     "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveText(tt.template, tt.bindings))
		})
	}
}
