package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello-world", "hello-world"},
		{"Juros Compostos", "Juros-Compostos"},
		{"Ações e Fundos Imobiliários", "Acoes-e-Fundos-Imobiliarios"},
		{"  spaced   out  ", "spaced-out"},
		{"what?! really", "what-really"},
		{"v1.2_notes", "v1.2_notes"},
		{"a--b", "a-b"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestResolveSlug(t *testing.T) {
	assert.Equal(t, "custom", ResolveSlug("custom", "2024-01-05-file"))
	assert.Equal(t, "2024-01-05-file", ResolveSlug("", "2024-01-05-file"))
	assert.Equal(t, "2024-01-05-file", ResolveSlug("  ", "2024-01-05-file"))
	assert.Equal(t, "ola-mundo", ResolveSlug("", "olá mundo"))
	assert.Equal(t, "post", ResolveSlug("", "???"))
}
