// Package templates loads the three page templates of a site and fills their
// named slots.
package templates

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
)

// Template file names inside the template directory.
const (
	BaseName  = "base.html"
	PostName  = "post.html"
	IndexName = "index.html"

	// CardBlock is the block index.html may define to render one index entry.
	CardBlock = "card"
)

const builtinCard = `<article class='post-card'><h3><a href='{{ .url }}'>{{ .title }}</a></h3><p>{{ .excerpt }}</p><div class='meta'>{{ .date }}</div></article>`

// Set is a loaded, immutable template set. Execution is safe for concurrent use.
type Set struct {
	base  *template.Template
	post  *template.Template
	index *template.Template
	card  *template.Template
}

// Load parses base.html, post.html and index.html from dir.
func Load(dir string) (*Set, error) {
	sources := make(map[string]string, 3)
	for _, name := range []string{BaseName, PostName, IndexName} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ferrors.TemplateNotFound(name, path, err)
		}
		sources[name] = string(data)
	}
	return Parse(sources[BaseName], sources[PostName], sources[IndexName])
}

// Parse builds a Set from template sources.
func Parse(base, post, index string) (*Set, error) {
	s := &Set{}
	var err error
	if s.base, err = parseOne(BaseName, base); err != nil {
		return nil, err
	}
	if s.post, err = parseOne(PostName, post); err != nil {
		return nil, err
	}
	if s.index, err = parseOne(IndexName, index); err != nil {
		return nil, err
	}

	if s.card = s.index.Lookup(CardBlock); s.card == nil {
		s.card = template.Must(template.New(CardBlock).Parse(builtinCard))
	}
	return s, nil
}

func parseOne(name, src string) (*template.Template, error) {
	t, err := template.New(name).Parse(src)
	if err != nil {
		return nil, ferrors.TemplateInvalid(name, err)
	}
	return t, nil
}

// Page is the per-page input of the base template.
type Page struct {
	Content     template.HTML
	Title       string
	Description string
	Year        int
}

// RenderPage wraps page content in the base template.
func (s *Set) RenderPage(cfg config.SiteConfig, page Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.base.Execute(&buf, baseSlots(cfg, page)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderPost fills the post template for one post.
func (s *Set) RenderPost(p *site.Post) (template.HTML, error) {
	return execute(s.post, postSlots(p))
}

// RenderCard renders one index entry.
func (s *Set) RenderCard(c site.Card) (template.HTML, error) {
	return execute(s.card, cardSlots(c))
}

// RenderIndex renders the index body from already rendered cards.
func (s *Set) RenderIndex(cards []template.HTML) (template.HTML, error) {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c)
	}
	//nolint:gosec // cards are template output
	return execute(s.index, map[string]any{"posts": template.HTML(strings.Join(parts, "\n"))})
}

func execute(t *template.Template, data map[string]any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	//nolint:gosec // html/template already escaped every slot
	return template.HTML(buf.String()), nil
}
