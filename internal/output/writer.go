// Package output writes the generated site to the output root.
package output

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/templates"
)

// IndexPage is the file name of the generated index.
const IndexPage = "index.html"

// Writer renders pages through the template set and writes every generated
// file below root.
type Writer struct {
	root string
	tpl  *templates.Set
	site config.SiteConfig
	year int
}

// NewWriter returns a writer for one build. year fills the base template's
// year slot.
func NewWriter(root string, tpl *templates.Set, cfg config.SiteConfig, year int) *Writer {
	return &Writer{root: root, tpl: tpl, site: cfg, year: year}
}

// Root returns the output root.
func (w *Writer) Root() string {
	return w.root
}

// RenderPostPage renders a post through the post template and wraps it in the
// base template. Failures are per-post RenderFailed errors.
func (w *Writer) RenderPostPage(p *site.Post) ([]byte, error) {
	inner, err := w.tpl.RenderPost(p)
	if err != nil {
		return nil, ferrors.RenderFailed(p.Slug, err)
	}
	page, err := w.tpl.RenderPage(w.site, templates.Page{
		Content:     inner,
		Title:       p.Title,
		Description: p.Excerpt,
		Year:        w.year,
	})
	if err != nil {
		return nil, ferrors.RenderFailed(p.Slug, err)
	}
	return page, nil
}

// Conflict returns the file that p's page would overwrite: the generated
// index, or a copied asset already present below root. It returns "" when
// the page path is free.
func (w *Writer) Conflict(p *site.Post) string {
	name := p.URL()
	if strings.EqualFold(name, IndexPage) {
		return IndexPage
	}
	if _, err := os.Lstat(filepath.Join(w.root, filepath.FromSlash(name))); err == nil {
		return name
	}
	return ""
}

// WritePost writes a rendered post page to {slug}.html.
func (w *Writer) WritePost(p *site.Post, page []byte) error {
	return w.WriteFile(p.URL(), page)
}

// WriteIndex renders one card per post, in output order, into index.html.
func (w *Writer) WriteIndex(out *site.BuildOutput) error {
	cards := out.Cards()
	rendered := make([]template.HTML, 0, len(cards))
	for _, c := range cards {
		html, err := w.tpl.RenderCard(c)
		if err != nil {
			return indexError(fmt.Errorf("card %s: %w", c.Slug, err))
		}
		rendered = append(rendered, html)
	}

	body, err := w.tpl.RenderIndex(rendered)
	if err != nil {
		return indexError(err)
	}
	page, err := w.tpl.RenderPage(w.site, templates.Page{
		Content:     body,
		Title:       w.site.Title,
		Description: w.site.Description,
		Year:        w.year,
	})
	if err != nil {
		return indexError(err)
	}
	return w.WriteFile(IndexPage, page)
}

func indexError(err error) error {
	return ferrors.WrapError(err, ferrors.CategoryTemplate, "cannot render index").
		WithCode(ferrors.CodeRenderFailed).
		Fatal().
		Build()
}

// WriteRobots writes robots.txt pointing crawlers at the sitemap.
func (w *Writer) WriteRobots() error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s\n", w.site.URL("sitemap.xml"))
	return w.WriteFile("robots.txt", []byte(body))
}

// WriteFile writes data to rel below the output root through a temporary
// file and a rename, so readers never observe a partial file.
func (w *Writer) WriteFile(rel string, data []byte) error {
	path := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.OutputWriteFailed(path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ferrors.OutputWriteFailed(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return ferrors.OutputWriteFailed(path, err)
	}
	return nil
}
