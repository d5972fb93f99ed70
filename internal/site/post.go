// Package site holds the in-memory model of a build: posts, their ordering,
// and the derived views the output writer consumes.
package site

import (
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/frontmatter"
)

// Post is one publishable article.
type Post struct {
	Slug         string
	Title        string
	Date         string
	Excerpt      string
	Tags         []string
	BodyMarkdown string
	BodyHTML     template.HTML
	SourcePath   string
	Params       map[string]any
	Fingerprint  string
}

// NewPost builds a post from a parsed document. BodyHTML is left empty for
// the renderer to fill.
func NewPost(doc *frontmatter.Document, sourcePath string) *Post {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return &Post{
		Slug:         ResolveSlug(doc.Metadata.Slug, stem),
		Title:        doc.Metadata.Title,
		Date:         doc.Metadata.Date.String(),
		Excerpt:      doc.Metadata.Excerpt,
		Tags:         []string(doc.Metadata.Tags),
		BodyMarkdown: doc.Body,
		SourcePath:   sourcePath,
		Params:       doc.Fields,
	}
}

// URL is the page path relative to the site root.
func (p *Post) URL() string {
	return p.Slug + ".html"
}

// TagLine joins tags for display.
func (p *Post) TagLine() string {
	return strings.Join(p.Tags, ", ")
}

// Published returns the parsed publication date, when the date is in a
// recognized format.
func (p *Post) Published() (time.Time, bool) {
	return ParseDate(p.Date)
}
