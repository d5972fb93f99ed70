package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

// Document is a parsed source post.
type Document struct {
	Metadata Metadata
	// Fields holds every decoded key, including ones Metadata ignores.
	Fields map[string]any
	// Body is the Markdown after the metadata block, surrounding whitespace trimmed.
	Body string
}

// Parse splits, decodes and validates a source post. Errors are classified
// content errors: MissingFrontMatter, InvalidFrontMatter or MissingRequiredField.
func Parse(content []byte) (*Document, error) {
	fm, body, had, err := Split(content)
	if err != nil || !had {
		return nil, ferrors.MissingFrontMatter(err)
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return nil, ferrors.InvalidFrontMatter(err)
	}

	var meta Metadata
	if len(fields) > 0 {
		if err := yaml.Unmarshal(fm, &meta); err != nil {
			return nil, ferrors.InvalidFrontMatter(err)
		}
	}

	meta.Title = strings.TrimSpace(meta.Title)
	meta.Excerpt = strings.TrimSpace(meta.Excerpt)
	meta.Slug = strings.TrimSpace(meta.Slug)

	if meta.Title == "" {
		return nil, ferrors.MissingRequiredField("title")
	}
	if meta.Date == "" {
		return nil, ferrors.MissingRequiredField("date")
	}

	return &Document{
		Metadata: meta,
		Fields:   fields,
		Body:     strings.TrimSpace(string(body)),
	}, nil
}
