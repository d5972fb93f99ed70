package errors

import (
	stderrors "errors"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad domain").Build(), expected: 7},
		{name: "template", err: TemplateNotFound("base.html", "t/base.html", fs.ErrNotExist), expected: 11},
		{name: "duplicate slug", err: DuplicateSlug("a", "a.md", "b.md"), expected: 11},
		{name: "canceled", err: Canceled("posts", stderrors.New("interrupt")), expected: 12},
		{name: "unclassified", err: stderrors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := TemplateNotFound("post.html", "t/post.html", fs.ErrNotExist)

	quiet := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "Error: TemplateNotFound: template post.html not found: file does not exist", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, err.Error(), verbose.FormatError(err))

	assert.Equal(t, "Error: boom", quiet.FormatError(stderrors.New("boom")))
	assert.Empty(t, quiet.FormatError(nil))
}
