// Package frontmatter splits a post into its YAML metadata block and Markdown
// body and decodes the metadata into typed fields.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter is returned when a file opens a metadata block
// but never closes it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Split separates the leading metadata block from the body.
//
// The block must open on the first line with a line consisting solely of
// "---" and closes at the next such line, which may be the last line of the
// file without a trailing newline. When the first line is not a delimiter,
// had is false and body is the whole input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	end, next := lineAt(content, 0)
	if !isDelimiter(content[:end]) {
		return nil, content, false, nil
	}

	start := next
	for pos := start; pos < len(content); {
		end, next = lineAt(content, pos)
		if isDelimiter(content[pos:end]) {
			return content[start:pos], content[next:], true, nil
		}
		pos = next
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// lineAt returns the end of the line starting at pos (excluding the newline)
// and the offset of the following line.
func lineAt(content []byte, pos int) (end, next int) {
	i := bytes.IndexByte(content[pos:], '\n')
	if i < 0 {
		return len(content), len(content)
	}
	return pos + i, pos + i + 1
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == "---"
}

// ParseYAML decodes a metadata block into a generic map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
