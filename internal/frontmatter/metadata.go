package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is the typed view of the fields the site builder understands.
// Unknown keys are kept in Document.Fields.
type Metadata struct {
	Title   string     `yaml:"title"`
	Date    Date       `yaml:"date"`
	Excerpt string     `yaml:"excerpt"`
	Tags    StringList `yaml:"tags"`
	Slug    string     `yaml:"slug"`
}

// Date keeps the date exactly as written. YAML would otherwise turn an
// unquoted 2024-01-05 into a timestamp and lose the author's formatting.
type Date string

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	*d = Date(strings.TrimSpace(node.Value))
	return nil
}

// String returns the date text.
func (d Date) String() string { return string(d) }

// StringList accepts either a YAML sequence of scalars or a single scalar.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if v := strings.TrimSpace(node.Value); v != "" {
			*l = StringList{v}
		}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be scalars", item.Line)
			}
			if v := strings.TrimSpace(item.Value); v != "" {
				out = append(out, v)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a single value", node.Line)
	}
}

// Join renders the list the way post pages show tags.
func (l StringList) Join() string {
	return strings.Join(l, ", ")
}
