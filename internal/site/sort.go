package site

import (
	"slices"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate recognizes the date formats posts are written with. Dates without
// a zone are taken as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

const sortKeyLayout = "2006-01-02T15:04:05.000000000Z"

// SortKey maps a date to a string that orders chronologically. Dates that do
// not parse keep their raw text.
func SortKey(date string) string {
	if t, ok := ParseDate(date); ok {
		return t.Format(sortKeyLayout)
	}
	return strings.TrimSpace(date)
}

// Sort orders posts newest first, breaking ties by slug ascending. The result
// does not depend on the input order.
func Sort(posts []*Post) {
	keys := make(map[*Post]string, len(posts))
	for _, p := range posts {
		keys[p] = SortKey(p.Date)
	}
	slices.SortStableFunc(posts, func(a, b *Post) int {
		if c := strings.Compare(keys[b], keys[a]); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}
