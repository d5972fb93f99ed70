package site

import (
	"slices"
	"time"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
)

// DefaultFeedLimit caps the number of feed items.
const DefaultFeedLimit = 20

// BuildOutput is the ordered post collection of one build.
type BuildOutput struct {
	Posts []*Post
	Site  config.SiteConfig
}

// NewBuildOutput sorts a copy of posts.
func NewBuildOutput(site config.SiteConfig, posts []*Post) *BuildOutput {
	ordered := slices.Clone(posts)
	Sort(ordered)
	return &BuildOutput{Posts: ordered, Site: site}
}

// Card is the data behind one index entry.
type Card struct {
	Title   string
	Slug    string
	URL     string
	Excerpt string
	Date    string
}

// Cards returns index entries in output order.
func (o *BuildOutput) Cards() []Card {
	cards := make([]Card, 0, len(o.Posts))
	for _, p := range o.Posts {
		cards = append(cards, Card{
			Title:   p.Title,
			Slug:    p.Slug,
			URL:     p.URL(),
			Excerpt: p.Excerpt,
			Date:    p.Date,
		})
	}
	return cards
}

// FeedPosts returns the newest posts, at most limit of them. A non-positive
// limit means DefaultFeedLimit.
func (o *BuildOutput) FeedPosts(limit int) []*Post {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return o.Posts[:min(limit, len(o.Posts))]
}

// Newest returns the publication date of the most recent post with a
// parseable date.
func (o *BuildOutput) Newest() (time.Time, bool) {
	for _, p := range o.Posts {
		if t, ok := p.Published(); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
