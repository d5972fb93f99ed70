package output

import (
	"encoding/xml"
	"time"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
)

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description,omitempty"`
	PubDate     string  `xml:"pubDate,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// WriteFeed writes rss.xml with the newest posts, at most limit of them.
// lastBuildDate is the newest post date, so rebuilding unchanged content
// yields the same bytes.
func (w *Writer) WriteFeed(out *site.BuildOutput, limit int) error {
	channel := rssChannel{
		Title:       w.site.Title,
		Link:        w.site.URL(""),
		Description: w.site.Description,
		Language:    w.site.Language,
	}
	if newest, ok := out.Newest(); ok {
		channel.LastBuildDate = newest.Format(time.RFC1123Z)
	}

	for _, p := range out.FeedPosts(limit) {
		link := w.site.URL(p.URL())
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: "true", Value: link},
			Description: p.Excerpt,
		}
		if t, ok := p.Published(); ok {
			item.PubDate = t.Format(time.RFC1123Z)
		}
		channel.Items = append(channel.Items, item)
	}

	data, err := marshalXML(rssDocument{Version: "2.0", Channel: channel})
	if err != nil {
		return err
	}
	return w.WriteFile("rss.xml", data)
}
