package output

import (
	"encoding/xml"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// WriteSitemap writes sitemap.xml: the site root followed by every post in
// output order.
func (w *Writer) WriteSitemap(out *site.BuildOutput) error {
	set := urlSet{
		Xmlns: sitemapNamespace,
		URLs:  make([]sitemapURL, 0, len(out.Posts)+1),
	}
	set.URLs = append(set.URLs, sitemapURL{Loc: w.site.URL("")})
	for _, p := range out.Posts {
		u := sitemapURL{Loc: w.site.URL(p.URL())}
		if t, ok := p.Published(); ok {
			u.LastMod = t.Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}

	data, err := marshalXML(set)
	if err != nil {
		return err
	}
	return w.WriteFile("sitemap.xml", data)
}

func marshalXML(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(xml.Header)+len(body)+1)
	data = append(data, xml.Header...)
	data = append(data, body...)
	return append(data, '\n'), nil
}
