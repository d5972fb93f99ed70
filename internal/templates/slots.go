package templates

import (
	"maps"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
)

func baseSlots(cfg config.SiteConfig, page Page) map[string]any {
	analytics := make(map[string]string, len(cfg.Analytics))
	maps.Copy(analytics, cfg.Analytics)

	slots := make(map[string]any, len(analytics)+6)
	for k, v := range analytics {
		slots[k] = v
	}
	slots["content"] = page.Content
	slots["title"] = page.Title
	slots["description"] = page.Description
	slots["year"] = page.Year
	slots["analytics"] = analytics
	slots["site"] = cfg
	return slots
}

func postSlots(p *site.Post) map[string]any {
	return map[string]any{
		"title":    p.Title,
		"date":     p.Date,
		"body":     p.BodyHTML,
		"tags":     p.TagLine(),
		"tag_list": p.Tags,
		"slug":     p.Slug,
		"url":      p.URL(),
		"excerpt":  p.Excerpt,
		"params":   p.Params,
	}
}

func cardSlots(c site.Card) map[string]any {
	return map[string]any{
		"title":   c.Title,
		"slug":    c.Slug,
		"url":     c.URL,
		"excerpt": c.Excerpt,
		"date":    c.Date,
	}
}
