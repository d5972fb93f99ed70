package output

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/templates"
)

var testSite = config.SiteConfig{
	Domain:      "https://blog.example",
	Title:       "Finanças",
	Description: "Conteúdo diário",
	Language:    "pt-BR",
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	set, err := templates.Parse(
		`<html><title>{{ .title }}</title><body>{{ .content }}</body></html>`,
		`<article>{{ .body }}</article>`,
		`<main>{{ .posts }}</main>`,
	)
	require.NoError(t, err)
	return NewWriter(t.TempDir(), set, testSite, 2024)
}

func readOut(t *testing.T, w *Writer, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(w.Root(), rel))
	require.NoError(t, err)
	return string(data)
}

func samplePosts(n int) *site.BuildOutput {
	posts := make([]*site.Post, 0, n)
	for i := range n {
		posts = append(posts, &site.Post{
			Slug:    fmt.Sprintf("post-%02d", i),
			Title:   fmt.Sprintf("Post %02d", i),
			Date:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
			Excerpt: fmt.Sprintf("excerpt %d", i),
		})
	}
	return site.NewBuildOutput(testSite, posts)
}

func TestWritePost_EmbedsBodyUnmodified(t *testing.T) {
	w := newTestWriter(t)
	p := &site.Post{Slug: "a", Title: "A & B", BodyHTML: "<p>x &amp; <code>y</code></p>"}

	page, err := w.RenderPostPage(p)
	require.NoError(t, err)
	require.NoError(t, w.WritePost(p, page))

	assert.Equal(t, "<html><title>A &amp; B</title><body><article><p>x &amp; <code>y</code></p></article></body></html>", readOut(t, w, "a.html"))
	_, err = os.Stat(filepath.Join(w.Root(), "a.html.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteIndex_CardsInOutputOrder(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.WriteIndex(samplePosts(3)))

	index := readOut(t, w, "index.html")
	assert.Contains(t, index, "<title>Finanças</title>")
	first := strings.Index(index, "post-02.html")
	last := strings.Index(index, "post-00.html")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, last)
	assert.Less(t, first, last)
}

func TestWriteIndex_EmptySite(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.WriteIndex(samplePosts(0)))
	assert.Equal(t, "<html><title>Finanças</title><body><main></main></body></html>", readOut(t, w, "index.html"))
}

func TestWriteSitemap(t *testing.T) {
	w := newTestWriter(t)
	out := samplePosts(3)
	out.Posts[1].Date = "sometime"
	require.NoError(t, w.WriteSitemap(out))

	raw := readOut(t, w, "sitemap.xml")
	assert.True(t, strings.HasPrefix(raw, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, raw, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)

	var parsed urlSet
	require.NoError(t, xml.Unmarshal([]byte(raw), &parsed))
	require.Len(t, parsed.URLs, 4)
	assert.Equal(t, "https://blog.example/", parsed.URLs[0].Loc)
	assert.Equal(t, "https://blog.example/post-02.html", parsed.URLs[1].Loc)
	assert.Equal(t, "2024-01-03", parsed.URLs[1].LastMod)
	assert.Empty(t, parsed.URLs[2].LastMod)
}

func TestWriteFeed_LimitsAndOrders(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.WriteFeed(samplePosts(25), 20))

	feed, err := gofeed.NewParser().ParseString(readOut(t, w, "rss.xml"))
	require.NoError(t, err)

	assert.Equal(t, "rss", feed.FeedType)
	assert.Equal(t, "2.0", feed.FeedVersion)
	assert.Equal(t, "Finanças", feed.Title)
	assert.Equal(t, "pt-BR", feed.Language)
	require.Len(t, feed.Items, 20)
	assert.Equal(t, "Post 24", feed.Items[0].Title)
	assert.Equal(t, "https://blog.example/post-24.html", feed.Items[0].Link)
	assert.Equal(t, "https://blog.example/post-24.html", feed.Items[0].GUID)
	assert.Equal(t, "excerpt 24", feed.Items[0].Description)
	require.NotNil(t, feed.Items[0].PublishedParsed)
	assert.True(t, feed.Items[0].PublishedParsed.Equal(time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, feed.UpdatedParsed)
	assert.True(t, feed.UpdatedParsed.Equal(*feed.Items[0].PublishedParsed))
}

func TestWriteFeed_FewerPostsThanLimit(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.WriteFeed(samplePosts(2), 20))

	feed, err := gofeed.NewParser().ParseString(readOut(t, w, "rss.xml"))
	require.NoError(t, err)
	assert.Len(t, feed.Items, 2)
}

func TestWriteRobots(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.WriteRobots())
	assert.Equal(t, "User-agent: *\nAllow: /\n\nSitemap: https://blog.example/sitemap.xml\n", readOut(t, w, "robots.txt"))
}

func TestWriteFile_Unavailable(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	w := NewWriter(blocker, nil, testSite, 2024)
	err := w.WriteFile("index.html", []byte("x"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeOutputWriteFailed))
}

func TestCopyAssets(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(src, "img", "icons"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "style.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "img", "icons", "logo.svg"), []byte("<svg/>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "run.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "style.css"), []byte("stale"), 0o644))

	n, err := CopyAssets(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(filepath.Join(dst, "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))

	data, err = os.ReadFile(filepath.Join(dst, "img", "icons", "logo.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, "run.sh"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
		info, err = os.Stat(filepath.Join(dst, "img", "icons", "logo.svg"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestCopyAssets_MissingSource(t *testing.T) {
	_, err := CopyAssets(filepath.Join(t.TempDir(), "absent"), t.TempDir())
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeAssetSourceUnreadable))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConflict(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.WriteFile("about.html", []byte("asset")))

	assert.Equal(t, IndexPage, w.Conflict(&site.Post{Slug: "index"}))
	assert.Equal(t, IndexPage, w.Conflict(&site.Post{Slug: "INDEX"}))
	assert.Equal(t, "about.html", w.Conflict(&site.Post{Slug: "about"}))
	assert.Empty(t, w.Conflict(&site.Post{Slug: "indexing"}))
	assert.Empty(t, w.Conflict(&site.Post{Slug: "post-01"}))
}
