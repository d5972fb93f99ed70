// Package testutil provides fixtures shared by package tests: a throwaway
// site layout with starter templates and helpers to inspect generated output.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/templates"
)

// Site is a temporary site layout rooted in t.TempDir().
type Site struct {
	t      *testing.T
	Root   string
	Config *config.Config
}

// NewSite creates posts, templates, assets and output locations, writes the
// starter templates and stylesheet, and returns a matching config.
func NewSite(t *testing.T) *Site {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		SiteConfig: config.SiteConfig{
			Domain:      "https://example.com",
			Title:       "Test Blog",
			Description: "Posts for tests",
			Language:    "en",
		},
		Paths: config.PathsConfig{
			Posts:     filepath.Join(root, "content", "posts"),
			Templates: filepath.Join(root, "site", "templates"),
			Assets:    filepath.Join(root, "site", "static"),
			Output:    filepath.Join(root, "site", "output"),
		},
		Build: config.BuildConfig{Workers: 4, FeedLimit: config.DefaultFeedLimit},
	}
	if err := os.MkdirAll(cfg.Paths.Posts, 0o750); err != nil {
		t.Fatalf("create posts dir: %v", err)
	}
	if _, err := templates.WriteStarter(cfg.Paths.Templates, cfg.Paths.Assets, true); err != nil {
		t.Fatalf("write starter templates: %v", err)
	}
	return &Site{t: t, Root: root, Config: cfg}
}

// Post writes a source post with the given front matter lines and body.
// An empty frontMatter writes a file without a metadata block.
func (s *Site) Post(name, frontMatter, body string) string {
	s.t.Helper()
	var content string
	if frontMatter == "" {
		content = body
	} else {
		content = "---\n" + strings.TrimRight(frontMatter, "\n") + "\n---\n" + body
	}
	path := filepath.Join(s.Config.Paths.Posts, name)
	s.write(path, content)
	return path
}

// SimplePost writes a post with title, date and excerpt.
func (s *Site) SimplePost(slug, title, date string) string {
	s.t.Helper()
	fm := fmt.Sprintf("title: %q\ndate: %s\nexcerpt: %q", title, date, "About "+title)
	return s.Post(slug+".md", fm, "# "+title+"\n\nBody of "+title+".\n")
}

// Asset writes a file below the asset directory.
func (s *Site) Asset(rel, content string) {
	s.t.Helper()
	s.write(filepath.Join(s.Config.Paths.Assets, filepath.FromSlash(rel)), content)
}

// Template overwrites one of the page templates.
func (s *Site) Template(name, content string) {
	s.t.Helper()
	s.write(filepath.Join(s.Config.Paths.Templates, name), content)
}

// WriteConfig writes the site configuration as YAML below the root and
// returns its path.
func (s *Site) WriteConfig() string {
	s.t.Helper()
	data, err := yaml.Marshal(s.Config)
	if err != nil {
		s.t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(s.Root, "sitegen.yaml")
	s.write(path, string(data))
	return path
}

func (s *Site) write(path, content string) {
	s.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		s.t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		s.t.Fatalf("write %s: %v", path, err)
	}
}

// Output reads a generated file.
func (s *Site) Output(rel string) string {
	s.t.Helper()
	data, err := os.ReadFile(filepath.Join(s.Config.Paths.Output, filepath.FromSlash(rel)))
	if err != nil {
		s.t.Fatalf("read output %s: %v", rel, err)
	}
	return string(data)
}

// OutputFiles lists generated files as sorted slash paths.
func (s *Site) OutputFiles() []string {
	s.t.Helper()
	return slices.Sorted(maps.Keys(s.Snapshot()))
}

// Snapshot maps every generated file to the sha256 of its content.
func (s *Site) Snapshot() map[string]string {
	s.t.Helper()
	out := map[string]string{}
	root := s.Config.Paths.Output
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		out[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		s.t.Fatalf("snapshot output: %v", err)
	}
	return out
}
