// Package linkverify checks that every internal reference in a generated
// site resolves to a file of the same tree.
package linkverify

import (
	"context"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

// BrokenLink is an internal reference whose target is missing.
type BrokenLink struct {
	Page   string `json:"page"`
	Target string `json:"target"`
	Tag    string `json:"tag"`
}

// Result summarizes a tree verification.
type Result struct {
	Pages    int          `json:"pages"`
	Checked  int          `json:"checked"`
	External int          `json:"external"`
	Broken   []BrokenLink `json:"broken"`
}

// OK reports whether no broken links were found.
func (r *Result) OK() bool { return len(r.Broken) == 0 }

// Verifier resolves links of pages below root. Absolute links under domain
// count as internal.
type Verifier struct {
	root string
	base *url.URL
}

// NewVerifier returns a verifier for the tree at root published under domain.
func NewVerifier(root, domain string) (*Verifier, error) {
	base, err := url.Parse(strings.TrimRight(domain, "/"))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid base URL").
			WithContext("domain", domain).
			Build()
	}
	return &Verifier{root: root, base: base}, nil
}

// VerifyTree checks every .html file below the root, in lexical order.
func (v *Verifier) VerifyTree(ctx context.Context) (*Result, error) {
	res := &Result{}
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		links, err := ExtractLinks(p)
		if err != nil {
			return err
		}
		res.Pages++
		v.checkPage(filepath.ToSlash(rel), links, res)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot scan output tree").
			WithContext("path", v.root).
			Build()
	}
	return res, nil
}

func (v *Verifier) checkPage(page string, links []Link, res *Result) {
	for _, link := range links {
		if !ShouldVerify(link) {
			continue
		}
		target, internal := v.resolve(page, link.URL)
		if !internal {
			res.External++
			continue
		}
		res.Checked++
		if !v.exists(target) {
			slog.Debug("Broken link", "page", page, "target", link.URL)
			res.Broken = append(res.Broken, BrokenLink{Page: page, Target: link.URL, Tag: link.Tag})
		}
	}
}

// resolve maps a link found on page to a slash path relative to the root.
func (v *Verifier) resolve(page, raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, true
	}
	p := u.Path
	if u.Scheme != "" || u.Host != "" {
		if !strings.EqualFold(u.Host, v.base.Host) {
			return "", false
		}
		rest, ok := strings.CutPrefix(p, v.base.Path)
		if !ok {
			return "", false
		}
		return strings.TrimPrefix(path.Clean("/"+rest), "/"), true
	}
	if p == "" {
		// Query or fragment only: the page itself.
		return page, true
	}
	if strings.HasPrefix(p, "/") {
		if v.base.Path != "" {
			p = strings.TrimPrefix(p, v.base.Path)
		}
		return strings.TrimPrefix(path.Clean("/"+p), "/"), true
	}
	return strings.TrimPrefix(path.Clean("/"+path.Join(path.Dir(page), p)), "/"), true
}

func (v *Verifier) exists(rel string) bool {
	full := filepath.Join(v.root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err := os.Stat(filepath.Join(full, "index.html"))
		return err == nil
	}
	return true
}
