package build

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/frontmatter"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/manifest"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/observability"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
)

// postResult is the outcome of processing one source file.
type postResult struct {
	path string
	post *site.Post
	page []byte
	err  error
}

// stagePosts parses and renders every source post on a bounded pool, then
// checks slugs and writes the pages. A failing post never cancels its
// siblings; it is recorded as a skip.
func stagePosts(ctx context.Context, bs *buildState) error {
	dir := bs.cfg.Paths.Posts
	files, err := listSources(dir)
	if err != nil {
		return newFatalStageError(StagePosts, err)
	}
	bs.report.Sources = len(files)
	bs.recordRevision(ctx, dir)

	results := make([]postResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bs.cfg.Workers())
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = bs.processPost(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	built := make([]postResult, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			bs.skip(ctx, r.path, r.err)
			continue
		}
		built = append(built, r)
	}

	seen := make(map[string]string, len(built))
	for _, r := range built {
		if first, ok := seen[r.post.Slug]; ok {
			return newFatalStageError(StagePosts, ferrors.DuplicateSlug(r.post.Slug, first, r.path))
		}
		seen[r.post.Slug] = r.path
	}
	for _, r := range built {
		if target := bs.writer.Conflict(r.post); target != "" {
			return newFatalStageError(StagePosts, ferrors.DuplicateSlug(r.post.Slug, "generated "+target, r.path))
		}
	}

	posts := make([]*site.Post, 0, len(built))
	for _, r := range built {
		if err := bs.writer.WritePost(r.post, r.page); err != nil {
			return newFatalStageError(StagePosts, err)
		}
		posts = append(posts, r.post)
		bs.report.Manifest.Add(manifest.Entry{
			Slug:        r.post.Slug,
			Source:      filepath.Base(r.path),
			Fingerprint: r.post.Fingerprint,
		})
	}
	bs.posts = posts
	bs.report.Built = len(posts)
	observability.InfoContext(ctx, "Posts written", logfields.Count(len(posts)), logfields.Path(dir))
	return nil
}

// listSources returns the *.md files directly inside dir in lexical order.
func listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.SourceUnreadable(dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// processPost turns one source file into a rendered page held in memory.
func (bs *buildState) processPost(ctx context.Context, path string) postResult {
	res := postResult{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.err = ferrors.SourceReadFailed(path, err)
		return res
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		res.err = err
		return res
	}

	post := site.NewPost(doc, path)
	body, err := bs.renderer.Render([]byte(doc.Body))
	if err != nil {
		res.err = ferrors.RenderFailed(post.Slug, err)
		return res
	}
	post.BodyHTML = body

	if fp, fpErr := manifest.Fingerprint(doc.Fields, doc.Body); fpErr == nil {
		post.Fingerprint = fp
	} else {
		observability.DebugContext(ctx, "Fingerprint unavailable", logfields.Path(path), logfields.Error(fpErr))
	}

	page, err := bs.writer.RenderPostPage(post)
	if err != nil {
		res.err = err
		return res
	}
	res.post = post
	res.page = page
	return res
}

// skip records a per-post failure as a diagnostic.
func (bs *buildState) skip(ctx context.Context, path string, err error) {
	code := string(ferrors.GetCode(err))
	if code == "" {
		code = string(ferrors.CodeRenderFailed)
	}
	msg := err.Error()
	if ce, ok := ferrors.AsClassified(err); ok {
		msg = ce.Reason()
	}
	bs.report.Skips = append(bs.report.Skips, Skip{Path: path, Code: code, Message: msg})
	bs.recorder.IncPostSkipped(code)
	observability.WarnContext(ctx, "Skipping post",
		logfields.Path(path),
		logfields.Code(code),
		logfields.Error(err))
}

func (bs *buildState) recordRevision(ctx context.Context, dir string) {
	rev, err := manifest.SourceRevision(dir)
	if err != nil {
		observability.DebugContext(ctx, "Source revision unavailable", logfields.Error(err))
		return
	}
	bs.report.SourceRevision = rev
	bs.report.Manifest.SourceRevision = rev
}
