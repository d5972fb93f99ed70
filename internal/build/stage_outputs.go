package build

import (
	"context"
	"fmt"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/linkverify"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/observability"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/site"
)

// stageOutputs writes the aggregate views: index, sitemap, feed and robots.
func stageOutputs(ctx context.Context, bs *buildState) error {
	out := site.NewBuildOutput(bs.cfg.SiteConfig, bs.posts)

	if err := bs.writer.WriteIndex(out); err != nil {
		return newFatalStageError(StageOutputs, err)
	}
	if err := bs.writer.WriteSitemap(out); err != nil {
		return newFatalStageError(StageOutputs, err)
	}
	if err := bs.writer.WriteFeed(out, bs.cfg.Build.FeedLimit); err != nil {
		return newFatalStageError(StageOutputs, err)
	}
	if err := bs.writer.WriteRobots(); err != nil {
		return newFatalStageError(StageOutputs, err)
	}
	observability.DebugContext(ctx, "Aggregate outputs written", logfields.Count(len(out.Posts)))
	return nil
}

// stageVerifyLinks checks internal links of the fresh tree. Broken links are
// warnings.
func stageVerifyLinks(ctx context.Context, bs *buildState) error {
	v, err := linkverify.NewVerifier(bs.cfg.Paths.Output, bs.cfg.Domain)
	if err != nil {
		return newWarnStageError(StageLinks, err)
	}
	res, err := v.VerifyTree(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return newWarnStageError(StageLinks, err)
	}
	bs.report.Links = res
	if !res.OK() {
		for _, b := range res.Broken {
			observability.WarnContext(ctx, "Broken link", logfields.Path(b.Page), logfields.URL(b.Target))
		}
		return newWarnStageError(StageLinks, fmt.Errorf("%d broken links", len(res.Broken)))
	}
	return nil
}
