package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/config"
	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/observability"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/output"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/templates"
)

// stageClean removes the output root and recreates it empty.
func stageClean(ctx context.Context, bs *buildState) error {
	root := bs.cfg.Paths.Output
	if err := checkOutputRoot(bs.cfg.Paths); err != nil {
		return newFatalStageError(StageClean, ferrors.OutputDirectoryUnavailable(root, err))
	}
	if err := os.RemoveAll(root); err != nil {
		return newFatalStageError(StageClean, ferrors.OutputDirectoryUnavailable(root, err))
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return newFatalStageError(StageClean, ferrors.OutputDirectoryUnavailable(root, err))
	}
	observability.DebugContext(ctx, "Output root cleaned", logfields.Path(root))
	return nil
}

// checkOutputRoot refuses output roots whose removal would destroy inputs.
func checkOutputRoot(paths config.PathsConfig) error {
	if paths.Output == "" {
		return errors.New("output directory not configured")
	}
	out, err := filepath.Abs(paths.Output)
	if err != nil {
		return err
	}
	if out == filepath.Dir(out) {
		return fmt.Errorf("refusing to use filesystem root %s as output", out)
	}
	for _, in := range []string{paths.Posts, paths.Templates, paths.Assets} {
		if in == "" {
			continue
		}
		if insideOutput(out, in) {
			return fmt.Errorf("output directory %s contains input directory %s", paths.Output, in)
		}
	}
	return nil
}

// stageTemplates loads the three page templates and prepares the writer.
func stageTemplates(ctx context.Context, bs *buildState) error {
	tpl, err := templates.Load(bs.cfg.Paths.Templates)
	if err != nil {
		return newFatalStageError(StageTemplates, err)
	}
	bs.writer = output.NewWriter(bs.cfg.Paths.Output, tpl, bs.cfg.SiteConfig, bs.now().UTC().Year())
	observability.DebugContext(ctx, "Templates loaded", logfields.Path(bs.cfg.Paths.Templates))
	return nil
}

// stageAssets copies the asset tree verbatim. A missing asset directory is
// a warning; an unreadable one is fatal.
func stageAssets(ctx context.Context, bs *buildState) error {
	src := bs.cfg.Paths.Assets
	if src == "" {
		return nil
	}
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return newWarnStageError(StageAssets, fmt.Errorf("assets directory %s not found, nothing copied", src))
	}
	if err != nil {
		return newFatalStageError(StageAssets, ferrors.AssetSourceUnreadable(src, err))
	}
	if !info.IsDir() {
		return newFatalStageError(StageAssets, ferrors.AssetSourceUnreadable(src, errors.New("not a directory")))
	}

	n, err := output.CopyAssets(src, bs.cfg.Paths.Output)
	if err != nil {
		return newFatalStageError(StageAssets, err)
	}
	bs.report.Assets = n
	observability.InfoContext(ctx, "Assets copied", logfields.Count(n))
	return nil
}
