package templates

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

//go:embed defaults/*
var defaultFS embed.FS

// Defaults returns the built-in starter template set.
func Defaults() (*Set, error) {
	read := func(name string) string {
		data, _ := defaultFS.ReadFile("defaults/" + name)
		return string(data)
	}
	return Parse(read(BaseName), read(PostName), read(IndexName))
}

// WriteStarter writes the starter templates into templatesDir and a starter
// stylesheet into assetsDir. Existing files are kept unless force is set.
// It returns the paths it wrote.
func WriteStarter(templatesDir, assetsDir string, force bool) ([]string, error) {
	targets := []struct{ name, dir string }{
		{BaseName, templatesDir},
		{PostName, templatesDir},
		{IndexName, templatesDir},
		{"style.css", assetsDir},
	}

	var written []string
	for _, t := range targets {
		path := filepath.Join(t.dir, t.name)
		if _, err := os.Stat(path); err == nil && !force {
			continue
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return written, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot inspect starter file").
				WithContext("path", path).
				Build()
		}

		data, err := defaultFS.ReadFile("defaults/" + t.name)
		if err != nil {
			return written, ferrors.InternalError("embedded starter file missing").WithCause(err).Build()
		}
		if err := os.MkdirAll(t.dir, 0o755); err != nil {
			return written, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create directory").
				WithContext("path", t.dir).
				Build()
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write starter file").
				WithContext("path", path).
				Build()
		}
		written = append(written, path)
	}
	return written, nil
}
