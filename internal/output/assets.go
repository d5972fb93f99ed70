package output

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	ferrors "github.com/santiiagoleandro-ops/site-financas-llama/internal/foundation/errors"
)

// CopyAssets copies the tree under src into dst byte for byte, keeping
// relative paths and file modes. Existing files are overwritten. It returns
// the number of files copied.
func CopyAssets(src, dst string) (int, error) {
	count := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return ferrors.AssetSourceUnreadable(path, err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return ferrors.AssetSourceUnreadable(path, err)
		}
		target := filepath.Join(dst, rel)

		info, err := os.Stat(path)
		if err != nil {
			return ferrors.AssetSourceUnreadable(path, err)
		}
		if info.IsDir() {
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return ferrors.OutputWriteFailed(target, err)
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if err := copyFile(path, target, info.Mode().Perm()); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return ferrors.AssetSourceUnreadable(src, err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return ferrors.OutputWriteFailed(dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return ferrors.OutputWriteFailed(dst, err)
	}
	if err := out.Close(); err != nil {
		return ferrors.OutputWriteFailed(dst, err)
	}
	// OpenFile applies the umask; restore the source mode exactly.
	if err := os.Chmod(dst, mode); err != nil {
		return ferrors.OutputWriteFailed(dst, err)
	}
	return nil
}
