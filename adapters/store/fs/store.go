package storefs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-bookshelf/export"
)

// DefaultFileMode is applied to written documents.
const DefaultFileMode os.FileMode = 0o644

// Writer persists documents on the local filesystem with write-then-rename.
type Writer struct {
	// Root confines relative and absolute paths under a directory when set.
	Root string
	Mode os.FileMode
}

// NewWriter creates a filesystem writer with default file mode.
func NewWriter() *Writer {
	return &Writer{Mode: DefaultFileMode}
}

// Write copies r into a temp file next to path, syncs it, and renames it over
// path. An existing file at path is replaced.
func (s *Writer) Write(ctx context.Context, path string, r io.Reader) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil {
		return 0, export.NewError(export.KindInternal, "writer is nil", nil)
	}
	if r == nil {
		return 0, export.NewError(export.KindValidation, "document reader is required", nil)
	}

	target, err := s.resolvePath(path)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return 0, writeError(target, "destination is a directory", nil)
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, writeError(target, "create directory failed", err)
	}

	tmp, err := os.CreateTemp(dir, ".bookshelf-*")
	if err != nil {
		return 0, writeError(target, "create temp file failed", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return size, writeError(target, "write failed", err)
	}
	if err := tmp.Sync(); err != nil {
		return size, writeError(target, "sync failed", err)
	}
	if err := tmp.Close(); err != nil {
		return size, writeError(target, "close failed", err)
	}
	if err := os.Chmod(tmp.Name(), s.mode()); err != nil {
		return size, writeError(target, "chmod failed", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return size, writeError(target, "rename failed", err)
	}
	return size, nil
}

func (s *Writer) resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", export.NewError(export.KindValidation, "output path is required", nil)
	}
	if s.Root == "" {
		return filepath.Clean(path), nil
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", writeError(path, "resolve root failed", err)
	}
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)
	if target == root || !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", export.NewError(export.KindValidation, fmt.Sprintf("output path %q escapes root", path), nil)
	}
	return target, nil
}

func (s *Writer) mode() os.FileMode {
	if s.Mode == 0 {
		return DefaultFileMode
	}
	return s.Mode
}

func writeError(path, msg string, err error) error {
	return export.NewError(export.KindOutputWrite, fmt.Sprintf("%s: %s", path, msg), err)
}
