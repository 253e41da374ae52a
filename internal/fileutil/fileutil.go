// Package fileutil holds the small filesystem helpers shared by the build steps.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// FileMode is applied to every file kosu writes.
	FileMode os.FileMode = 0o644
	// DirMode is applied to every directory kosu creates.
	DirMode os.FileMode = 0o755
)

// CopyFile streams src to dst, truncating dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return WriteFrom(dst, in)
}

// WriteFrom streams r into dst, truncating dst if it exists.
func WriteFrom(dst string, r io.Reader) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FileMode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return err
	}

	return out.Close()
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w", path, err)
}

// IsEmptyDir reports whether dir exists and has no entries.
func IsEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	return len(entries) == 0, nil
}
