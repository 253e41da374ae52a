package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Zip archives root/<course> into dst. Every entry lives under "<course>/".
// It returns the size of the archive.
func Zip(root, course, dst string) (int64, error) {
	f, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}

	w := zip.NewWriter(f)

	err = filepath.WalkDir(filepath.Join(root, course), func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}

		return addEntry(w, name, filepath.ToSlash(rel), d)
	})
	if err == nil {
		err = w.Close()
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("write archive %s: %w", dst, err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

func addEntry(w *zip.Writer, name, entry string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = entry

	if d.IsDir() {
		header.Name = path.Clean(entry) + "/"
		header.Method = zip.Store

		_, err = w.CreateHeader(header)

		return err
	}

	header.Method = zip.Deflate

	out, err := w.CreateHeader(header)
	if err != nil {
		return err
	}

	in, err := os.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(out, in)

	return err
}
