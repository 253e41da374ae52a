package data

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/fileutil"
	"github.com/agilescientific/kosu/internal/logger"
	"github.com/agilescientific/kosu/internal/storage"
)

// EmptyMarker keeps the data folder in the archive when a course has no data.
const EmptyMarker = "folder_should_be_empty.txt"

const archiveExtension = ".zip"

var (
	// ErrNoDataSource is returned when data is declared but nowhere to fetch it from.
	ErrNoDataSource = errors.New("no data_url or s3-bucket specified")

	errUnsafeArchivePath = errors.New("archive entry escapes target directory")
)

// BaseURL returns the URL data files of course are fetched from: the course
// data_url if set, otherwise the bucket and path of the control file.
func BaseURL(course *config.Course, ctrl *config.Control) (string, error) {
	if course.DataURL != "" {
		return course.DataURL, nil
	}

	if ctrl == nil || ctrl.S3Bucket == "" {
		return "", ErrNoDataSource
	}

	prefix := ""
	if ctrl.S3Path != "" {
		prefix = ctrl.S3Path + "/"
	}

	return storage.PublicURL(ctrl.S3Bucket, prefix), nil
}

// FileURL joins a base URL and a file name.
func FileURL(base, name string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return base + strings.TrimPrefix(name, "/")
}

// CachePath returns where the file name fetched from base is cached under
// cacheDir. Files are grouped by source so courses sharing a file name but not
// a data location never see each other's copy.
func CachePath(cacheDir, base, name string) string {
	return filepath.Join(cacheDir, sourceKey(base), filepath.FromSlash(name))
}

// sourceKey turns a base URL into a single folder name, e.g.
// "https://host:8080/data/" becomes "host_8080_data".
func sourceKey(base string) string {
	key := base
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		key = u.Host + "/" + u.Path
	}

	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, key)

	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}

	key = strings.Trim(key, "_.")
	if key == "" {
		return "_"
	}

	return key
}

// Stager fills the data folder of a build.
type Stager struct {
	client   *Client
	cacheDir string
	onFile   func(name string)
}

// NewStager returns a Stager downloading through client into cacheDir.
// onFile, if set, is called once per staged file.
func NewStager(client *Client, cacheDir string, onFile func(name string)) *Stager {
	return &Stager{client: client, cacheDir: cacheDir, onFile: onFile}
}

// Stage creates dataDir and fills it with the files course declares.
func (s *Stager) Stage(ctx context.Context, course *config.Course, ctrl *config.Control, dataDir string) error {
	if err := os.MkdirAll(dataDir, fileutil.DirMode); err != nil {
		return fmt.Errorf("create data folder: %w", err)
	}

	if len(course.Data) == 0 {
		return fileutil.WriteFrom(filepath.Join(dataDir, EmptyMarker), strings.NewReader(""))
	}

	base, err := BaseURL(course, ctrl)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(s.cacheDir, fileutil.DirMode); err != nil {
		return fmt.Errorf("create data cache: %w", err)
	}

	for _, name := range course.Data {
		if err = s.stageFile(ctx, base, name, dataDir); err != nil {
			return err
		}

		if s.onFile != nil {
			s.onFile(name)
		}
	}

	return nil
}

func (s *Stager) stageFile(ctx context.Context, base, name, dataDir string) error {
	cached := CachePath(s.cacheDir, base, name)

	found, err := fileutil.Exists(cached)
	if err != nil {
		return err
	}

	if !found {
		if err = os.MkdirAll(filepath.Dir(cached), fileutil.DirMode); err != nil {
			return err
		}

		if err = s.client.Download(ctx, FileURL(base, name), cached); err != nil {
			return err
		}
	} else {
		logger.DebugKV(ctx, "Using cached data file", "path", cached)
	}

	if strings.EqualFold(filepath.Ext(name), archiveExtension) {
		if err = Unzip(cached, dataDir); err != nil {
			return fmt.Errorf("inflate %s: %w", name, err)
		}

		return nil
	}

	target := filepath.Join(dataDir, filepath.FromSlash(name))
	if err = os.MkdirAll(filepath.Dir(target), fileutil.DirMode); err != nil {
		return err
	}

	return fileutil.CopyFile(cached, target)
}

// Unzip extracts every entry of the archive at src into dir.
func Unzip(src, dir string) error {
	r, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = r.Close()
		return fmt.Errorf("%s: %w", src, errUnsafeArchivePath)
	} else if err != nil {
		return err
	}
	defer r.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		if err = extract(f, root); err != nil {
			return err
		}
	}

	return nil
}

func extract(f *zip.File, root string) error {
	target := filepath.Join(root, filepath.FromSlash(f.Name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("%s: %w", f.Name, errUnsafeArchivePath)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, fileutil.DirMode)
	}

	if err := os.MkdirAll(filepath.Dir(target), fileutil.DirMode); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return fileutil.WriteFrom(target, io.LimitReader(rc, int64(f.UncompressedSize64)))
}
