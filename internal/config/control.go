package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/agilescientific/kosu/internal/logger"
)

const (
	// ControlFilename is the cross-course control file looked up in the workspace.
	ControlFilename = ".kosu.yaml"

	// DefaultDataCache is the local folder downloaded data files are kept in.
	DefaultDataCache = "data"

	// DefaultTemplates is the folder holding the README template.
	DefaultTemplates = "templates"

	// envPrefix is prepended to control keys to form environment variable names.
	envPrefix = "KOSU"
)

const (
	keyS3Bucket  = "s3-bucket"
	keyS3Path    = "s3-path"
	keyAll       = "all"
	keyDataCache = "data-cache"
	keyTemplates = "templates"
)

// Control holds settings shared by every course of a workspace.
// It is built once at startup and never mutated afterwards.
type Control struct {
	// Path is the directory kosu is installed in.
	Path string
	// S3Bucket is the bucket data is fetched from and archives are published to.
	S3Bucket string
	// S3Path is the key prefix of data files within S3Bucket.
	S3Path string
	// All overrides the list of courses processed with --all.
	All []string
	// DataCache is where downloaded data files are kept between builds.
	DataCache string
	// Templates is the folder holding README.md.
	Templates string
}

// DefaultControl returns the settings used when no control file is present.
func DefaultControl() *Control {
	return &Control{
		Path:      installPath(),
		DataCache: DefaultDataCache,
		Templates: DefaultTemplates,
	}
}

// LoadControl reads <dir>/.kosu.yaml. A missing file is not an error, and a
// malformed one is reported as a warning: defaults and environment overrides
// still apply.
func LoadControl(ctx context.Context, dir string) *Control {
	ctrl, err := readControl(dir)
	if err != nil {
		logger.WarnKV(ctx, "Ignoring control file", "path", filepath.Join(dir, ControlFilename), "error", err)
	}

	return ctrl
}

// readControl always returns usable settings; the error reports a control
// file that could not be parsed.
func readControl(dir string) (*Control, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetDefault(keyDataCache, DefaultDataCache)
	v.SetDefault(keyTemplates, DefaultTemplates)

	for _, key := range []string{keyS3Bucket, keyS3Path, keyAll, keyDataCache, keyTemplates} {
		if err := v.BindEnv(key); err != nil {
			return DefaultControl(), fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var readErr error

	path := filepath.Join(dir, ControlFilename)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err = v.ReadInConfig(); err != nil {
			readErr = fmt.Errorf("parse control file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		readErr = fmt.Errorf("stat control file: %w", err)
	}

	ctrl := &Control{
		Path:      installPath(),
		S3Bucket:  strings.TrimSpace(v.GetString(keyS3Bucket)),
		S3Path:    strings.Trim(strings.TrimSpace(v.GetString(keyS3Path)), "/"),
		All:       v.GetStringSlice(keyAll),
		DataCache: v.GetString(keyDataCache),
		Templates: v.GetString(keyTemplates),
	}

	return ctrl, readErr
}

// installPath returns the directory holding the running executable.
func installPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Dir(exe)
}
