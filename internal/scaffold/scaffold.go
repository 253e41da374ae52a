// Package scaffold creates a new kosu workspace from bundled example files.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/agilescientific/kosu/internal/fileutil"
)

// Folders are created at the root of a new workspace.
var Folders = []string{"prod", "images", "references", "scripts", "templates"}

//go:embed all:include
var bundle embed.FS

const bundleRoot = "include"

// file maps a bundled file to its location in the workspace.
type file struct {
	source string
	target string
}

var files = []file{
	{source: "example_course.yaml", target: "example_course.yaml"},
	{source: ".kosu.yaml", target: ".kosu.yaml"},
	{source: "environment.yaml", target: "environment.yaml"},
	{source: "README.md", target: "templates/README.md"},
	{source: "Intro_to_Python.ipynb", target: "prod/Intro_to_Python.ipynb"},
	{source: "Intro_to_NumPy.ipynb", target: "prod/Intro_to_NumPy.ipynb"},
	{source: "Interesting_notebook.ipynb", target: "prod/Interesting_notebook.ipynb"},
	{source: "logo.png", target: "images/logo.png"},
	{source: "example.py", target: "scripts/example.py"},
	{source: "useful.pdf", target: "references/useful.pdf"},
}

// Init creates the workspace folders under dir and writes the example files,
// overwriting existing ones. It returns the written paths relative to dir.
func Init(dir string) ([]string, error) {
	for _, folder := range Folders {
		if err := os.MkdirAll(filepath.Join(dir, folder), fileutil.DirMode); err != nil {
			return nil, fmt.Errorf("create %s: %w", folder, err)
		}
	}

	written := make([]string, 0, len(files))

	for _, f := range files {
		if err := copyBundled(f.source, filepath.Join(dir, filepath.FromSlash(f.target))); err != nil {
			return written, err
		}

		written = append(written, f.target)
	}

	return written, nil
}

// Files returns the workspace paths Init writes.
func Files() []string {
	targets := make([]string, 0, len(files))
	for _, f := range files {
		targets = append(targets, f.target)
	}

	return targets
}

func copyBundled(name, dst string) error {
	src, err := bundle.Open(path.Join(bundleRoot, name))
	if err != nil {
		return fmt.Errorf("open bundled %s: %w", name, err)
	}
	defer src.Close()

	if err = fileutil.WriteFrom(dst, src); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}

	return nil
}

// Bundled returns the embedded example files.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundle, bundleRoot)
	if err != nil {
		panic(err) // bundleRoot is a compile-time constant.
	}

	return sub
}
