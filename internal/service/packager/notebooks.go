package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/fileutil"
	"github.com/agilescientific/kosu/internal/logger"
	"github.com/agilescientific/kosu/internal/notebook"
)

// layout holds the notebook folders of one build. demos is empty when the
// course declares no demos.
type layout struct {
	master    string
	notebooks string
	demos     string
}

// folders returns the notebook bearing folders that exist in the build.
func (l layout) folders() []string {
	folders := []string{l.master, l.notebooks}
	if l.demos != "" {
		folders = append(folders, l.demos)
	}

	return folders
}

// assets collects what processed notebooks reference.
type assets struct {
	images   []string
	dataURLs []string
}

// buildNotebooks processes the curriculum, extras and demos of course into
// buildPath, copies the referenced images and returns the data URLs to check.
func (p *Packager) buildNotebooks(ctx context.Context, buildPath string, course *config.Course) (layout, []string, error) {
	l := layout{
		master:    filepath.Join(buildPath, masterDir),
		notebooks: filepath.Join(buildPath, notebooksDir),
	}

	if len(course.Demos) > 0 {
		l.demos = filepath.Join(buildPath, demosDir)
	}

	for _, dir := range l.folders() {
		if err := os.MkdirAll(dir, fileutil.DirMode); err != nil {
			return l, nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	var found assets

	p.out.Start("Processing notebooks")

	batches := []struct {
		names []string
		dir   string
		mode  notebook.Mode
	}{
		{names: course.Notebooks(), dir: l.notebooks, mode: notebook.ModeNormal},
		{names: course.Demos, dir: l.demos, mode: notebook.ModeDemo},
	}

	for _, batch := range batches {
		for _, name := range batch.names {
			if err := p.processNotebook(ctx, name, batch.dir, l.master, batch.mode, &found); err != nil {
				p.out.EndLine()
				return l, nil, err
			}

			p.out.Mark("+")
		}
	}

	p.out.EndLine()

	if err := p.copyImages(buildPath, found.images); err != nil {
		return l, nil, err
	}

	return l, found.dataURLs, nil
}

func (p *Packager) processNotebook(
	ctx context.Context,
	name, dir, master string,
	mode notebook.Mode,
	found *assets,
) error {
	in := p.path(SourceDir, name)
	out := filepath.Join(dir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(out), fileutil.DirMode); err != nil {
		return err
	}

	images, dataURLs, err := p.transformer.Transform(ctx, in, out, mode)
	if err != nil {
		return fmt.Errorf("process %s: %w", name, err)
	}

	found.images = append(found.images, images...)
	found.dataURLs = append(found.dataURLs, dataURLs...)

	copied := filepath.Join(master, filepath.FromSlash(name))
	if err = copyInto(in, copied); err != nil {
		return fmt.Errorf("copy master %s: %w", name, err)
	}

	p.stripMaster(ctx, copied)

	return nil
}

// stripMaster clears outputs from a master copy. Failures are logged and the
// copy is left as it was.
func (p *Packager) stripMaster(ctx context.Context, path string) {
	if err := p.stripper.Strip(ctx, path); err != nil {
		logger.WarnKV(ctx, "Could not strip master notebook", "path", path, "error", err)
	}
}

// copyImages copies every referenced image into images/. Repeated names are
// copied again.
func (p *Packager) copyImages(buildPath string, images []string) error {
	if len(images) == 0 {
		return nil
	}

	dir := filepath.Join(buildPath, ImagesDir)
	if err := os.MkdirAll(dir, fileutil.DirMode); err != nil {
		return fmt.Errorf("create images folder: %w", err)
	}

	for _, image := range images {
		if err := fileutil.CopyFile(p.path(ImagesDir, image), filepath.Join(dir, image)); err != nil {
			return fmt.Errorf("copy image %s: %w", image, err)
		}
	}

	return nil
}
