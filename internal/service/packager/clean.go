package packager

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/fileutil"
	"github.com/agilescientific/kosu/internal/logger"
)

// CleanAll removes the build folder and archive of every course. The build
// folder itself is removed whenever it is left empty.
func (p *Packager) CleanAll(ctx context.Context, courses []string) error {
	ctx = logger.WithName(ctx, "packager")

	err := p.RunCourses(ctx, "Cleaning", courses, func(ctx context.Context, course string) error {
		if err := p.Clean(ctx, course); err != nil {
			return err
		}

		_, err := p.removeEmptyBuildDir(ctx)

		return err
	})
	if err != nil {
		return err
	}

	_, err = p.removeEmptyBuildDir(ctx)

	return err
}

// Clean removes build/<course> and <course>.zip. Missing files are ignored.
func (p *Packager) Clean(ctx context.Context, id string) error {
	name := config.CourseName(id)

	if err := os.RemoveAll(p.BuildPath(name)); err != nil {
		return fmt.Errorf("remove build folder: %w", err)
	}

	if err := os.Remove(p.ArchivePath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove archive: %w", err)
	}

	logger.DebugKV(ctx, "Cleaned course", "course", name)

	return nil
}

// removeEmptyBuildDir deletes build/ when it has no entries and reports
// whether it did.
func (p *Packager) removeEmptyBuildDir(ctx context.Context) (bool, error) {
	dir := p.path(BuildDir)

	empty, err := fileutil.IsEmptyDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("read build folder: %w", err)
	}

	if !empty {
		return false, nil
	}

	if err = os.Remove(dir); err != nil {
		return false, fmt.Errorf("remove build folder: %w", err)
	}

	p.out.Removedf("Removing build directory.")
	logger.DebugKV(ctx, "Removed empty build folder", "path", dir)

	return true, nil
}
