package packager

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/environment"
)

// Courses lists the courses of the workspace rooted at root: the control file
// list when it has one, otherwise every manifest next to it in name order.
func Courses(root string, ctrl *config.Control) ([]string, error) {
	if ctrl != nil && len(ctrl.All) > 0 {
		courses := make([]string, 0, len(ctrl.All))
		for _, course := range ctrl.All {
			courses = append(courses, config.CourseName(course))
		}

		return courses, nil
	}

	matches, err := filepath.Glob(filepath.Join(root, "*"+config.ManifestExtension))
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}

	courses := make([]string, 0, len(matches))

	for _, match := range matches {
		name := filepath.Base(match)
		if name == environment.BaseFilename || strings.HasPrefix(name, ".") {
			continue
		}

		courses = append(courses, config.CourseName(name))
	}

	slices.Sort(courses)

	return courses, nil
}
