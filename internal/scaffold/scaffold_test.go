package scaffold

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/environment"
	"github.com/agilescientific/kosu/internal/notebook"
	"github.com/agilescientific/kosu/internal/readme"
)

func TestInitCreatesWorkspace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	written, err := Init(dir)
	require.NoError(t, err)
	require.Equal(t, Files(), written)

	for _, folder := range Folders {
		info, err := os.Stat(filepath.Join(dir, folder))
		require.NoError(t, err)
		require.True(t, info.IsDir(), folder)
	}

	for _, name := range written {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		require.NoError(t, err, name)
	}
}

func TestInitOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "example_course.yaml")

	_, err := Init(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(manifest, []byte("edited"), 0o600))

	_, err = Init(dir)
	require.NoError(t, err)

	contents, err := os.ReadFile(manifest)
	require.NoError(t, err)
	require.NotEqual(t, "edited", string(contents))
}

func TestBundledFilesAreUsable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Init(dir)
	require.NoError(t, err)

	course, err := config.LoadCourse(dir, "example_course")
	require.NoError(t, err)
	require.Equal(t, "Example Course", course.Title)
	require.Equal(t, []string{"Interesting_notebook.ipynb"}, course.Demos)

	for _, name := range append(course.Notebooks(), course.Demos...) {
		_, err := notebook.ReadFile(filepath.Join(dir, "prod", name))
		require.NoError(t, err, name)
	}

	base, err := environment.Load(filepath.Join(dir, environment.BaseFilename))
	require.NoError(t, err)

	merged := new(environment.Merger).Merge(base, course)
	require.Equal(t, "example_course", merged.Name)
	require.Contains(t, merged.PipEntries(), "bruges")

	require.NoError(t, readme.Build(readme.NewTemplateRenderer(filepath.Join(dir, "templates")), dir, course))

	out, err := os.ReadFile(filepath.Join(dir, readme.TemplateName))
	require.NoError(t, err)
	require.Contains(t, string(out), "# Example Course")
	require.Contains(t, string(out), "conda activate example_course")
	require.Contains(t, string(out), "[Intro To Python](notebooks/Intro_to_Python.ipynb)")
	require.Contains(t, string(out), "- Break for lunch")
	require.NotContains(t, string(out), "Interesting_notebook")

	ctrl := config.LoadControl(context.Background(), dir)
	require.Equal(t, config.DefaultDataCache, ctrl.DataCache)
	require.Equal(t, config.DefaultTemplates, ctrl.Templates)
}

func TestBundledMatchesFileList(t *testing.T) {
	t.Parallel()

	var names []string

	err := fs.WalkDir(Bundled(), ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		names = append(names, name)

		return nil
	})
	require.NoError(t, err)
	require.Len(t, names, len(files))
}
