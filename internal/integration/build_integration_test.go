package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agilescientific/kosu/internal/data"
	"github.com/agilescientific/kosu/internal/environment"
	"github.com/agilescientific/kosu/internal/notebook"
	"github.com/agilescientific/kosu/internal/service/packager"
)

// TestBuild_ChecksNotebookDataURLs builds a course whose notebook reads a
// remote file and whose data comes from the same host.
func TestBuild_ChecksNotebookDataURLs(t *testing.T) {
	chdirWorkspace(t)

	var heads, gets atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			heads.Add(1)
		case http.MethodGet:
			gets.Add(1)
		}

		if r.URL.Path != "/data/wells.csv" {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte("uwi,td\n100,2500\n"))
	}))
	t.Cleanup(srv.Close)

	writeFile(t, filepath.Join(packager.SourceDir, "Wells.ipynb"), `{
 "cells": [
  {"cell_type": "markdown", "metadata": {}, "source": ["# Wells\n", "![logo](../images/logo.png)"]},
  {"cell_type": "code", "execution_count": 3, "metadata": {}, "outputs": [{"output_type": "stream", "name": "stdout", "text": ["100\n"]}], "source": ["df = pd.read_csv(\"`+srv.URL+`/data/wells.csv\")"]}
 ],
 "metadata": {},
 "nbformat": 4,
 "nbformat_minor": 5
}`)
	writeFile(t, "wells.yaml", "title: Wells\ncurriculum:\n  Day 1:\n    - Wells.ipynb\ndata:\n  - wells.csv\ndata_url: "+srv.URL+"/data\nenvironment: Wells-Env\n")

	p, _ := newPackager(t,
		packager.WithStripper(notebook.NativeStripper{}),
		packager.WithDataClient(data.NewClient(srv.Client(), nil)),
	)

	env, err := p.Build(context.Background(), "wells", packager.BuildOptions{Clobber: true})
	require.NoError(t, err)
	require.Equal(t, "wells-env", env.Name)

	require.Equal(t, int32(1), heads.Load())
	require.Equal(t, int32(1), gets.Load())

	build := p.BuildPath("wells")
	require.FileExists(t, filepath.Join(build, "data", "wells.csv"))
	require.FileExists(t, filepath.Join(build, packager.ImagesDir, "logo.png"))

	student, err := notebook.ReadFile(filepath.Join(build, "notebooks", "Wells.ipynb"))
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(student.Cells[1]["outputs"]))

	written, err := environment.Load(filepath.Join(build, environment.CourseFilename))
	require.NoError(t, err)
	require.Equal(t, "wells-env", written.Name)
}
