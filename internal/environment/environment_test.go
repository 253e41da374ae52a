package environment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/agilescientific/kosu/internal/config"
)

const baseManifest = `channels:
  - conda-forge
dependencies:
  - python=3.11
  - pandas
  - pip:
      - bruges
variables:
  MPLBACKEND: Agg
`

func writeBase(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), BaseFilename)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

// TestMerge_KeepsPipLast checks the merge invariant on a regular base manifest.
func TestMerge_KeepsPipLast(t *testing.T) {
	t.Parallel()

	base, err := Load(writeBase(t, baseManifest))
	require.NoError(t, err)

	var m Merger

	env := m.Merge(base, &config.Course{Name: "Geocomp", Pip: []string{"numpy"}, Conda: []string{"scipy"}})

	require.Equal(t, "geocomp", env.Name)
	require.Equal(t, []string{"conda-forge"}, env.Channels)

	want := []Dependency{Package("python=3.11"), Package("pandas"), Package("scipy"), PipBlock("bruges", "numpy")}
	if diff := cmp.Diff(want, env.Dependencies, cmp.AllowUnexported(Dependency{})); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}

	// The base is left untouched.
	require.Equal(t, []string{"bruges"}, base.PipEntries())
}

// TestMerge_ReusesPreviousPipBlock documents the behavior for a base without a pip block.
func TestMerge_ReusesPreviousPipBlock(t *testing.T) {
	t.Parallel()

	var m Merger

	first := m.Merge(&Environment{Dependencies: []Dependency{PipBlock("bruges")}}, &config.Course{Name: "a", Pip: []string{"numpy"}})
	require.Equal(t, []string{"bruges", "numpy"}, first.PipEntries())

	second := m.Merge(&Environment{Dependencies: []Dependency{Package("python")}}, &config.Course{Name: "b", Pip: []string{"welly"}})
	require.Equal(t, []string{"bruges", "numpy", "welly"}, second.PipEntries())
	require.Equal(t, []string{"bruges", "numpy"}, first.PipEntries())

	var fresh Merger

	third := fresh.Merge(&Environment{}, &config.Course{Name: "c"})
	require.Len(t, third.Dependencies, 1)
	require.True(t, third.Dependencies[0].IsPip())
	require.Empty(t, third.PipEntries())
}

// TestWrite_RoundTrip writes the manifest and checks key order and the trailing mapping.
func TestWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	base, err := Load(writeBase(t, baseManifest))
	require.NoError(t, err)

	var m Merger

	env := m.Merge(base, &config.Course{Name: "geocomp", Pip: []string{"numpy"}})

	out := filepath.Join(t.TempDir(), CourseFilename)
	require.NoError(t, env.Write(out))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(raw, &doc))

	root := doc.Content[0]
	keys := make([]string, 0, len(root.Content)/2)

	for i := 0; i < len(root.Content); i += 2 {
		keys = append(keys, root.Content[i].Value)
	}

	require.Equal(t, []string{"name", "channels", "dependencies", "variables"}, keys)

	deps := root.Content[5]
	last := deps.Content[len(deps.Content)-1]
	require.Equal(t, yaml.MappingNode, last.Kind)
	require.NotContains(t, string(raw), "{")

	reloaded, err := Load(out)
	require.NoError(t, err)
	require.Equal(t, []string{"bruges", "numpy"}, reloaded.PipEntries())
}

func topLevelKeys(t *testing.T, raw []byte) []string {
	t.Helper()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(raw, &doc))

	root := doc.Content[0]
	keys := make([]string, 0, len(root.Content)/2)

	for i := 0; i < len(root.Content); i += 2 {
		keys = append(keys, root.Content[i].Value)
	}

	return keys
}

// TestWrite_KeepsBaseKeyOrder checks name leads and the rest follows the base file.
func TestWrite_KeepsBaseKeyOrder(t *testing.T) {
	t.Parallel()

	base, err := Load(writeBase(t, `variables:
  MPLBACKEND: Agg
dependencies:
  - python=3.11
  - pip:
      - bruges
name: base
channels:
  - conda-forge
`))
	require.NoError(t, err)

	var m Merger

	raw, err := m.Merge(base, &config.Course{Name: "geocomp"}).Marshal()
	require.NoError(t, err)
	require.Equal(t, []string{"name", "variables", "dependencies", "channels"}, topLevelKeys(t, raw))

	raw, err = Combine([]*Environment{base}).Marshal()
	require.NoError(t, err)
	require.Equal(t, []string{"name", "channels", "dependencies"}, topLevelKeys(t, raw))
}

// TestLoad_KeepsOtherMappings checks a mapping entry that is not the pip block survives a merge.
func TestLoad_KeepsOtherMappings(t *testing.T) {
	t.Parallel()

	base, err := Load(writeBase(t, `dependencies:
  - python=3.11
  - conda-lock:
      - linux-64
  - pip:
      - bruges
`))
	require.NoError(t, err)
	require.Len(t, base.Dependencies, 3)
	require.False(t, base.Dependencies[1].IsPip())
	require.Equal(t, []string{"bruges"}, base.PipEntries())

	var m Merger

	env := m.Merge(base, &config.Course{Name: "geocomp", Pip: []string{"numpy"}, Conda: []string{"scipy"}})

	out := filepath.Join(t.TempDir(), CourseFilename)
	require.NoError(t, env.Write(out))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(raw), "conda-lock:\n")
	require.Contains(t, string(raw), "- linux-64\n")

	reloaded, err := Load(out)
	require.NoError(t, err)
	require.Len(t, reloaded.Dependencies, 4)
	require.Equal(t, []string{"bruges", "numpy"}, reloaded.PipEntries())

	combined := Combine([]*Environment{reloaded, env})
	require.Len(t, combined.Dependencies, 4, "python, scipy, the conda-lock entry once, pip")
	require.True(t, combined.Dependencies[3].IsPip())
}

// TestLoad_Errors reports missing and malformed manifests.
func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeBase(t, "- just\n- a list\n"))
	require.ErrorIs(t, err, errNotMapping)

	_, err = Load(writeBase(t, "dependencies:\n  - [nested]\n"))
	require.Error(t, err)
}

// TestCombine unions and sorts entries across environments.
func TestCombine(t *testing.T) {
	t.Parallel()

	a := &Environment{
		Name:         "a",
		Channels:     []string{"defaults", "conda-forge"},
		Dependencies: []Dependency{Package("python"), PipBlock("numpy")},
	}
	b := &Environment{
		Name:         "b",
		Channels:     []string{"conda-forge"},
		Dependencies: []Dependency{Package("python"), Package("gdal"), PipBlock("bruges", "numpy")},
	}

	combined := Combine([]*Environment{a, b})

	require.Equal(t, CombinedName, combined.Name)
	require.Equal(t, []string{"conda-forge", "defaults"}, combined.Channels)

	want := []Dependency{Package("gdal"), Package("python"), PipBlock("bruges", "numpy")}
	if diff := cmp.Diff(want, combined.Dependencies, cmp.AllowUnexported(Dependency{})); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
}
