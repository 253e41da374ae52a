package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/console"
	"github.com/agilescientific/kosu/internal/scaffold"
	"github.com/agilescientific/kosu/internal/service/packager"
)

const testTimeout = 10 * time.Second

// chdirWorkspace moves the test into a fresh scaffolded workspace.
func chdirWorkspace(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	_, err := scaffold.Init(".")
	require.NoError(t, err)
}

// newPackager returns a packager over the working directory with output captured.
func newPackager(t *testing.T, opts ...packager.Option) (*packager.Packager, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	ctrl := config.LoadControl(ctx, ".")

	return packager.New(".", ctrl, console.New(&out, nil), opts...), &out
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}
