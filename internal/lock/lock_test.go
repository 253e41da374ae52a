package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	held, err := Acquire(dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, Filename))

	_, err = Acquire(dir)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, held.Release())
	require.FileExists(t, filepath.Join(dir, Filename))

	again, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestReleaseKeepsLockFileShared(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, Filename)

	first, err := Acquire(dir)
	require.NoError(t, err)

	before, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, first.Release())

	second, err := Acquire(dir)
	require.NoError(t, err)

	after, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, os.SameFile(before, after), "every holder locks the same file")

	_, err = Acquire(dir)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, second.Release())
}
