package version

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
}

// TestVersionCommand runs the attached subcommand and checks its output.
func TestVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "kosu"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), Full())
}

func TestGetKeepsLinkedVersion(t *testing.T) {
	t.Parallel()

	info := Get()
	require.Equal(t, Version, info.Version)
	require.NotEmpty(t, info.Commit)
	require.NotEmpty(t, info.BuildTime)
}
