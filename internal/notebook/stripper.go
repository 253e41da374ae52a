package notebook

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultStripCommand is the external tool used to clear notebook outputs.
const DefaultStripCommand = "nbstripout"

// volatileMetadata lists cell metadata keys that only describe a past run.
var volatileMetadata = []string{"collapsed", "scrolled", "execution", "ExecuteTime"}

// Stripper removes execution outputs from a notebook file in place.
type Stripper interface {
	Strip(ctx context.Context, path string) error
}

// CommandStripper runs an external stripping tool on the file.
type CommandStripper struct {
	Command string
}

// Strip implements Stripper.
func (s *CommandStripper) Strip(ctx context.Context, path string) error {
	output, err := exec.CommandContext(ctx, s.Command, path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", s.Command, path, err, strings.TrimSpace(string(output)))
	}

	return nil
}

// NativeStripper clears outputs without any external tool.
type NativeStripper struct{}

// Strip implements Stripper.
func (NativeStripper) Strip(_ context.Context, path string) error {
	nb, err := ReadFile(path)
	if err != nil {
		return err
	}

	for _, cell := range nb.Cells {
		cell.ClearOutputs()
		stripMetadata(cell)
	}

	return nb.WriteFile(path)
}

func stripMetadata(cell Cell) {
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(cell[keyMetadata], &meta); err != nil || meta == nil {
		return
	}

	for _, key := range volatileMetadata {
		delete(meta, key)
	}

	if raw, err := json.Marshal(meta); err == nil {
		cell[keyMetadata] = raw
	}
}

// DefaultStripper prefers nbstripout when it is installed.
func DefaultStripper() Stripper {
	if _, err := exec.LookPath(DefaultStripCommand); err == nil {
		return &CommandStripper{Command: DefaultStripCommand}
	}

	return NativeStripper{}
}
