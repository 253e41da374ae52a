package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agilescientific/kosu/internal/fileutil"
)

const (
	cellTypeCode     = "code"
	cellTypeMarkdown = "markdown"

	keyCells          = "cells"
	keyCellType       = "cell_type"
	keySource         = "source"
	keyMetadata       = "metadata"
	keyOutputs        = "outputs"
	keyExecutionCount = "execution_count"
)

var errNotNotebook = errors.New("not a notebook: missing cells")

// Notebook is a decoded nbformat 4 document.
type Notebook struct {
	Cells []Cell

	// fields holds every top-level key except cells.
	fields map[string]json.RawMessage
}

// Cell is a single notebook cell kept as raw JSON fields.
type Cell map[string]json.RawMessage

// Decode reads a notebook from r.
func Decode(r io.Reader) (*Notebook, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode notebook: %w", err)
	}

	rawCells, ok := fields[keyCells]
	if !ok {
		return nil, errNotNotebook
	}

	var cells []Cell
	if err := json.Unmarshal(rawCells, &cells); err != nil {
		return nil, fmt.Errorf("decode cells: %w", err)
	}

	delete(fields, keyCells)

	return &Notebook{Cells: cells, fields: fields}, nil
}

// Encode writes the notebook to w the way Jupyter does: sorted keys,
// one-space indentation, no HTML escaping.
func (nb *Notebook) Encode(w io.Writer) error {
	doc := make(map[string]any, len(nb.fields)+1)
	for key, value := range nb.fields {
		doc[key] = value
	}

	cells := nb.Cells
	if cells == nil {
		cells = []Cell{}
	}

	doc[keyCells] = cells

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")

	return enc.Encode(doc)
}

// ReadFile decodes the notebook stored at path.
func ReadFile(path string) (*Notebook, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	nb, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return nb, nil
}

// WriteFile encodes the notebook to path, replacing any existing file.
func (nb *Notebook) WriteFile(path string) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileutil.FileMode)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = nb.Encode(f); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return f.Close()
}

// Type returns the cell type, e.g. "code" or "markdown".
func (c Cell) Type() string {
	var t string
	_ = json.Unmarshal(c[keyCellType], &t)

	return t
}

// Source returns the cell source joined into one string. nbformat allows
// both a string and a list of lines.
func (c Cell) Source() string {
	raw, ok := c[keySource]
	if !ok {
		return ""
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}

	var text string
	_ = json.Unmarshal(raw, &text)

	return text
}

// Tags returns the cell's metadata tags.
func (c Cell) Tags() []string {
	var meta struct {
		Tags []string `json:"tags"`
	}

	_ = json.Unmarshal(c[keyMetadata], &meta)

	return meta.Tags
}

// HasTag reports whether the cell carries tag.
func (c Cell) HasTag(tag string) bool {
	return slices.Contains(c.Tags(), tag)
}

// ClearOutputs empties outputs and the execution count of a code cell.
func (c Cell) ClearOutputs() {
	if c.Type() != cellTypeCode {
		return
	}

	c[keyOutputs] = json.RawMessage("[]")
	c[keyExecutionCount] = json.RawMessage("null")
}
