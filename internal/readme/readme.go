// Package readme renders the README of a course build from a template.
package readme

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/fileutil"
)

const (
	// TemplateName is the template file looked up in the template folder,
	// and the name of the rendered file.
	TemplateName = "README.md"
)

// ErrTemplateNotFound is returned when the template folder has no README.md.
var ErrTemplateNotFound = errors.New("readme template not found")

// Context is the data a README template sees.
type Context struct {
	// Env is the course identifier.
	Env        string
	Title      string
	Curriculum config.Curriculum
	Extras     []string
}

// NewContext builds the template context of course.
func NewContext(course *config.Course) Context {
	return Context{
		Env:        course.Name,
		Title:      course.Title,
		Curriculum: course.Curriculum,
		Extras:     course.Extras,
	}
}

// Renderer turns a named template and a context into text.
type Renderer interface {
	Render(name string, data any) ([]byte, error)
}

// TemplateRenderer renders text/template files from a folder. Executing a
// template that reads a missing key fails.
type TemplateRenderer struct {
	dir string
}

// NewTemplateRenderer returns a renderer loading templates from dir.
func NewTemplateRenderer(dir string) *TemplateRenderer {
	return &TemplateRenderer{dir: dir}
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(name string, data any) ([]byte, error) {
	source, err := os.ReadFile(filepath.Join(r.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, filepath.Join(r.dir, name))
	} else if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(Funcs()).
		Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", name, err)
	}

	return buf.Bytes(), nil
}

// Funcs returns the helpers available to README templates.
func Funcs() template.FuncMap {
	caser := cases.Title(language.Und)

	return template.FuncMap{
		"title": func(s string) string {
			return caser.String(strings.ReplaceAll(s, "_", " "))
		},
		"lower": strings.ToLower,
		"stem": func(name string) string {
			return strings.TrimSuffix(path.Base(name), path.Ext(name))
		},
		"notebook": config.IsNotebook,
	}
}

// Build renders the README of course with r and writes it into dir.
func Build(r Renderer, dir string, course *config.Course) error {
	contents, err := r.Render(TemplateName, NewContext(course))
	if err != nil {
		return err
	}

	if err = os.WriteFile(filepath.Join(dir, TemplateName), contents, fileutil.FileMode); err != nil {
		return fmt.Errorf("write readme: %w", err)
	}

	return nil
}
