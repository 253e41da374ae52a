package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestExtension is the suffix of course manifests.
	ManifestExtension = ".yaml"

	// notebookExtension marks curriculum items that are Jupyter notebooks.
	notebookExtension = ".ipynb"
)

// ErrMissingKey is returned when a course manifest lacks a required key.
var ErrMissingKey = errors.New("missing required key")

// Course is the decoded manifest of a single course.
type Course struct {
	// Name is the course identifier, the manifest filename without ".yaml".
	Name string `yaml:"-"`
	// Title is the human readable course title.
	Title string `yaml:"title"`
	// Curriculum lists content items grouped by section, in file order.
	Curriculum Curriculum `yaml:"curriculum"`
	// Extras are notebooks rendered and listed in the README.
	Extras []string `yaml:"extras"`
	// Demos are notebooks processed in demo mode and left out of the README.
	Demos []string `yaml:"demos"`
	// Scripts are copied next to every notebook folder.
	Scripts []string `yaml:"scripts"`
	// References are copied into the references folder.
	References []string `yaml:"references"`
	// Data lists files expected at the remote data location.
	Data []string `yaml:"data"`
	// DataURL overrides the remote data base URL.
	DataURL string `yaml:"data_url"`
	// Pip holds extra pip requirements.
	Pip []string `yaml:"pip"`
	// Conda holds extra conda requirements.
	Conda []string `yaml:"conda"`
	// Environment overrides the generated environment name.
	Environment string `yaml:"environment"`
}

// Section is one named group of curriculum items.
type Section struct {
	Name  string
	Items []string
}

// Curriculum is an ordered list of sections.
type Curriculum []Section

// UnmarshalYAML decodes a section mapping while keeping its key order.
func (c *Curriculum) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: curriculum must be a mapping of section to items", value.Line)
	}

	sections := make(Curriculum, 0, len(value.Content)/2)

	for i := 0; i+1 < len(value.Content); i += 2 {
		var items []string
		if err := value.Content[i+1].Decode(&items); err != nil {
			return fmt.Errorf("curriculum section %q: %w", value.Content[i].Value, err)
		}

		sections = append(sections, Section{
			Name:  value.Content[i].Value,
			Items: items,
		})
	}

	*c = sections

	return nil
}

// Items returns every curriculum item in order.
func (c Curriculum) Items() []string {
	var items []string
	for _, section := range c {
		items = append(items, section.Items...)
	}

	return items
}

// IsNotebook reports whether a curriculum item names a Jupyter notebook.
func IsNotebook(item string) bool {
	return strings.Contains(item, notebookExtension)
}

// Notebooks returns the curriculum items that are notebooks.
func (c Curriculum) Notebooks() []string {
	var notebooks []string

	for _, item := range c.Items() {
		if IsNotebook(item) {
			notebooks = append(notebooks, item)
		}
	}

	return notebooks
}

// Notebooks returns the notebooks rendered for students: curriculum first, then extras.
func (c *Course) Notebooks() []string {
	return append(c.Curriculum.Notebooks(), c.Extras...)
}

// EnvironmentName returns the name of the generated environment.
func (c *Course) EnvironmentName() string {
	if c.Environment != "" {
		return strings.ToLower(c.Environment)
	}

	return strings.ToLower(c.Name)
}

// CourseName strips the manifest extension from a course identifier.
func CourseName(id string) string {
	return strings.TrimSuffix(strings.TrimSpace(id), ManifestExtension)
}

// LoadCourse reads <dir>/<course>.yaml and validates the required keys.
func LoadCourse(dir, id string) (*Course, error) {
	name := CourseName(id)
	path := filepath.Join(dir, name+ManifestExtension)

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read course manifest: %w", err)
	}

	var course Course
	if err = yaml.Unmarshal(contents, &course); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	course.Name = name

	if err = validateCourse(&course); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &course, nil
}

func validateCourse(course *Course) error {
	if strings.TrimSpace(course.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingKey)
	}

	if course.Curriculum == nil {
		return fmt.Errorf("%w: curriculum", ErrMissingKey)
	}

	return nil
}
