package environment

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/agilescientific/kosu/internal/fileutil"
)

const (
	// BaseFilename is the workspace manifest every course environment starts from.
	BaseFilename = "environment.yaml"
	// CourseFilename is the generated manifest inside a course build. Conda
	// expects the .yml extension.
	CourseFilename = "environment.yml"
	// CombinedFilename is written by `kosu test --environment`.
	CombinedFilename = "environment-all.yml"
	// CombinedName is the name of the combined environment.
	CombinedName = "kosu-all"

	keyName         = "name"
	keyChannels     = "channels"
	keyDependencies = "dependencies"
	keyPip          = "pip"

	yamlIndent = 2
)

var errNotMapping = errors.New("environment manifest must be a mapping")

// Environment is a conda environment descriptor.
type Environment struct {
	Name         string
	Channels     []string
	Dependencies []Dependency

	// order lists the top-level keys of the loaded file after name.
	order []string
	// extra keeps any other top-level keys, in file order.
	extra []field
}

type field struct {
	key   string
	value *yaml.Node
}

// Dependency is a conda package spec, the pip block, or any other mapping
// entry, which is carried through untouched.
type Dependency struct {
	// Package is the conda spec; empty for mappings.
	Package string
	// Pip lists pip requirements of the pip block.
	Pip []string

	pip bool
	raw *yaml.Node
}

// Package returns a conda dependency.
func Package(spec string) Dependency {
	return Dependency{Package: spec}
}

// PipBlock returns a pip block holding entries.
func PipBlock(entries ...string) Dependency {
	return Dependency{Pip: append([]string{}, entries...), pip: true}
}

// IsPip reports whether d is the pip block.
func (d Dependency) IsPip() bool {
	return d.pip
}

// UnmarshalYAML decodes a scalar spec, the pip block, or keeps any other
// mapping as is.
func (d *Dependency) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*d = Package(value.Value)
		return nil
	case yaml.MappingNode:
		if len(value.Content) != 2 || value.Content[0].Value != keyPip {
			*d = Dependency{raw: value}
			return nil
		}

		var entries []string
		if err := value.Content[1].Decode(&entries); err != nil {
			return fmt.Errorf("line %d: pip block: %w", value.Line, err)
		}

		*d = PipBlock(entries...)

		return nil
	default:
		return fmt.Errorf("line %d: unsupported dependency entry", value.Line)
	}
}

// MarshalYAML encodes the pip block as a mapping and packages as scalars.
func (d Dependency) MarshalYAML() (any, error) {
	if d.raw != nil {
		return d.raw, nil
	}

	if !d.pip {
		return d.Package, nil
	}

	pip := d.Pip
	if pip == nil {
		pip = []string{}
	}

	return map[string][]string{keyPip: pip}, nil
}

// UnmarshalYAML decodes the manifest keeping unknown keys and their order.
func (e *Environment) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errNotMapping
	}

	var env Environment

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, node := value.Content[i].Value, value.Content[i+1]

		var err error

		if key != keyName {
			env.order = append(env.order, key)
		}

		switch key {
		case keyName:
			err = node.Decode(&env.Name)
		case keyChannels:
			err = node.Decode(&env.Channels)
			if err == nil && env.Channels == nil {
				env.Channels = []string{}
			}
		case keyDependencies:
			err = node.Decode(&env.Dependencies)
		default:
			env.extra = append(env.extra, field{key: key, value: node})
		}

		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	*e = env

	return nil
}

// MarshalYAML emits name first, then the other keys in the order of the
// loaded file. Channels and dependencies missing from that file come last.
func (e *Environment) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	add := func(key string, value any) error {
		var node yaml.Node
		if err := node.Encode(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, &node)

		return nil
	}

	if err := add(keyName, e.Name); err != nil {
		return nil, err
	}

	deps := e.Dependencies
	if deps == nil {
		deps = []Dependency{}
	}

	extra := make(map[string]*yaml.Node, len(e.extra))
	for _, f := range e.extra {
		extra[f.key] = f.value
	}

	keys := slices.Clone(e.order)
	for _, key := range []string{keyChannels, keyDependencies} {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}

	for _, key := range keys {
		var err error

		switch key {
		case keyChannels:
			if e.Channels != nil {
				err = add(keyChannels, e.Channels)
			}
		case keyDependencies:
			err = add(keyDependencies, deps)
		default:
			if node, ok := extra[key]; ok {
				root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, node)
			}
		}

		if err != nil {
			return nil, err
		}
	}

	return root, nil
}

// Clone returns a deep copy of e.
func (e *Environment) Clone() *Environment {
	clone := &Environment{
		Name:         e.Name,
		Dependencies: make([]Dependency, 0, len(e.Dependencies)+1),
		order:        slices.Clone(e.order),
		extra:        slices.Clone(e.extra),
	}

	if e.Channels != nil {
		clone.Channels = append([]string{}, e.Channels...)
	}

	for _, dep := range e.Dependencies {
		if dep.pip {
			dep = PipBlock(dep.Pip...)
		}

		clone.Dependencies = append(clone.Dependencies, dep)
	}

	return clone
}

// PipEntries returns the entries of the trailing pip block, if any.
func (e *Environment) PipEntries() []string {
	if n := len(e.Dependencies); n > 0 && e.Dependencies[n-1].pip {
		return e.Dependencies[n-1].Pip
	}

	return nil
}

// Load reads an environment manifest from path.
func Load(path string) (*Environment, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	var env Environment
	if err = yaml.Unmarshal(contents, &env); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &env, nil
}

// Marshal renders e in block style with the key order preserved.
func (e *Environment) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)

	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("encode environment: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode environment: %w", err)
	}

	return buf.Bytes(), nil
}

// Write stores e at path.
func (e *Environment) Write(path string) error {
	contents, err := e.Marshal()
	if err != nil {
		return err
	}

	if err = os.WriteFile(filepath.Clean(path), contents, fileutil.FileMode); err != nil {
		return fmt.Errorf("write environment: %w", err)
	}

	return nil
}
