package environment

import (
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/agilescientific/kosu/internal/config"
)

// Merger folds course additions into a base environment. One Merger is used
// for every course of a run, because it remembers the last pip block.
type Merger struct {
	lastPip *Dependency
}

// Merge returns a copy of base named after the course, with the course pip
// entries added to the pip block, the course conda entries appended, and the
// pip block moved back to the end.
func (m *Merger) Merge(base *Environment, course *config.Course) *Environment {
	env := base.Clone()
	env.Name = course.EnvironmentName()

	deps, pip := m.takePipBlock(env.Dependencies)

	pip.Pip = append(pip.Pip, course.Pip...)

	for _, spec := range course.Conda {
		deps = append(deps, Package(spec))
	}

	env.Dependencies = append(deps, pip)

	remembered := PipBlock(pip.Pip...)
	m.lastPip = &remembered

	return env
}

// takePipBlock pops a trailing pip block off deps. When the base has none, the
// block from the previous merge is reused, previous course entries included.
// TODO: reject bases without a pip block once every workspace manifest has one.
func (m *Merger) takePipBlock(deps []Dependency) ([]Dependency, Dependency) {
	if n := len(deps); n > 0 && deps[n-1].pip {
		return deps[:n-1], PipBlock(deps[n-1].Pip...)
	}

	if m.lastPip != nil {
		return deps, PipBlock(m.lastPip.Pip...)
	}

	return deps, PipBlock()
}

// Combine unions channels, conda packages and pip entries of envs into one
// environment. Other mapping entries are kept once each, after the packages.
// Entries are sorted so the output is stable.
func Combine(envs []*Environment) *Environment {
	channels := make(map[string]struct{})
	conda := make(map[string]struct{})
	pip := make(map[string]struct{})
	others := make(map[string]Dependency)

	for _, env := range envs {
		for _, ch := range env.Channels {
			channels[ch] = struct{}{}
		}

		for _, dep := range env.Dependencies {
			if dep.pip {
				for _, entry := range dep.Pip {
					pip[entry] = struct{}{}
				}

				continue
			}

			if dep.raw != nil {
				if key, err := yaml.Marshal(dep.raw); err == nil {
					others[string(key)] = dep
				}

				continue
			}

			conda[dep.Package] = struct{}{}
		}
	}

	combined := &Environment{
		Name:     CombinedName,
		Channels: sortedKeys(channels),
	}

	for _, spec := range sortedKeys(conda) {
		combined.Dependencies = append(combined.Dependencies, Package(spec))
	}

	for _, key := range slices.Sorted(maps.Keys(others)) {
		combined.Dependencies = append(combined.Dependencies, others[key])
	}

	combined.Dependencies = append(combined.Dependencies, PipBlock(sortedKeys(pip)...))

	return combined
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
