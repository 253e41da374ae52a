package environment

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gopkg.in/yaml.v3"

	"github.com/agilescientific/kosu/internal/config"
)

// TestMergeProperties checks that the pip block stays last and keeps every
// course entry, whatever the base and course contents are.
func TestMergeProperties(t *testing.T) {
	t.Parallel()

	properties := gopter.NewProperties(nil)

	spec := gen.RegexMatch(`^[a-z][a-z0-9_]{0,8}$`)

	properties.Property("pip block stays last after merge", prop.ForAll(
		func(conda, basePip, coursePip, courseConda []string) bool {
			base := &Environment{}
			for _, c := range conda {
				base.Dependencies = append(base.Dependencies, Package(c))
			}

			base.Dependencies = append(base.Dependencies, PipBlock(basePip...))

			var m Merger

			env := m.Merge(base, &config.Course{Name: "Course", Pip: coursePip, Conda: courseConda})

			last := env.Dependencies[len(env.Dependencies)-1]
			if !last.IsPip() || len(last.Pip) != len(basePip)+len(coursePip) {
				return false
			}

			for i, entry := range coursePip {
				if last.Pip[len(basePip)+i] != entry {
					return false
				}
			}

			return len(env.Dependencies) == len(conda)+len(courseConda)+1
		},
		gen.SliceOf(spec),
		gen.SliceOf(spec),
		gen.SliceOf(spec),
		gen.SliceOf(spec),
	))

	properties.Property("written manifest ends with a pip mapping", prop.ForAll(
		func(coursePip []string) bool {
			var m Merger

			env := m.Merge(&Environment{Dependencies: []Dependency{Package("python"), PipBlock()}}, &config.Course{Name: "c", Pip: coursePip})

			raw, err := env.Marshal()
			if err != nil {
				return false
			}

			var reloaded Environment
			if err = yaml.Unmarshal(raw, &reloaded); err != nil {
				return false
			}

			entries := reloaded.PipEntries()
			if entries == nil || len(entries) != len(coursePip) {
				return len(coursePip) == 0 && reloaded.Dependencies[len(reloaded.Dependencies)-1].IsPip()
			}

			return true
		},
		gen.SliceOf(spec),
	))

	properties.TestingRun(t)
}
