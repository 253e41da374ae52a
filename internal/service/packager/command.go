package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/console"
	"github.com/agilescientific/kosu/internal/data"
	"github.com/agilescientific/kosu/internal/environment"
	"github.com/agilescientific/kosu/internal/fileutil"
	"github.com/agilescientific/kosu/internal/logger"
	"github.com/agilescientific/kosu/internal/notebook"
	"github.com/agilescientific/kosu/internal/readme"
	"github.com/agilescientific/kosu/internal/storage"
)

// Workspace folders read by a build.
const (
	BuildDir      = "build"
	SourceDir     = "prod"
	ImagesDir     = "images"
	ScriptsDir    = "scripts"
	ReferencesDir = "references"
)

// Folders of a course build.
const (
	masterDir    = "master"
	notebooksDir = "notebooks"
	demosDir     = "demos"
	dataDir      = "data"
)

const archiveExtension = ".zip"

// BuildOptions control what happens to a course build once it is assembled.
type BuildOptions struct {
	// Clean removes the build folder at the end.
	Clean bool
	// Zip keeps <course>.zip next to the manifests.
	Zip bool
	// Upload publishes the archive to the control file bucket.
	Upload bool
	// Clobber overwrites an existing build folder or archive without asking.
	Clobber bool
}

// Options contains inputs for Run.
type Options struct {
	// Courses are built in order.
	Courses []string
	// Verb names the action in per-course progress lines, e.g. "Building".
	Verb string
	// Build applies to every course.
	Build BuildOptions
	// CombineEnvironments writes environment-all.yml from every merged
	// environment once all courses are built.
	CombineEnvironments bool
}

// Packager builds the courses of one workspace.
type Packager struct {
	root string
	ctrl *config.Control
	out  *console.Console

	transformer notebook.Transformer
	stripper    notebook.Stripper
	client      *data.Client
	uploader    storage.Uploader
	renderer    readme.Renderer
	merger      environment.Merger
}

// Option customizes a Packager.
type Option func(*Packager)

// WithTransformer replaces the notebook processor.
func WithTransformer(t notebook.Transformer) Option {
	return func(p *Packager) { p.transformer = t }
}

// WithStripper replaces the master notebook stripper.
func WithStripper(s notebook.Stripper) Option {
	return func(p *Packager) { p.stripper = s }
}

// WithDataClient replaces the HTTP client used for data URLs.
func WithDataClient(c *data.Client) Option {
	return func(p *Packager) { p.client = c }
}

// WithUploader replaces the archive uploader.
func WithUploader(u storage.Uploader) Option {
	return func(p *Packager) { p.uploader = u }
}

// WithRenderer replaces the README renderer.
func WithRenderer(r readme.Renderer) Option {
	return func(p *Packager) { p.renderer = r }
}

// New returns a Packager for the workspace rooted at root.
func New(root string, ctrl *config.Control, out *console.Console, opts ...Option) *Packager {
	if ctrl == nil {
		ctrl = config.DefaultControl()
	}

	p := &Packager{root: root, ctrl: ctrl, out: out}

	for _, opt := range opts {
		opt(p)
	}

	if p.transformer == nil {
		p.transformer = notebook.NewProcessor()
	}

	if p.stripper == nil {
		p.stripper = notebook.DefaultStripper()
	}

	if p.client == nil {
		p.client = data.NewClient(nil, nil)
	}

	if p.uploader == nil {
		p.uploader = storage.NewS3Uploader()
	}

	if p.renderer == nil {
		p.renderer = readme.NewTemplateRenderer(p.path(ctrl.Templates))
	}

	return p
}

// Run builds every course of opts and optionally writes the combined environment.
func (p *Packager) Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "packager")

	envs := make([]*environment.Environment, 0, len(opts.Courses))

	err := p.RunCourses(ctx, opts.Verb, opts.Courses, func(ctx context.Context, course string) error {
		env, err := p.Build(ctx, course, opts.Build)
		if err != nil {
			return err
		}

		envs = append(envs, env)

		return nil
	})
	if err != nil {
		return err
	}

	if !opts.CombineEnvironments {
		return nil
	}

	path := p.path(environment.CombinedFilename)
	if err = environment.Combine(envs).Write(path); err != nil {
		return fmt.Errorf("write combined environment: %w", err)
	}

	p.out.Successf("Global environment file written.")

	return nil
}

// RunCourses announces and runs step for each course in order. The first
// failing course stops the run and the remaining courses are skipped.
func (p *Packager) RunCourses(
	ctx context.Context,
	verb string,
	courses []string,
	step func(ctx context.Context, course string) error,
) error {
	for i, course := range courses {
		p.out.Infof("%s %s (%d/%d). Ctrl-C to abort.", verb, course, i+1, len(courses))

		if err := step(logger.WithKV(ctx, "course", course), course); err != nil {
			return fmt.Errorf("%s: %w", course, err)
		}
	}

	p.out.Successf("Finished.")

	return nil
}

// Build assembles build/<course> and returns the merged environment.
func (p *Packager) Build(ctx context.Context, id string, opts BuildOptions) (*environment.Environment, error) {
	course, err := config.LoadCourse(p.root, id)
	if err != nil {
		return nil, err
	}

	buildPath := p.BuildPath(course.Name)
	archive := p.ArchivePath(course.Name)

	if err = p.prepare(buildPath, archive, opts.Clobber); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(buildPath, fileutil.DirMode); err != nil {
		return nil, fmt.Errorf("create build folder: %w", err)
	}

	dirs, dataURLs, err := p.buildNotebooks(ctx, buildPath, course)
	if err != nil {
		return nil, err
	}

	if err = p.buildData(ctx, buildPath, course, dataURLs); err != nil {
		return nil, err
	}

	if err = p.copyScripts(course, dirs.folders()); err != nil {
		return nil, err
	}

	if err = p.copyReferences(buildPath, course); err != nil {
		return nil, err
	}

	env, err := p.buildEnvironment(buildPath, course)
	if err != nil {
		return nil, err
	}

	if err = readme.Build(p.renderer, buildPath, course); err != nil {
		return nil, err
	}

	if opts.Zip || opts.Upload {
		size, err := Zip(p.path(BuildDir), course.Name, archive)
		if err != nil {
			return nil, err
		}

		p.out.Successf("Created %s (%s)", archive, humanize.Bytes(uint64(size)))
	}

	// The archive is the only copy left when an upload fails, so it stays.
	if opts.Upload && p.uploadArchive(ctx, archive) && !opts.Zip {
		if err = os.Remove(archive); err != nil {
			return nil, fmt.Errorf("remove archive: %w", err)
		}
	}

	if opts.Clean {
		if err = os.RemoveAll(buildPath); err != nil {
			return nil, fmt.Errorf("remove build folder: %w", err)
		}

		p.out.Removedf("Removed build files.")
	}

	logger.InfoKV(ctx, "Course built", "path", buildPath)

	return env, nil
}

// BuildPath returns build/<course> within the workspace.
func (p *Packager) BuildPath(course string) string {
	return filepath.Join(p.root, BuildDir, course)
}

// ArchivePath returns <course>.zip within the workspace.
func (p *Packager) ArchivePath(course string) string {
	return filepath.Join(p.root, course+archiveExtension)
}

// RenderReadme renders the README of a course without building it.
func (p *Packager) RenderReadme(id string) ([]byte, error) {
	course, err := config.LoadCourse(p.root, id)
	if err != nil {
		return nil, err
	}

	return p.renderer.Render(readme.TemplateName, readme.NewContext(course))
}

// prepare removes a previous build folder and archive, asking first unless clobber.
func (p *Packager) prepare(buildPath, archive string, clobber bool) error {
	overwrites := []struct {
		path    string
		message string
	}{
		{path: buildPath, message: "The target directory exists and will be overwritten. Are you sure?"},
		{path: archive, message: "The ZIP file exists and will be overwritten. Are you sure?"},
	}

	for _, o := range overwrites {
		found, err := fileutil.Exists(o.path)
		if err != nil {
			return err
		}

		if !found {
			continue
		}

		if !clobber {
			if err = p.out.Confirm(o.message, true); err != nil {
				return err
			}
		}

		if err = os.RemoveAll(o.path); err != nil {
			return fmt.Errorf("remove %s: %w", o.path, err)
		}
	}

	return nil
}

// buildData checks the URLs notebooks read from and stages the course data.
func (p *Packager) buildData(ctx context.Context, buildPath string, course *config.Course, urls []string) error {
	p.out.Start("Checking and downloading data")
	defer p.out.EndLine()

	if err := p.client.CheckURLs(ctx, urls, func(string) { p.out.Mark(".") }); err != nil {
		return err
	}

	stager := data.NewStager(p.client, p.path(p.ctrl.DataCache), func(string) { p.out.Mark("+") })

	return stager.Stage(ctx, course, p.ctrl, filepath.Join(buildPath, dataDir))
}

// copyScripts puts every course script into each notebook folder.
func (p *Packager) copyScripts(course *config.Course, folders []string) error {
	for _, script := range course.Scripts {
		src := p.path(ScriptsDir, script)

		for _, folder := range folders {
			if err := copyInto(src, filepath.Join(folder, filepath.FromSlash(script))); err != nil {
				return fmt.Errorf("copy script %s: %w", script, err)
			}
		}
	}

	return nil
}

func (p *Packager) copyReferences(buildPath string, course *config.Course) error {
	if len(course.References) == 0 {
		return nil
	}

	dir := filepath.Join(buildPath, ReferencesDir)
	if err := os.MkdirAll(dir, fileutil.DirMode); err != nil {
		return fmt.Errorf("create references folder: %w", err)
	}

	for _, name := range course.References {
		if err := copyInto(p.path(ReferencesDir, name), filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return fmt.Errorf("copy reference %s: %w", name, err)
		}
	}

	return nil
}

func (p *Packager) buildEnvironment(buildPath string, course *config.Course) (*environment.Environment, error) {
	base, err := environment.Load(p.path(environment.BaseFilename))
	if err != nil {
		return nil, err
	}

	env := p.merger.Merge(base, course)

	if err = env.Write(filepath.Join(buildPath, environment.CourseFilename)); err != nil {
		return nil, err
	}

	return env, nil
}

// uploadArchive publishes archive and prints its public link. A failed upload
// is reported as a warning and does not fail the build.
func (p *Packager) uploadArchive(ctx context.Context, archive string) bool {
	key := filepath.Base(archive)

	if err := p.uploader.Upload(ctx, archive, p.ctrl.S3Bucket, key); err != nil {
		logger.WarnKV(ctx, "Upload to S3 failed", "archive", archive, "error", err)
		p.out.Warnf("Upload to S3 failed: %v", err)

		return false
	}

	p.out.Successf("Uploaded %s", archive)
	p.out.Successf("File link: %s", storage.PublicURL(p.ctrl.S3Bucket, key))

	return true
}

// path resolves a workspace relative path. Absolute paths are kept.
func (p *Packager) path(elem ...string) string {
	joined := filepath.Join(elem...)
	if filepath.IsAbs(joined) {
		return joined
	}

	return filepath.Join(p.root, joined)
}

// copyInto copies src to dst, creating the parent folder of dst.
func copyInto(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), fileutil.DirMode); err != nil {
		return err
	}

	return fileutil.CopyFile(src, dst)
}
