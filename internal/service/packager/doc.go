// Package packager assembles course builds.
//
// A build turns a course manifest into build/<course>: processed notebooks
// and their master copies, images, data, scripts, references, a merged conda
// environment and a rendered README. The folder is then optionally zipped,
// uploaded and removed. Courses are processed one at a time and the first
// failure stops the run.
package packager
