package notebook

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/agilescientific/kosu/internal/logger"
)

// Mode selects how a notebook is transformed.
type Mode int

const (
	// ModeNormal produces the student copy: no solutions, no outputs.
	ModeNormal Mode = iota
	// ModeDemo produces an instructor walkthrough: outputs kept, exercises removed.
	ModeDemo
)

// Cell tags understood by the Processor.
const (
	TagHide     = "hide"
	TagSolution = "solution"
	TagDemo     = "demo"
	TagExercise = "exercise"
)

func (m Mode) String() string {
	if m == ModeDemo {
		return "demo"
	}

	return "normal"
}

// Transformer writes a transformed copy of the notebook at in to out and
// reports the images and data URLs the copy references.
type Transformer interface {
	Transform(ctx context.Context, in, out string, mode Mode) (images, dataURLs []string, err error)
}

var (
	markdownImageRe = regexp.MustCompile(`!\[[^\]]*\]\(\s*<?([^)\s>]+)>?(?:\s+["'][^"']*["'])?\s*\)`)
	dataURLRe       = regexp.MustCompile(`["'](https?://[^"'\s]+)["']`)
)

// Processor is the built-in Transformer.
type Processor struct{}

// NewProcessor returns a Processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Transform implements Transformer.
func (p *Processor) Transform(ctx context.Context, in, out string, mode Mode) ([]string, []string, error) {
	nb, err := ReadFile(in)
	if err != nil {
		return nil, nil, err
	}

	images, dataURLs := p.Apply(nb, mode)

	if err = nb.WriteFile(out); err != nil {
		return nil, nil, err
	}

	logger.DebugKV(ctx, "Transformed notebook",
		"input", in, "output", out, "mode", mode.String(),
		"images", len(images), "data_urls", len(dataURLs))

	return images, dataURLs, nil
}

// Apply transforms nb in memory and returns the referenced assets.
func (p *Processor) Apply(nb *Notebook, mode Mode) (images, dataURLs []string) {
	kept := make([]Cell, 0, len(nb.Cells))

	for _, cell := range nb.Cells {
		if dropCell(cell, mode) {
			continue
		}

		switch cell.Type() {
		case cellTypeMarkdown:
			images = append(images, imagesIn(cell.Source())...)
		case cellTypeCode:
			dataURLs = append(dataURLs, dataURLsIn(cell.Source())...)
		}

		if mode == ModeNormal {
			cell.ClearOutputs()
		}

		kept = append(kept, cell)
	}

	nb.Cells = kept

	return images, dataURLs
}

func dropCell(cell Cell, mode Mode) bool {
	if cell.HasTag(TagHide) {
		return true
	}

	if mode == ModeDemo {
		return cell.HasTag(TagExercise)
	}

	return cell.HasTag(TagSolution) || cell.HasTag(TagDemo)
}

// imagesIn returns base names of local images linked from markdown source,
// both as markdown links and as HTML img tags.
func imagesIn(source string) []string {
	var images []string

	for _, match := range markdownImageRe.FindAllStringSubmatch(source, -1) {
		if name, ok := localImage(match[1]); ok {
			images = append(images, name)
		}
	}

	if !strings.Contains(source, "<img") {
		return images
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return images
	}

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if name, ok := localImage(src); ok {
			images = append(images, name)
		}
	})

	return images
}

func localImage(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	lower := strings.ToLower(ref)
	for _, prefix := range []string{"http://", "https://", "data:", "attachment:"} {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}

	name := path.Base(strings.ReplaceAll(ref, `\`, "/"))
	if name == "." || name == "/" {
		return "", false
	}

	return name, true
}

// dataURLsIn returns quoted http(s) URLs found in code.
func dataURLsIn(source string) []string {
	var urls []string
	for _, match := range dataURLRe.FindAllStringSubmatch(source, -1) {
		urls = append(urls, match[1])
	}

	return urls
}
