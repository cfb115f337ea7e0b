// Package markdown implements spec.md §4.5: rendering a page's Markdown
// body to HTML with internal-link rewriting, stable heading IDs, code
// highlighting, footnote-definition markup, and shortcode expansion.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/pylon-ssg/pylon/highlight"
	"github.com/pylon-ssg/pylon/library"
	"github.com/pylon-ssg/pylon/page"
)

// BrokenInternalLinkError reports an "@/..." link whose target doesn't
// resolve to any page in the library.
type BrokenInternalLinkError struct {
	SourceURI string
	Target    string
}

func (e *BrokenInternalLinkError) Error() string {
	return fmt.Sprintf("markdown: %s: broken internal link %q", e.SourceURI, e.Target)
}

// ShortcodeRenderer renders one shortcode invocation ({{ name(k="v") }})
// to an HTML fragment, spliced back into the document before Markdown
// parsing runs. Implemented by the render package, which owns the
// template engine shortcodes are rendered through.
type ShortcodeRenderer interface {
	RenderShortcode(name string, args map[string]string) (string, error)
}

// Renderer wraps a configured goldmark instance plus the stateful
// transformers/node-renderers pylon needs beyond goldmark's defaults.
// A single Renderer is reused across every page render; per-render state
// (the page's own URI and the library to resolve links against) is set
// immediately before each Render call, matching the engine's
// single-threaded ownership model (spec.md §5).
type Renderer struct {
	md     goldmark.Markdown
	links  *linkTransformer
	toc    *headingTransformer
	code   *codeBlockRenderer
	fnotes *footnoteRenderer
}

// New builds a Renderer backed by h for fenced-code highlighting.
func New(h *highlight.Highlighter) *Renderer {
	links := &linkTransformer{}
	toc := &headingTransformer{}
	code := &codeBlockRenderer{highlighter: h}
	fnotes := &footnoteRenderer{}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(links, 100),
				util.Prioritized(toc, 150),
			),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(code, 100),
				util.Prioritized(fnotes, 100),
			),
		),
	)

	return &Renderer{md: md, links: links, toc: toc, code: code, fnotes: fnotes}
}

// Render converts a page's raw Markdown body to HTML, rewriting internal
// links against lib and expanding shortcodes via sc (nil skips shortcode
// expansion entirely). Returns the rendered HTML and the page's table of
// contents.
func (r *Renderer) Render(pageURI string, raw page.RawMarkdown, lib *library.Library, sc ShortcodeRenderer) (string, []TOCNode, error) {
	expanded, err := expandShortcodes(string(raw), sc)
	if err != nil {
		return "", nil, err
	}

	r.links.pageURI = pageURI
	r.links.lib = lib
	r.links.err = nil
	r.toc.toc = nil

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(expanded), &buf); err != nil {
		return "", nil, fmt.Errorf("markdown: rendering %s: %w", pageURI, err)
	}
	if r.links.err != nil {
		return "", nil, r.links.err
	}
	return buf.String(), r.toc.toc, nil
}

// TOC is spec.md §4.5's separate TOC-only entry point: it derives the
// same nested-heading structure Render computes without needing its HTML
// output.
func (r *Renderer) TOC(pageURI string, raw page.RawMarkdown, lib *library.Library, sc ShortcodeRenderer) ([]TOCNode, error) {
	_, toc, err := r.Render(pageURI, raw, lib, sc)
	return toc, err
}
