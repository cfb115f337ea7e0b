package markdown

import (
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/pylon-ssg/pylon/library"
)

// linkTransformer implements spec.md §4.5's link-rewriting rules as a
// goldmark AST transformer. Grounded on danprince-sietch's
// internal/mdext.links (same "walk ast.KindLink nodes, rewrite
// Destination in place" shape), generalized from its hardcoded
// ".md" -> ".html" rewrite to the spec's four-way classification.
type linkTransformer struct {
	pageURI string
	lib     *library.Library
	err     error
}

func (t *linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindLink || t.err != nil {
			return ast.WalkContinue, nil
		}
		link := n.(*ast.Link)
		resolved, err := t.resolve(string(link.Destination))
		if err != nil {
			t.err = err
			return ast.WalkStop, nil
		}
		link.Destination = []byte(resolved)
		return ast.WalkContinue, nil
	})
}

func (t *linkTransformer) resolve(dest string) (string, error) {
	switch {
	case strings.HasPrefix(dest, "#"):
		return dest, nil
	case strings.HasPrefix(dest, "@/"):
		target := strings.TrimPrefix(dest, "@/")
		p, ok := t.lib.Get("/" + target)
		if !ok {
			return "", &BrokenInternalLinkError{SourceURI: t.pageURI, Target: dest}
		}
		return p.Uri().String(), nil
	case isOffsite(dest):
		return dest, nil
	case strings.HasPrefix(dest, "/"):
		return dest, nil
	default:
		return path.Join(path.Dir(t.pageURI), dest), nil
	}
}

func isOffsite(dest string) bool {
	if strings.HasPrefix(dest, "//") || strings.HasPrefix(dest, "mailto:") {
		return true
	}
	u, err := url.Parse(dest)
	return err == nil && u.Scheme != ""
}
