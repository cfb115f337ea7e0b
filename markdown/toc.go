package markdown

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// TOCNode is one entry in a page's table of contents.
type TOCNode struct {
	ID       string
	Level    int
	Text     string
	Children []TOCNode
}

// headingTransformer assigns a dashified id to every heading and builds
// the nested TOC tree, replacing goldmark's own parser.WithAutoHeadingID
// (spec.md requires a specific dashify rule, not goldmark's). Grounded
// on s3gen/toc.go's TOCTransformer; simplified to spec.md §4.5's exact
// rule (no de-duplication suffixing, since the spec doesn't call for it).
type headingTransformer struct {
	toc []TOCNode
}

func (t *headingTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	t.toc = nil
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				buf.Write(textNode.Segment.Value(reader.Source()))
			}
		}
		headingText := buf.String()
		id := dashify(headingText)
		heading.SetAttribute([]byte("id"), []byte(id))

		t.addToTOC(TOCNode{ID: id, Level: heading.Level, Text: headingText})
		return ast.WalkContinue, nil
	})
}

func (t *headingTransformer) addToTOC(node TOCNode) {
	if len(t.toc) == 0 || node.Level == 1 {
		t.toc = append(t.toc, node)
		return
	}
	for i := len(t.toc) - 1; i >= 0; i-- {
		if addToChildren(&t.toc[i], node) {
			return
		}
	}
	t.toc = append(t.toc, node)
}

func addToChildren(parent *TOCNode, node TOCNode) bool {
	if node.Level == parent.Level+1 {
		parent.Children = append(parent.Children, node)
		return true
	}
	if node.Level > parent.Level+1 && len(parent.Children) > 0 {
		last := len(parent.Children) - 1
		if addToChildren(&parent.Children[last], node) {
			return true
		}
	}
	return false
}

// dashify implements spec.md §4.5's heading-ID rule: lowercase, spaces to
// "-", drop anything else that isn't alphanumeric, "-", or "_".
func dashify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
