package markdown

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// footnoteRenderer overrides GFM's default footnote-definition markup
// with the fixed shape spec.md §4.5 requires.
type footnoteRenderer struct{}

func (r *footnoteRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(extast.KindFootnoteDefinition, r.render)
}

func (r *footnoteRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	node := n.(*extast.FootnoteDefinition)
	label := string(node.Ref)
	if entering {
		fmt.Fprintf(w, `<div class="footnote-definition" id="%s"><span class="footnote-definition-label">%s</span>`, label, label)
		return ast.WalkContinue, nil
	}
	w.WriteString("</div>\n")
	return ast.WalkContinue, nil
}
