// Package highlight implements spec.md §4.6: syntax highlighting for
// fenced code blocks and offline CSS generation from theme descriptions.
package highlight

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

// ClassPrefix is prepended to every span class chroma emits, per spec.md
// §4.6 ("class names prefixed by a fixed prefix").
const ClassPrefix = "syn-"

// Highlighter owns a theme and formats fenced code one block at a time.
// Mirrors danprince-sietch's mdext.syntaxHighlighting, generalized to a
// standalone component the markdown package's node renderer calls into
// rather than a goldmark extension in its own right.
type Highlighter struct {
	style *chroma.Style
}

// New returns a Highlighter bound to themeName (a chroma builtin style
// name). Falls back to "monokai" (the teacher's own default) if themeName
// is unknown.
func New(themeName string) *Highlighter {
	style, ok := styles.Registry[themeName]
	if !ok {
		style = styles.Get("monokai")
	}
	return &Highlighter{style: style}
}

// Highlight tokenises code under the lexer named by lang and formats it
// as HTML span markup. If lang has no matching syntax, code is returned
// HTML-escaped but otherwise verbatim, per spec.md §4.6.
func (h *Highlighter) Highlight(lang, code string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return EscapeVerbatim(code), nil
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("highlight: tokenising %s: %w", lang, err)
	}

	formatter := html.New(
		html.Standalone(false),
		html.WithClasses(true),
		html.ClassPrefix(ClassPrefix),
		html.PreventSurroundingPre(true),
	)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, h.style, iterator); err != nil {
		return "", fmt.Errorf("highlight: formatting %s: %w", lang, err)
	}
	return buf.String(), nil
}

// ThemeCSS generates the CSS stylesheet for themeName, suitable for
// writing beside the build output so highlighted spans render correctly.
func ThemeCSS(themeName string) (string, error) {
	style, ok := styles.Registry[themeName]
	if !ok {
		return "", fmt.Errorf("highlight: unknown theme %q", themeName)
	}
	formatter := html.New(html.WithClasses(true), html.ClassPrefix(ClassPrefix))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("highlight: writing css for %q: %w", themeName, err)
	}
	return buf.String(), nil
}

// EscapeVerbatim HTML-escapes s for use inside a <pre><code> block when
// no highlighter matched its language tag.
func EscapeVerbatim(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
