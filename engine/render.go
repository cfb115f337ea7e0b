package engine

import (
	"fmt"
	"html/template"

	"github.com/pylon-ssg/pylon/library"
	"github.com/pylon-ssg/pylon/page"
	"github.com/pylon-ssg/pylon/render"
	"github.com/pylon-ssg/pylon/rules"
)

// renderPage runs the markdown and template stages for one page,
// assembling the final HTML string.
func (e *Engine) renderPage(p *page.Page) (string, error) {
	contentHTML, toc, err := e.Markdown.Render(p.Uri().String(), p.RawMarkdown, e.Library, e.Render)
	if err != nil {
		return "", &RenderFailedError{PageURI: p.Uri().String(), Err: err}
	}

	ctxItems, err := e.pageContext(p)
	if err != nil {
		return "", &RenderFailedError{PageURI: p.Uri().String(), Err: err}
	}

	crumbs, err := library.Breadcrumbs(e.Library, p.PageKey)
	if err != nil {
		return "", &RenderFailedError{PageURI: p.Uri().String(), Err: err}
	}
	breadcrumbs := make([]render.BreadcrumbItem, len(crumbs))
	for i, c := range crumbs {
		breadcrumbs[i] = render.BreadcrumbItem{Uri: c.Uri().String(), Title: breadcrumbTitle(c)}
	}

	out, err := e.Render.RenderPage(p.TemplateName(), render.Context{
		Site:        render.Site{OutputDir: e.Paths.AbsOutputDir().String()},
		Global:      e.globalContext(),
		Meta:        p.FrontMatter.Meta,
		Content:     template.HTML(contentHTML),
		Context:     ctxItems,
		TOC:         toc,
		Breadcrumbs: breadcrumbs,
		Library:     e.Library,
	})
	if err != nil {
		return "", &RenderFailedError{PageURI: p.Uri().String(), Err: err}
	}
	return out, nil
}

// breadcrumbTitle prefers a page's "title" meta value, the one convention
// real front matter actually uses for this, falling back to its URI for
// pages that never set one.
func breadcrumbTitle(p *page.Page) string {
	if title, ok := p.FrontMatter.Meta["title"].(string); ok && title != "" {
		return title
	}
	return p.Uri().String()
}

func (e *Engine) globalContext() any {
	if e.Rules == nil {
		return nil
	}
	return e.Rules.GlobalContext
}

// pageContext runs every context generator whose matcher matches p,
// merging their {identifier: data} items into one map (later generators
// overwrite earlier ones on identifier collision, matching declaration
// order being the only ordering guarantee spec.md makes here).
func (e *Engine) pageContext(p *page.Page) (map[string]any, error) {
	if e.Rules == nil {
		return nil, nil
	}
	pageValue := rules.PageToStarlark(p)
	out := map[string]any{}
	for _, m := range e.Rules.PageContextOrder {
		if !m.Matcher.Match(p.Uri().String()) {
			continue
		}
		items, err := e.Rules.InvokeContext(m.Key, pageValue)
		if err != nil {
			return nil, fmt.Errorf("engine: context generator for %s: %w", p.Uri(), err)
		}
		for _, item := range items {
			out[item.Identifier] = item.Data
		}
	}
	return out, nil
}
