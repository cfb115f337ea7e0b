// Package render implements spec.md §4.6/SPEC_FULL.md §3.6: assembling a
// page's final HTML from a named template plus a context carrying site,
// global, front-matter, content, and user-context values. Grounded on
// s3gen/templates.go's TemplateStore (html/template + text/template,
// glob-parsed, cloned per render), adapted to name templates by their
// path relative to the template directory (spec's "shortcodes/<name>.tera"
// lookup keys need slash-separated names html/template's flat ParseGlob
// doesn't produce) instead of by bare file name.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/pylon-ssg/pylon/library"
	"github.com/pylon-ssg/pylon/markdown"
	"github.com/pylon-ssg/pylon/paths"
)

// Site is the small, mostly-static part of a page's template context:
// values that come from EnginePaths/config rather than from a particular
// page.
type Site struct {
	OutputDir string
}

// Context is the full value handed to a page's template, matching
// spec.md §4.6's named fields (site, global, meta, content, user context
// items, library).
type Context struct {
	Site        Site
	Global      any
	Meta        map[string]any
	Content     template.HTML
	Context     map[string]any
	TOC         []markdown.TOCNode
	Breadcrumbs []BreadcrumbItem
	Library     *library.Library
}

// BreadcrumbItem is a template-friendly view of one library.Breadcrumbs
// entry.
type BreadcrumbItem struct {
	Uri   string
	Title string
}

// TemplateRenderFailedError wraps an html/template execution error with
// the template name that failed, per spec.md §7.
type TemplateRenderFailedError struct {
	TemplateName string
	Err          error
}

func (e *TemplateRenderFailedError) Error() string {
	return fmt.Sprintf("render: %s: %v", e.TemplateName, e.Err)
}

func (e *TemplateRenderFailedError) Unwrap() error { return e.Err }

// Renderer owns the parsed set of page/shortcode templates under a
// project's template_dir. A single Renderer is reused for the engine's
// lifetime; ReloadTemplates discards and reparses on a template-file
// change.
type Renderer struct {
	root    *template.Template
	funcMap template.FuncMap
}

// New returns a Renderer with the default function map (this package's own
// template helpers plus the supplemented RunCmd, see runcmd.go).
func New() *Renderer {
	return &Renderer{funcMap: DefaultFuncMap()}
}

// Load (re-)parses every file under templateDir, naming each parsed
// template by its slash-separated path relative to templateDir — so
// "default.tera", "blog/default.tera", and "shortcodes/figure.tera" are
// all valid lookup names, matching spec.md §4.2/§4.5's literal name
// strings even though the underlying engine is Go's html/template.
func (r *Renderer) Load(templateDir paths.AbsPath) error {
	root := template.New("root").Funcs(r.funcMap)
	root.Option("missingkey=zero")

	err := filepath.WalkDir(templateDir.String(), func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(templateDir.String(), p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		contents, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		_, err = root.New(rel).Parse(string(contents))
		return err
	})
	if err != nil {
		return fmt.Errorf("render: loading templates from %s: %w", templateDir, err)
	}
	r.root = root
	return nil
}

// Exists reports whether a template is registered under name (relative
// to template_dir, slash-separated) — used by page.New's
// TemplateExistsFunc to walk ancestors looking for "default.tera".
func (r *Renderer) Exists(name string) bool {
	if r.root == nil {
		return false
	}
	return r.root.Lookup(name) != nil
}

// RenderPage executes the named template with ctx, returning the
// assembled HTML.
func (r *Renderer) RenderPage(templateName string, ctx Context) (string, error) {
	if r.root == nil || r.root.Lookup(templateName) == nil {
		return "", &TemplateRenderFailedError{TemplateName: templateName, Err: fmt.Errorf("template not loaded")}
	}
	var buf bytes.Buffer
	if err := r.root.ExecuteTemplate(&buf, templateName, ctx); err != nil {
		return "", &TemplateRenderFailedError{TemplateName: templateName, Err: err}
	}
	return buf.String(), nil
}

// RenderShortcode implements markdown.ShortcodeRenderer: it looks up
// "shortcodes/<name>.tera" and executes it with args as a plain
// map[string]string context, per spec.md §4.5.
func (r *Renderer) RenderShortcode(name string, args map[string]string) (string, error) {
	templateName := "shortcodes/" + name + ".tera"
	if r.root == nil || r.root.Lookup(templateName) == nil {
		return "", fmt.Errorf("render: unknown shortcode %q (no template %s)", name, templateName)
	}
	var buf bytes.Buffer
	if err := r.root.ExecuteTemplate(&buf, templateName, args); err != nil {
		return "", &TemplateRenderFailedError{TemplateName: templateName, Err: err}
	}
	return buf.String(), nil
}

var _ markdown.ShortcodeRenderer = (*Renderer)(nil)

// DefaultFuncMap returns the function map every Renderer starts with:
// this package's own template helpers (funcs.go) plus RunCmd, the
// supplemented include_cmd feature (SPEC_FULL.md §4).
func DefaultFuncMap() template.FuncMap {
	fm := defaultFuncMap()
	fm["RunCmd"] = RunCmd
	return fm
}
