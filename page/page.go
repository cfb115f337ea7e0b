// Package page implements spec.md §3/§4.1/§4.2: the document model,
// front-matter parsing, and the rules for deriving a page's URI, on-disk
// target, default template, and library search keys from its source path.
package page

import (
	"fmt"
	"path/filepath"

	"github.com/pylon-ssg/pylon/paths"
)

// NoDefaultTemplateError reports that neither the front matter nor any
// ancestor directory under template_dir supplied a "default.tera" file.
type NoDefaultTemplateError struct {
	SourcePath string
}

func (e *NoDefaultTemplateError) Error() string {
	return fmt.Sprintf("page: %s: no default template found", e.SourcePath)
}

// DefaultTemplateName is the filename the engine looks for when a page's
// front matter doesn't name a template. Carried through literally from
// spec.md even though the template engine underneath is Go's html/template
// rather than Tera — see SPEC_FULL.md §3.6.
const DefaultTemplateName = "default.tera"

// TemplateExistsFunc reports whether a template file exists at rel
// (relative to EnginePaths.TemplateDir).
type TemplateExistsFunc func(rel paths.RelPath) bool

// ReadFileFunc abstracts reading a source file's bytes.
type ReadFileFunc func(absPath string) ([]byte, error)

// Page is a single parsed Markdown source document plus everything derived
// from it: URI, on-disk target, resolved template, and (once inserted into
// a library.Library) its PageKey.
type Page struct {
	Path        paths.ConfirmedPath[paths.MdFile]
	RawDoc      string
	PageKey     PageKey
	FrontMatter FrontMatter
	RawMarkdown RawMarkdown

	uri          paths.Uri
	targetSys    paths.SysPath
	templateName string
}

// New constructs a Page from a confirmed Markdown source path, per
// spec.md §4.2:
//  1. read the file,
//  2. split front matter from body,
//  3. resolve a default template if the front matter didn't name one,
//  4. derive the URI and on-disk target.
//
// The returned Page has a zero PageKey; a real key is assigned by
// library.Library.Insert.
func New(ep paths.EnginePaths, confirmed paths.ConfirmedPath[paths.MdFile], readFile ReadFileFunc, templateExists TemplateExistsFunc) (*Page, error) {
	raw, err := readFile(confirmed.Abs().String())
	if err != nil {
		return nil, fmt.Errorf("page: reading %s: %w", confirmed.Abs(), err)
	}

	fm, body, err := SplitDocument(confirmed.Abs().String(), string(raw))
	if err != nil {
		return nil, err
	}

	templateName := ""
	if fm.TemplateName != nil {
		templateName = *fm.TemplateName
	} else {
		templateName, err = resolveDefaultTemplate(confirmed.SysPath(), ep, templateExists)
		if err != nil {
			return nil, err
		}
	}

	targetSys := confirmed.SysPath().WithBase(ep.OutputDir).WithExtension(".html")
	rel, err := targetSys.RelativeTo(ep.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("page: deriving uri for %s: %w", confirmed.Abs(), err)
	}
	uri := paths.MustUri("/" + rel)

	return &Page{
		Path:         confirmed,
		RawDoc:       string(raw),
		FrontMatter:  fm,
		RawMarkdown:  body,
		uri:          uri,
		targetSys:    targetSys,
		templateName: templateName,
	}, nil
}

// resolveDefaultTemplate walks from the page's own source directory up
// toward src_dir's root, returning the deepest "default.tera" found under
// the mirrored subdirectory of template_dir.
func resolveDefaultTemplate(sp paths.SysPath, ep paths.EnginePaths, templateExists TemplateExistsFunc) (string, error) {
	dir := filepath.Dir(sp.Target.String())
	for {
		candidate := filepath.Join(dir, DefaultTemplateName)
		if templateExists(paths.MustRelPath(candidate)) {
			return candidate, nil
		}
		if dir == "." {
			break
		}
		dir = filepath.Dir(dir)
	}
	return "", &NoDefaultTemplateError{SourcePath: sp.Abs().String()}
}

// Uri returns the page's site-absolute URI ("/" + rel + ".html").
func (p *Page) Uri() paths.Uri { return p.uri }

// TargetSysPath returns the on-disk path the rendered page is written to.
func (p *Page) TargetSysPath() paths.SysPath { return p.targetSys }

// TemplateName returns the template file path (relative to template_dir)
// resolved for this page.
func (p *Page) TemplateName() string { return p.templateName }

// SetPageKey is called by library.Library when the page is inserted.
func (p *Page) SetPageKey(k PageKey) { p.PageKey = k }

// SearchKeys returns the set of keys this page should be discoverable under
// in a library.Library: its URI, and its source path viewed from the
// project root with the src_dir base dropped (spec.md §4.2).
func (p *Page) SearchKeys() []string {
	return []string{
		p.uri.String(),
		"/" + p.Path.SysPath().Target.String(),
	}
}
