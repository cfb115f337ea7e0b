// Package engine implements spec.md §4.8: the build orchestrator that
// wires every other package together into Engine.BuildSite's six-step
// pipeline, plus the individual reload operations the dev-server broker
// (package broker) calls in response to filesystem events.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pylon-ssg/pylon/assets"
	"github.com/pylon-ssg/pylon/highlight"
	"github.com/pylon-ssg/pylon/library"
	"github.com/pylon-ssg/pylon/markdown"
	"github.com/pylon-ssg/pylon/page"
	"github.com/pylon-ssg/pylon/paths"
	"github.com/pylon-ssg/pylon/render"
	"github.com/pylon-ssg/pylon/rules"
)

// DefaultSyntaxTheme is the chroma style every Engine's highlighter uses;
// rules have no setting to choose another. It matches highlight.New's own
// documented fallback.
const DefaultSyntaxTheme = "monokai"

// Engine owns every mutable piece of project state: the library, the
// loaded rules, and the renderers. Per spec.md §5, exactly one goroutine
// is meant to touch an Engine at a time — that discipline is enforced by
// package broker, not by Engine itself.
type Engine struct {
	Paths       paths.EnginePaths
	Library     *library.Library
	Rules       *rules.Rules
	Markdown    *markdown.Renderer
	Render      *render.Renderer
	Highlighter *highlight.Highlighter
	Pipeliner   *assets.Pipeliner
}

// New constructs an Engine rooted at ep: it loads the template and
// markdown renderers, scans the source tree into a Library, and
// evaluates the rule script — mirroring s3gen's own constructor pattern
// of doing all of Init() up front (site.go's Site.Init), generalized to
// spec.md §4.8's three-step "load renderers, build library, load rules".
func New(ep paths.EnginePaths) (*Engine, error) {
	e := &Engine{
		Paths:       ep,
		Highlighter: highlight.New(DefaultSyntaxTheme),
		Pipeliner:   assets.NewPipeliner(ep),
	}
	e.Markdown = markdown.New(e.Highlighter)
	e.Render = render.New()

	if err := e.ReloadTemplates(); err != nil {
		return nil, err
	}
	if err := e.ReloadLibrary(); err != nil {
		return nil, err
	}
	if err := e.ReloadRules(); err != nil {
		return nil, err
	}
	return e, nil
}

// ReInit reloads templates, rebuilds the library, and reloads the rules,
// in that order, per spec.md §4.8.
func (e *Engine) ReInit() error {
	if err := e.ReloadTemplates(); err != nil {
		return err
	}
	if err := e.ReloadLibrary(); err != nil {
		return err
	}
	return e.ReloadRules()
}

// ReloadTemplates re-parses every template under Paths.TemplateDir.
func (e *Engine) ReloadTemplates() error {
	return e.Render.Load(e.Paths.AbsTemplateDir())
}

// ReloadLibrary walks Paths.SrcDir for Markdown sources and rebuilds the
// Library from scratch. Existing PageKeys do not survive a full reload
// (they do across a single-file FilesystemUpdate, handled by package
// broker calling UpdatePage instead).
func (e *Engine) ReloadLibrary() error {
	lib := library.New()
	srcDir := e.Paths.AbsSrcDir()

	err := filepath.WalkDir(srcDir.String(), func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".md" {
			return nil
		}
		rel, err := filepath.Rel(srcDir.String(), p)
		if err != nil {
			return err
		}
		sysPath := e.Paths.SrcSysPath(paths.MustRelPath(rel))
		confirmed, err := paths.Confirm[paths.MdFile](sysPath, statFunc)
		if err != nil {
			return err
		}
		pg, err := page.New(e.Paths, confirmed, readFile, e.templateExists)
		if err != nil {
			return err
		}
		_, err = lib.Insert(pg)
		return err
	})
	if err != nil {
		return fmt.Errorf("engine: reloading library: %w", err)
	}
	e.Library = lib
	return nil
}

// UpdatePage rebuilds a single page from disk and upserts it into the
// Library, preserving its PageKey if it already exists — the per-file
// counterpart ReloadLibrary's full walk doesn't provide, used by package
// broker's FilesystemUpdate handling (spec.md §4.9).
func (e *Engine) UpdatePage(mdPath paths.AbsPath) error {
	rel, err := filepath.Rel(e.Paths.AbsSrcDir().String(), mdPath.String())
	if err != nil {
		return fmt.Errorf("engine: updating page %s: %w", mdPath, err)
	}
	sysPath := e.Paths.SrcSysPath(paths.MustRelPath(rel))
	confirmed, err := paths.Confirm[paths.MdFile](sysPath, statFunc)
	if err != nil {
		return fmt.Errorf("engine: updating page %s: %w", mdPath, err)
	}
	pg, err := page.New(e.Paths, confirmed, readFile, e.templateExists)
	if err != nil {
		return err
	}
	if key, ok := e.Library.KeyFor(pg.SearchKeys()[0]); ok {
		return e.Library.Update(key, pg)
	}
	_, err = e.Library.Insert(pg)
	return err
}

// ReloadRules re-evaluates the rule script at Paths.RuleScript.
func (e *Engine) ReloadRules() error {
	scriptPath := e.Paths.AbsRuleScript()
	source, err := os.ReadFile(scriptPath.String())
	if err != nil {
		return fmt.Errorf("engine: reading rule script %s: %w", scriptPath, err)
	}
	r, err := rules.Load(e.Paths, e.Library, scriptPath.String(), source)
	if err != nil {
		return err
	}
	e.Rules = r
	return nil
}

func (e *Engine) templateExists(rel paths.RelPath) bool {
	return e.Render.Exists(filepath.ToSlash(rel.String()))
}

func statFunc(p string) (isDir bool, err error) {
	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func readFile(p string) ([]byte, error) {
	return os.ReadFile(p)
}

// fakeFileStat confirms a path as an existing regular file without
// touching disk — used when a ConfirmedPath is needed for a page whose
// rendered HTML is only held in memory (RenderBehavior Memory never
// writes it), so the real file may not exist yet.
func fakeFileStat(string) (isDir bool, err error) { return false, nil }

// sortedHtmlFiles walks outputDir and returns every ".html" file found,
// sorted for deterministic scan order.
func sortedHtmlFiles(outputDir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(outputDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ".html" {
			out = append(out, p)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}
