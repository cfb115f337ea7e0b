// Package rules implements spec.md §3/§4.4: the Rules value a user's
// rule script produces (pipelines, lints, context generators, mounts,
// watches) and the glob matcher that selects pages and assets for each.
package rules

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"go.starlark.net/starlark"

	"github.com/pylon-ssg/pylon/paths"
)

// Severity is a lint's failure class.
type Severity int

const (
	Warn Severity = iota
	Deny
)

func (s Severity) String() string {
	if s == Deny {
		return "DENY"
	}
	return "WARN"
}

// Op is a single pipeline operation.
type Op interface{ isOp() }

// CopyOp copies the resolved source file to the asset's target path.
type CopyOp struct{}

func (CopyOp) isOp() {}

// ShellOp runs Command through a shell, with $SOURCE/$TARGET/$SCRATCH/
// $NEW_SCRATCH substituted per spec.md §4.7.
type ShellOp struct{ Command string }

func (ShellOp) isOp() {}

// ParseOp turns one op string from add_pipeline's ops list into an Op:
// the literal "[COPY]" becomes CopyOp, anything else is a ShellOp.
func ParseOp(s string) Op {
	if s == "[COPY]" {
		return CopyOp{}
	}
	return ShellOp{Command: s}
}

// BaseDir disambiguates whether a pipeline's asset sources are rooted at
// the project root or at the referencing document's own directory.
type BaseDir struct {
	RelativeToRoot bool
	// Root is populated when RelativeToRoot: the path stripped of its
	// leading "/", e.g. "" for "/" or "wwwroot" for "/wwwroot".
	Root string
	// Doc is populated when !RelativeToRoot: "." or "./sub".
	Doc string
}

// ParseBaseDir converts a pipeline's base_dir argument: a leading "/"
// means relative-to-root, anything else is relative-to-document.
func ParseBaseDir(s string) BaseDir {
	if len(s) > 0 && s[0] == '/' {
		return BaseDir{RelativeToRoot: true, Root: s[1:]}
	}
	return BaseDir{Doc: s}
}

// Matcher selects pages or assets by a URI-like string. GlobMatcher is the
// only implementation; no matcher inspects a page's front matter.
type Matcher interface {
	Match(uri string) bool
}

// GlobMatcher matches a "**"-capable glob (via doublestar) against a
// URI-like string with its leading "/" stripped.
type GlobMatcher struct{ Pattern string }

func (g GlobMatcher) Match(uri string) bool {
	candidate := uri
	if len(candidate) > 0 && candidate[0] == '/' {
		candidate = candidate[1:]
	}
	ok, err := doublestar.Match(g.Pattern, candidate)
	return err == nil && ok
}

// Pipeline is an ordered list of operations applied to assets whose URI
// matches TargetGlob.
type Pipeline struct {
	Base       BaseDir
	TargetGlob string
	Matcher    Matcher
	Ops        []Op
}

// LintKey and ContextKey are opaque identifiers for registered lints and
// context generators, minted in script-encounter order.
type LintKey int
type ContextKey int

// Lint is a single named rule: a severity, a human message, and a
// predicate callable bound to the currently loaded script.
type Lint struct {
	Severity  Severity
	Message   string
	Predicate *starlark.Function
}

// ContextGenerator produces extra template-context items for matching
// pages.
type ContextGenerator struct {
	Callable *starlark.Function
}

// ContextItem is one {identifier, data} pair a context generator yields.
type ContextItem struct {
	Identifier string
	Data       any
}

// Matched pairs a Matcher with the key it resolves to, preserving the
// declaration order the spec requires for lints and context generators.
type Matched[K any] struct {
	Matcher Matcher
	Key     K
}

// Mount stages a directory tree into the output tree before pipelines
// run.
type Mount struct {
	Src    paths.AbsPath
	Target paths.AbsPath
}

// ExternalWatch is a shell command a rule script declares with
// external_watch. It is recorded in Rules only; nothing in pylon starts
// or runs it.
type ExternalWatch struct {
	Command    string
	WorkingDir paths.AbsPath
}

// Rules is the full set of declarations a rule script produces.
type Rules struct {
	Pipelines []Pipeline

	Lints     map[LintKey]Lint
	LintOrder []Matched[LintKey]

	PageContexts     map[ContextKey]ContextGenerator
	PageContextOrder []Matched[ContextKey]

	GlobalContext any

	Mounts          []Mount
	Watches         []paths.AbsPath
	ExternalWatches []ExternalWatch

	// thread is the Starlark thread the script ran on; every callable
	// captured in Lints/PageContexts must be invoked on this thread so it
	// keeps seeing the script's own global environment.
	thread *starlark.Thread
}

func newRules() *Rules {
	return &Rules{
		Lints:        make(map[LintKey]Lint),
		PageContexts: make(map[ContextKey]ContextGenerator),
	}
}

// InvokeLint runs a lint's predicate against a page's front-matter value,
// returning whether the lint fired (true means the page violates it, per
// spec.md §4.8's worked example: `DENY "Missing author" "**"` fires when
// `meta.author` is unset).
func (r *Rules) InvokeLint(key LintKey, pageValue starlark.Value) (bool, error) {
	lint, ok := r.Lints[key]
	if !ok {
		return false, fmt.Errorf("rules: unknown lint key %d", key)
	}
	result, err := starlark.Call(r.thread, lint.Predicate, starlark.Tuple{pageValue}, nil)
	if err != nil {
		return false, fmt.Errorf("rules: lint %q: %w", lint.Message, err)
	}
	b, ok := result.(starlark.Bool)
	if !ok {
		return false, fmt.Errorf("rules: lint %q: predicate must return a bool, got %s", lint.Message, result.Type())
	}
	return bool(b), nil
}

// InvokeContext runs a context generator against a page's front-matter
// value, returning the list of context items it yields.
func (r *Rules) InvokeContext(key ContextKey, pageValue starlark.Value) ([]ContextItem, error) {
	gen, ok := r.PageContexts[key]
	if !ok {
		return nil, fmt.Errorf("rules: unknown context key %d", key)
	}
	result, err := starlark.Call(r.thread, gen.Callable, starlark.Tuple{pageValue}, nil)
	if err != nil {
		return nil, fmt.Errorf("rules: context generator: %w", err)
	}
	return decodeContextItems(result)
}

func decodeContextItems(v starlark.Value) ([]ContextItem, error) {
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, fmt.Errorf("rules: context generator must return a list, got %s", v.Type())
	}
	items := make([]ContextItem, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		entry := list.Index(i)
		d, ok := entry.(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("rules: context item %d must be a dict, got %s", i, entry.Type())
		}
		idVal, found, _ := d.Get(starlark.String("identifier"))
		if !found {
			return nil, fmt.Errorf("rules: context item %d missing \"identifier\"", i)
		}
		idStr, ok := starlark.AsString(idVal)
		if !ok {
			return nil, fmt.Errorf("rules: context item %d \"identifier\" must be a string", i)
		}
		dataVal, found, _ := d.Get(starlark.String("data"))
		if !found {
			dataVal = starlark.None
		}
		items = append(items, ContextItem{Identifier: idStr, Data: starlarkValueToGo(dataVal)})
	}
	return items, nil
}
