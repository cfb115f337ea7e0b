package rules

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/pylon-ssg/pylon/library"
	"github.com/pylon-ssg/pylon/page"
	"github.com/pylon-ssg/pylon/paths"
)

// RuleScriptError wraps a compile or runtime error from the rule script,
// per spec.md §7.
type RuleScriptError struct {
	ScriptPath string
	Err        error
}

func (e *RuleScriptError) Error() string {
	return fmt.Sprintf("rules: %s: %v", e.ScriptPath, e.Err)
}

func (e *RuleScriptError) Unwrap() error { return e.Err }

// PageToStarlark exposes a page's front matter and derived fields to
// script-land, used both by the get() builtin and by the engine when it
// later invokes a stored lint/context callable against a specific page.
func PageToStarlark(p *page.Page) *starlark.Dict {
	d := starlark.NewDict(5)
	d.SetKey(starlark.String("uri"), starlark.String(p.Uri().String()))
	d.SetKey(starlark.String("template_name"), starlark.String(p.TemplateName()))
	d.SetKey(starlark.String("searchable"), starlark.Bool(p.FrontMatter.Searchable))

	keywords := make([]starlark.Value, len(p.FrontMatter.Keywords))
	for i, k := range p.FrontMatter.Keywords {
		keywords[i] = starlark.String(k)
	}
	d.SetKey(starlark.String("keywords"), starlark.NewList(keywords))
	d.SetKey(starlark.String("meta"), goValueToStarlark(map[string]any(p.FrontMatter.Meta)))
	return d
}

// Load evaluates a rule script's source against a bound Library,
// producing the Rules value its builtin calls accumulate. Per spec.md
// §4.4, the script is given a fixed set of builtins plus a get()
// function bound to lib.
func Load(ep paths.EnginePaths, lib *library.Library, scriptPath string, source []byte) (*Rules, error) {
	rules := newRules()
	thread := &starlark.Thread{Name: "pylon-rules"}
	rules.thread = thread

	predeclared := starlark.StringDict{
		"add_pipeline":      builtinAddPipeline(rules),
		"add_doc_context":   builtinAddDocContext(rules),
		"set_global_context": builtinSetGlobalContext(rules),
		"add_lint":          builtinAddLint(rules),
		"mount":             builtinMount(rules, ep),
		"watch":             builtinWatch(rules, ep),
		"external_watch":    builtinExternalWatch(rules, ep),
		"get":               builtinGet(lib),
	}

	if _, err := starlark.ExecFile(thread, scriptPath, source, predeclared); err != nil {
		return nil, &RuleScriptError{ScriptPath: scriptPath, Err: err}
	}
	return rules, nil
}

func builtinAddPipeline(rules *Rules) *starlark.Builtin {
	return starlark.NewBuiltin("add_pipeline", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var baseDir, targetGlob starlark.String
		var opsVal starlark.Value
		if err := starlark.UnpackArgs("add_pipeline", args, kwargs, "base_dir", &baseDir, "target_glob", &targetGlob, "ops", &opsVal); err != nil {
			return nil, err
		}
		ops, err := decodeStringList(opsVal)
		if err != nil {
			return nil, fmt.Errorf("add_pipeline: ops: %w", err)
		}
		parsedOps := make([]Op, len(ops))
		for i, o := range ops {
			parsedOps[i] = ParseOp(o)
		}
		rules.Pipelines = append(rules.Pipelines, Pipeline{
			Base:       ParseBaseDir(string(baseDir)),
			TargetGlob: string(targetGlob),
			Matcher:    GlobMatcher{Pattern: string(targetGlob)},
			Ops:        parsedOps,
		})
		return starlark.None, nil
	})
}

func builtinAddDocContext(rules *Rules) *starlark.Builtin {
	return starlark.NewBuiltin("add_doc_context", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var matcherGlob starlark.String
		var callable *starlark.Function
		if err := starlark.UnpackArgs("add_doc_context", args, kwargs, "matcher_glob", &matcherGlob, "callable", &callable); err != nil {
			return nil, err
		}
		key := ContextKey(len(rules.PageContexts))
		rules.PageContexts[key] = ContextGenerator{Callable: callable}
		rules.PageContextOrder = append(rules.PageContextOrder, Matched[ContextKey]{
			Matcher: GlobMatcher{Pattern: string(matcherGlob)},
			Key:     key,
		})
		return starlark.None, nil
	})
}

func builtinSetGlobalContext(rules *Rules) *starlark.Builtin {
	return starlark.NewBuiltin("set_global_context", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var value starlark.Value
		if err := starlark.UnpackArgs("set_global_context", args, kwargs, "value", &value); err != nil {
			return nil, err
		}
		rules.GlobalContext = starlarkValueToGo(value)
		return starlark.None, nil
	})
}

func builtinAddLint(rules *Rules) *starlark.Builtin {
	return starlark.NewBuiltin("add_lint", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var severity, message, matcherGlob starlark.String
		var callable *starlark.Function
		if err := starlark.UnpackArgs("add_lint", args, kwargs,
			"severity", &severity, "message", &message, "matcher_glob", &matcherGlob, "callable", &callable); err != nil {
			return nil, err
		}
		sev := Warn
		if string(severity) == "DENY" {
			sev = Deny
		} else if string(severity) != "WARN" {
			return nil, fmt.Errorf("add_lint: severity must be \"DENY\" or \"WARN\", got %q", severity)
		}
		key := LintKey(len(rules.Lints))
		rules.Lints[key] = Lint{Severity: sev, Message: string(message), Predicate: callable}
		rules.LintOrder = append(rules.LintOrder, Matched[LintKey]{
			Matcher: GlobMatcher{Pattern: string(matcherGlob)},
			Key:     key,
		})
		return starlark.None, nil
	})
}

func builtinMount(rules *Rules, ep paths.EnginePaths) *starlark.Builtin {
	return starlark.NewBuiltin("mount", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var src starlark.String
		var target starlark.String
		if err := starlark.UnpackArgs("mount", args, kwargs, "src", &src, "target?", &target); err != nil {
			return nil, err
		}
		mount := Mount{
			Src:    ep.ProjectRoot.Join(string(src)),
			Target: ep.AbsOutputDir(),
		}
		if target != "" {
			mount.Target = ep.AbsOutputDir().Join(string(target))
		}
		rules.Mounts = append(rules.Mounts, mount)
		return starlark.None, nil
	})
}

func builtinWatch(rules *Rules, ep paths.EnginePaths) *starlark.Builtin {
	return starlark.NewBuiltin("watch", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var p starlark.String
		if err := starlark.UnpackArgs("watch", args, kwargs, "path", &p); err != nil {
			return nil, err
		}
		rules.Watches = append(rules.Watches, ep.ProjectRoot.Join(string(p)))
		return starlark.None, nil
	})
}

func builtinExternalWatch(rules *Rules, ep paths.EnginePaths) *starlark.Builtin {
	return starlark.NewBuiltin("external_watch", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var command starlark.String
		if err := starlark.UnpackArgs("external_watch", args, kwargs, "command", &command); err != nil {
			return nil, err
		}
		rules.ExternalWatches = append(rules.ExternalWatches, ExternalWatch{
			Command:    string(command),
			WorkingDir: ep.ProjectRoot,
		})
		return starlark.None, nil
	})
}

func builtinGet(lib *library.Library) *starlark.Builtin {
	return starlark.NewBuiltin("get", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var searchKey starlark.String
		if err := starlark.UnpackArgs("get", args, kwargs, "search_key", &searchKey); err != nil {
			return nil, err
		}
		p, ok := lib.Get(string(searchKey))
		if !ok {
			return starlark.None, nil
		}
		return PageToStarlark(p), nil
	})
}

func decodeStringList(v starlark.Value) ([]string, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %s", v.Type())
	}
	iter := iterable.Iterate()
	defer iter.Done()
	var out []string
	var elem starlark.Value
	for iter.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("expected a string element, got %s", elem.Type())
		}
		out = append(out, s)
	}
	return out, nil
}
