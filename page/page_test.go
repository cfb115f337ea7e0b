package page

import (
	"strings"
	"testing"

	"github.com/pylon-ssg/pylon/paths"
)

func confirmMd(t *testing.T, ep paths.EnginePaths, rel string) paths.ConfirmedPath[paths.MdFile] {
	t.Helper()
	sp := ep.SrcSysPath(paths.MustRelPath(rel))
	cp, err := paths.Confirm[paths.MdFile](sp, func(string) (bool, error) { return false, nil })
	if err != nil {
		t.Fatal(err)
	}
	return cp
}

func TestNewPageEmptyFrontMatterDefaults(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	cp := confirmMd(t, ep, "post.md")

	readFile := func(string) ([]byte, error) { return []byte("+++\n+++\ncontent"), nil }
	templateExists := func(rel paths.RelPath) bool { return rel.String() == "default.tera" }

	p, err := New(ep, cp, readFile, templateExists)
	if err != nil {
		t.Fatal(err)
	}
	if p.RawMarkdown != "content" {
		t.Fatalf("body = %q", p.RawMarkdown)
	}
	if !p.FrontMatter.Searchable {
		t.Fatal("expected default Searchable = true")
	}
	if p.TemplateName() != "default.tera" {
		t.Fatalf("template = %q", p.TemplateName())
	}
}

func TestNewPageUriAndTarget(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	cp := confirmMd(t, ep, "blog/post.md")

	readFile := func(string) ([]byte, error) { return []byte("+++\n+++\nbody"), nil }
	templateExists := func(rel paths.RelPath) bool { return rel.String() == "default.tera" }

	p, err := New(ep, cp, readFile, templateExists)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Uri().String(); got != "/blog/post.html" {
		t.Fatalf("uri = %q", got)
	}
	if got := p.TargetSysPath().Abs().String(); got != "/proj/target/blog/post.html" {
		t.Fatalf("target = %q", got)
	}
}

func TestNewPageResolvesDeepestAncestorTemplate(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	cp := confirmMd(t, ep, "blog/entry/post.md")

	readFile := func(string) ([]byte, error) { return []byte("+++\n+++\nbody"), nil }
	existing := map[string]bool{
		"default.tera":      true,
		"blog/default.tera": true,
	}
	templateExists := func(rel paths.RelPath) bool { return existing[rel.String()] }

	p, err := New(ep, cp, readFile, templateExists)
	if err != nil {
		t.Fatal(err)
	}
	if p.TemplateName() != "blog/default.tera" {
		t.Fatalf("template = %q, want deepest ancestor match", p.TemplateName())
	}
}

func TestNewPageNoDefaultTemplate(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	cp := confirmMd(t, ep, "post.md")

	readFile := func(string) ([]byte, error) { return []byte("+++\n+++\nbody"), nil }
	templateExists := func(paths.RelPath) bool { return false }

	_, err := New(ep, cp, readFile, templateExists)
	if err == nil {
		t.Fatal("expected NoDefaultTemplateError")
	}
	var target *NoDefaultTemplateError
	if !strings.Contains(err.Error(), "no default template") {
		t.Fatalf("err = %v", err)
	}
	_ = target
}

func TestNewPageHonorsExplicitTemplateName(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	cp := confirmMd(t, ep, "post.md")

	readFile := func(string) ([]byte, error) {
		return []byte("+++\ntemplate_name = \"custom.tera\"\n+++\nbody"), nil
	}
	templateExists := func(paths.RelPath) bool {
		t.Fatal("should not consult templateExists when front matter names a template")
		return false
	}

	p, err := New(ep, cp, readFile, templateExists)
	if err != nil {
		t.Fatal(err)
	}
	if p.TemplateName() != "custom.tera" {
		t.Fatalf("template = %q", p.TemplateName())
	}
}

func TestNewPageSearchKeys(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	cp := confirmMd(t, ep, "blog/post.md")

	readFile := func(string) ([]byte, error) { return []byte("+++\n+++\nbody"), nil }
	templateExists := func(rel paths.RelPath) bool { return rel.String() == "default.tera" }

	p, err := New(ep, cp, readFile, templateExists)
	if err != nil {
		t.Fatal(err)
	}
	keys := p.SearchKeys()
	if len(keys) != 2 || keys[0] != "/blog/post.html" || keys[1] != "/blog/post.md" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestSplitDocumentRejectsMissingDelimiters(t *testing.T) {
	_, _, err := SplitDocument("doc.md", "no front matter here")
	if err == nil {
		t.Fatal("expected MalformedDocumentError")
	}
	if _, ok := err.(*MalformedDocumentError); !ok {
		t.Fatalf("err type = %T", err)
	}
}

func TestSplitDocumentRejectsBadToml(t *testing.T) {
	_, _, err := SplitDocument("doc.md", "+++\nnot = [valid\n+++\nbody")
	if err == nil {
		t.Fatal("expected MalformedFrontMatterError")
	}
	if _, ok := err.(*MalformedFrontMatterError); !ok {
		t.Fatalf("err type = %T", err)
	}
}
