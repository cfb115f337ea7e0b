package markdown

import (
	"strings"
	"testing"

	"github.com/pylon-ssg/pylon/highlight"
	"github.com/pylon-ssg/pylon/library"
	"github.com/pylon-ssg/pylon/page"
	"github.com/pylon-ssg/pylon/paths"
)

func insertTestPage(t *testing.T, lib *library.Library, ep paths.EnginePaths, rel string) *page.Page {
	t.Helper()
	sp := ep.SrcSysPath(paths.MustRelPath(rel))
	cp, err := paths.Confirm[paths.MdFile](sp, func(string) (bool, error) { return false, nil })
	if err != nil {
		t.Fatal(err)
	}
	readFile := func(string) ([]byte, error) { return []byte("+++\n+++\nbody"), nil }
	templateExists := func(paths.RelPath) bool { return true }
	p, err := page.New(ep, cp, readFile, templateExists)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Insert(p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMinimalRender(t *testing.T) {
	r := New(highlight.New("monokai"))
	lib := library.New()
	html, _, err := r.Render("/sample.html", "sample", lib, nil)
	if err != nil {
		t.Fatal(err)
	}
	if html != "<p>sample</p>\n" {
		t.Fatalf("got %q", html)
	}
}

func TestInternalLinkRewritesToResolvedUri(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	lib := library.New()
	insertTestPage(t, lib, ep, "blog/target.md")

	r := New(highlight.New("monokai"))
	html, _, err := r.Render("/blog/post.html", "see [here](@/blog/target.md)", lib, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `href="/blog/target.html"`) {
		t.Fatalf("got %q", html)
	}
}

func TestInternalLinkBrokenFails(t *testing.T) {
	lib := library.New()
	r := New(highlight.New("monokai"))
	_, _, err := r.Render("/blog/post.html", "see [here](@/nope.md)", lib, nil)
	if err == nil {
		t.Fatal("expected BrokenInternalLinkError")
	}
	if _, ok := err.(*BrokenInternalLinkError); !ok {
		t.Fatalf("err type = %T", err)
	}
}

func TestRelativeLinkResolvesAgainstPageDir(t *testing.T) {
	lib := library.New()
	r := New(highlight.New("monokai"))
	html, _, err := r.Render("/blog/post.html", "[sibling](sibling.html)", lib, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `href="/blog/sibling.html"`) {
		t.Fatalf("got %q", html)
	}
}

func TestAbsoluteAndOffsiteLinksKeptVerbatim(t *testing.T) {
	lib := library.New()
	r := New(highlight.New("monokai"))
	html, _, err := r.Render("/blog/post.html", "[a](/abs.html) [b](https://example.com/x)", lib, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `href="/abs.html"`) || !strings.Contains(html, `href="https://example.com/x"`) {
		t.Fatalf("got %q", html)
	}
}

func TestHeadingIdsAreDashified(t *testing.T) {
	lib := library.New()
	r := New(highlight.New("monokai"))
	html, toc, err := r.Render("/post.html", "# Hello World!\n\n## Sub Section", lib, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `id="hello-world"`) {
		t.Fatalf("got %q", html)
	}
	if len(toc) != 1 || toc[0].ID != "hello-world" || len(toc[0].Children) != 1 {
		t.Fatalf("toc = %+v", toc)
	}
	if toc[0].Children[0].ID != "sub-section" {
		t.Fatalf("toc = %+v", toc)
	}
}

func TestFencedCodeBlockHighlighted(t *testing.T) {
	lib := library.New()
	r := New(highlight.New("monokai"))
	html, _, err := r.Render("/post.html", "```go\npackage main\n```", lib, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<pre><code>") || !strings.Contains(html, "</code></pre>") {
		t.Fatalf("got %q", html)
	}
}

func TestFencedCodeBlockWithoutLanguageIsVerbatim(t *testing.T) {
	lib := library.New()
	r := New(highlight.New("monokai"))
	html, _, err := r.Render("/post.html", "```\n<tag>\n```", lib, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "&lt;tag&gt;") {
		t.Fatalf("got %q", html)
	}
}

type fakeShortcodeRenderer struct{}

func (fakeShortcodeRenderer) RenderShortcode(name string, args map[string]string) (string, error) {
	return "<em>" + name + ":" + args["k"] + "</em>", nil
}

func TestShortcodeExpansion(t *testing.T) {
	lib := library.New()
	r := New(highlight.New("monokai"))
	html, _, err := r.Render("/post.html", `before {{ note(k="v") }} after`, lib, fakeShortcodeRenderer{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<em>note:v</em>") {
		t.Fatalf("got %q", html)
	}
}
