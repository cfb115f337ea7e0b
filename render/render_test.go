package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pylon-ssg/pylon/paths"
)

func writeFile(t *testing.T, dir, rel, contents string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRenderPage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.tera", "<p>{{ .Content }}</p>")

	r := New()
	if err := r.Load(paths.MustAbsPath(dir)); err != nil {
		t.Fatal(err)
	}
	if !r.Exists("default.tera") {
		t.Fatal("expected default.tera to be loaded")
	}

	out, err := r.RenderPage("default.tera", Context{Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>hello</p>" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderPageUnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	r := New()
	if err := r.Load(paths.MustAbsPath(dir)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RenderPage("missing.tera", Context{}); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestRenderShortcode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shortcodes/figure.tera", `<figure src="{{ index . "src" }}"></figure>`)

	r := New()
	if err := r.Load(paths.MustAbsPath(dir)); err != nil {
		t.Fatal(err)
	}

	out, err := r.RenderShortcode("figure", map[string]string{"src": "a.png"})
	if err != nil {
		t.Fatal(err)
	}
	if out != `<figure src="a.png"></figure>` {
		t.Fatalf("got %q", out)
	}
}

func TestNestedDefaultTemplateName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blog/default.tera", "blog")

	r := New()
	if err := r.Load(paths.MustAbsPath(dir)); err != nil {
		t.Fatal(err)
	}
	if !r.Exists("blog/default.tera") {
		t.Fatal("expected blog/default.tera to be addressable by its relative path")
	}
}
