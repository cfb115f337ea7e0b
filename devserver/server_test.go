package devserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pylon-ssg/pylon/broker"
	"github.com/pylon-ssg/pylon/engine"
	"github.com/pylon-ssg/pylon/paths"
)

func writeProjectFile(t *testing.T, root, rel, contents string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T) (*Server, paths.EnginePaths) {
	t.Helper()
	root := t.TempDir()
	writeProjectFile(t, root, "templates/default.tera", "<html><body>{{ .Content }}</body></html>")
	writeProjectFile(t, root, "rules.star", `add_pipeline(base_dir=".", target_glob="**/*.png", ops=["[COPY]"])`)
	writeProjectFile(t, root, "src/index.md", "+++\n+++\nhello\n")
	writeProjectFile(t, root, "target/robots.txt", "User-agent: *\n")

	ep := paths.New(paths.MustAbsPath(root), paths.EnginePaths{})
	e, err := engine.New(ep)
	if err != nil {
		t.Fatal(err)
	}
	b := broker.New(e, broker.Write)
	go b.Run()
	t.Cleanup(b.Quit)

	return New(b, ep), ep
}

func TestHandlePageRendersViaEngine(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "hello") {
		t.Fatalf("got %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "WebSocket") {
		t.Fatal("expected live-reload script to be appended")
	}
}

func TestHandlePageRedirectsExtensionlessPath(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/blog", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Header().Get("Location") != "/blog/" {
		t.Fatalf("got Location %q", rec.Header().Get("Location"))
	}
}

func TestHandlePageServesStaticFileFromDisk(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/robots.txt", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "User-agent") {
		t.Fatalf("got %q", rec.Body.String())
	}
}

func TestHandlePageMissingPathIs404(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nope.txt", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestHandlePageEngineErrorIs500(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "templates/default.tera", "<html><body>{{ .Content }}</body></html>")
	writeProjectFile(t, root, "rules.star", `
add_pipeline(base_dir=".", target_glob="**/*.png", ops=["[COPY]"])
def no_author(p):
    return "author" not in p["meta"]
add_lint(severity="DENY", message="Missing author", matcher_glob="**", callable=no_author)
`)
	writeProjectFile(t, root, "src/index.md", "+++\n+++\nhello\n")

	ep := paths.New(paths.MustAbsPath(root), paths.EnginePaths{})
	e, err := engine.New(ep)
	if err != nil {
		t.Fatal(err)
	}
	b := broker.New(e, broker.Write)
	go b.Run()
	t.Cleanup(b.Quit)
	s := New(b, ep)

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, body %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Missing author") {
		t.Fatalf("got %q", rec.Body.String())
	}
}
