package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pylon-ssg/pylon/paths"
	"github.com/pylon-ssg/pylon/rules"
)

func newTestEnginePaths(t *testing.T) paths.EnginePaths {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"src", "target"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return paths.New(paths.MustAbsPath(root), paths.EnginePaths{})
}

func mustWrite(t *testing.T, p, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPipelinerCopyOp(t *testing.T) {
	ep := newTestEnginePaths(t)
	mustWrite(t, ep.AbsSrcDir().Join("found.png").String(), "pixels")

	container := confirmHtml(t, ep, "index.html")
	if err := os.MkdirAll(ep.AbsOutputDir().String(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ep.AbsOutputDir().Join("index.html").String(), []byte("<img src=found.png>"), 0o644); err != nil {
		t.Fatal(err)
	}

	result := NewScanResult()
	result.Assets["/found.png"] = paths.AssetUri{CheckedUri: paths.CheckedUri{Uri: paths.MustUri("/found.png"), Container: container}}

	pipe := rules.Pipeline{
		Base:       rules.ParseBaseDir("."),
		TargetGlob: "**/*.png",
		Matcher:    rules.GlobMatcher{Pattern: "**/*.png"},
		Ops:        []rules.Op{rules.CopyOp{}},
	}

	p := NewPipeliner(ep)
	if err := p.Run([]rules.Pipeline{pipe}, result); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(ep.AbsOutputDir().Join("found.png").String())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "pixels" {
		t.Fatalf("got %q", got)
	}
}

func TestPipelinerMissingAssetNoPipelineMatch(t *testing.T) {
	ep := newTestEnginePaths(t)
	container := confirmHtml(t, ep, "index.html")

	result := NewScanResult()
	result.Assets["/missing.png"] = paths.AssetUri{CheckedUri: paths.CheckedUri{Uri: paths.MustUri("/missing.png"), Container: container}}

	p := NewPipeliner(ep)
	err := p.Run(nil, result)
	if err == nil {
		t.Fatal("expected MissingAssetsError")
	}
	missingErr, ok := err.(*MissingAssetsError)
	if !ok {
		t.Fatalf("got %T: %v", err, err)
	}
	if len(missingErr.Uris) != 1 || missingErr.Uris[0] != "/missing.png" {
		t.Fatalf("got %+v", missingErr.Uris)
	}
}

func TestPipelinerSkipsAssetAlreadyOnDisk(t *testing.T) {
	ep := newTestEnginePaths(t)
	container := confirmHtml(t, ep, "index.html")
	mustWrite(t, ep.AbsOutputDir().Join("logo.png").String(), "already-here")

	result := NewScanResult()
	result.Assets["/logo.png"] = paths.AssetUri{CheckedUri: paths.CheckedUri{Uri: paths.MustUri("/logo.png"), Container: container}}

	pipe := rules.Pipeline{
		Base:    rules.ParseBaseDir("."),
		Matcher: rules.GlobMatcher{Pattern: "**/*.png"},
		Ops:     []rules.Op{rules.CopyOp{}},
	}

	p := NewPipeliner(ep)
	if err := p.Run([]rules.Pipeline{pipe}, result); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(ep.AbsOutputDir().Join("logo.png").String())
	if string(got) != "already-here" {
		t.Fatalf("mount-provided asset was overwritten: %q", got)
	}
}

func TestResolveRelativeToRoot(t *testing.T) {
	ep := newTestEnginePaths(t)
	res := resolve(ep, rules.ParseBaseDir("/"), "a.png", "")
	want := ep.ProjectRoot.Join("a.png").String()
	if res.source != want {
		t.Fatalf("got %q, want %q", res.source, want)
	}
}

func TestResolveRelativeToDoc(t *testing.T) {
	ep := newTestEnginePaths(t)
	res := resolve(ep, rules.ParseBaseDir("."), "blog/entry/img.png", "blog/entry")
	if res.source != "img.png" {
		t.Fatalf("got %q, want %q", res.source, "img.png")
	}
	want := ep.AbsSrcDir().Join("blog", "entry").String()
	if res.workDir != want {
		t.Fatalf("got %q, want %q", res.workDir, want)
	}
}

func TestResolveRelativeToDocSubdir(t *testing.T) {
	ep := newTestEnginePaths(t)
	res := resolve(ep, rules.ParseBaseDir("./sub"), "blog/entry/img.png", "blog/entry")
	if res.source != filepath.Join("sub", "img.png") {
		t.Fatalf("got %q, want %q", res.source, filepath.Join("sub", "img.png"))
	}
	want := ep.AbsSrcDir().Join("blog", "entry").String()
	if res.workDir != want {
		t.Fatalf("got %q, want %q", res.workDir, want)
	}
}
