package paths

import "testing"

func TestAbsRelConstruction(t *testing.T) {
	if _, err := NewAbsPath("relative/path"); err == nil {
		t.Fatal("expected error constructing AbsPath from relative string")
	}
	if _, err := NewRelPath("/absolute/path"); err == nil {
		t.Fatal("expected error constructing RelPath from absolute string")
	}

	ap, err := NewAbsPath("/project")
	if err != nil {
		t.Fatal(err)
	}
	if ap.String() != "/project" {
		t.Fatalf("got %q", ap.String())
	}
}

func TestSysPathAbsAndRel(t *testing.T) {
	root := MustAbsPath("/proj")
	sp := NewSysPath(root, MustRelPath("src"), MustRelPath("blog/post.md"))

	if got := sp.Abs().String(); got != "/proj/src/blog/post.md" {
		t.Fatalf("Abs() = %q", got)
	}
	if got := sp.Rel().String(); got != "src/blog/post.md" {
		t.Fatalf("Rel() = %q", got)
	}
}

func TestSysPathWithBaseAndExtension(t *testing.T) {
	root := MustAbsPath("/proj")
	sp := NewSysPath(root, MustRelPath("src"), MustRelPath("blog/post.md"))

	out := sp.WithBase(MustRelPath("target")).WithExtension(".html")
	if got := out.Abs().String(); got != "/proj/target/blog/post.html" {
		t.Fatalf("got %q", got)
	}
}

func TestSysPathPopPushFileName(t *testing.T) {
	root := MustAbsPath("/proj")
	sp := NewSysPath(root, MustRelPath("src"), MustRelPath("blog/entry/post.md"))

	popped, name := sp.Pop()
	if name != "post.md" {
		t.Fatalf("popped name = %q", name)
	}
	if got := popped.Abs().String(); got != "/proj/src/blog/entry" {
		t.Fatalf("popped = %q", got)
	}

	pushed := popped.Push("img.png")
	if got := pushed.Abs().String(); got != "/proj/src/blog/entry/img.png" {
		t.Fatalf("pushed = %q", got)
	}

	renamed := sp.WithFileName("index.md")
	if got := renamed.Abs().String(); got != "/proj/src/blog/entry/index.md" {
		t.Fatalf("renamed = %q", got)
	}
}

func TestConfirmChecksKindAndExistence(t *testing.T) {
	root := MustAbsPath("/proj")
	md := NewSysPath(root, MustRelPath("src"), MustRelPath("a.md"))

	statOK := func(string) (bool, error) { return false, nil }
	if _, err := Confirm[MdFile](md, statOK); err != nil {
		t.Fatal(err)
	}

	htmlPath := NewSysPath(root, MustRelPath("src"), MustRelPath("a.html"))
	if _, err := Confirm[MdFile](htmlPath, statOK); err == nil {
		t.Fatal("expected kind mismatch error for .html as MdFile")
	}

	statErr := func(string) (bool, error) { return false, errNotExist }
	if _, err := Confirm[MdFile](md, statErr); err == nil {
		t.Fatal("expected error when stat fails")
	}
}

var errNotExist = fmtErrorf("not found")

func fmtErrorf(s string) error { return &simpleErr{s} }

type simpleErr struct{ s string }

func (e *simpleErr) Error() string { return e.s }

func TestUriMustStartWithSlash(t *testing.T) {
	if _, err := NewUri("no-leading-slash"); err == nil {
		t.Fatal("expected error")
	}
	u := MustUri("/blog/post.html")
	if u.Dir().String() != "/blog/" {
		t.Fatalf("Dir() = %q", u.Dir().String())
	}
	if u.Join("img.png").String() != "/blog/img.png" {
		t.Fatalf("Join() = %q", u.Join("img.png").String())
	}
}

func TestEnginePathsDefaults(t *testing.T) {
	root := MustAbsPath("/proj")
	ep := New(root, EnginePaths{})

	if ep.AbsSrcDir().String() != "/proj/src" {
		t.Fatalf("AbsSrcDir = %q", ep.AbsSrcDir().String())
	}
	if ep.AbsOutputDir().String() != "/proj/target" {
		t.Fatalf("AbsOutputDir = %q", ep.AbsOutputDir().String())
	}
	if ep.AbsRuleScript().String() != "/proj/rules.star" {
		t.Fatalf("AbsRuleScript = %q", ep.AbsRuleScript().String())
	}
}
