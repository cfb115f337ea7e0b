package markdown

import (
	"testing"

	"github.com/pylon-ssg/pylon/highlight"
	"github.com/pylon-ssg/pylon/library"
)

func TestParseShortcodeArgsValid(t *testing.T) {
	args, err := parseShortcodeArgs("note", `k="v", title="hello, world"`)
	if err != nil {
		t.Fatal(err)
	}
	if args["k"] != "v" || args["title"] != "hello, world" {
		t.Fatalf("args = %v", args)
	}
}

func TestParseShortcodeArgsUnterminatedQuote(t *testing.T) {
	_, err := parseShortcodeArgs("note", `k="v`)
	if err == nil {
		t.Fatal("expected error for unterminated quote")
	}
}

func TestParseShortcodeArgsDuplicateKey(t *testing.T) {
	_, err := parseShortcodeArgs("note", `k="v", k="w"`)
	if err == nil {
		t.Fatal("expected error for duplicate key")
	}
}

func TestParseShortcodeArgsMalformed(t *testing.T) {
	_, err := parseShortcodeArgs("note", `k`)
	if err == nil {
		t.Fatal("expected error for key without value")
	}
}

func TestShortcodeExpansionPropagatesMalformedArgError(t *testing.T) {
	lib := library.New()
	r := New(highlight.New("monokai"))
	_, _, err := r.Render("/post.html", `before {{ note(k="v) }} after`, lib, fakeShortcodeRenderer{})
	if err == nil {
		t.Fatal("expected error for malformed shortcode invocation")
	}
}
