package library

import (
	"testing"

	"github.com/pylon-ssg/pylon/page"
	"github.com/pylon-ssg/pylon/paths"
)

func newTestPage(t *testing.T, ep paths.EnginePaths, rel string) *page.Page {
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
	return p
}

func TestInsertAssignsKeyAndSearchKeys(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	lib := New()
	p := newTestPage(t, ep, "blog/post.md")

	key, err := lib.Insert(p)
	if err != nil {
		t.Fatal(err)
	}
	if p.PageKey != key {
		t.Fatal("page's own PageKey not updated by Insert")
	}

	got, ok := lib.Get("/blog/post.html")
	if !ok || got != p {
		t.Fatal("expected lookup by uri to find the inserted page")
	}
	got, ok = lib.Get("/blog/post.md")
	if !ok || got != p {
		t.Fatal("expected lookup by source path to find the inserted page")
	}
}

func TestInsertRejectsDuplicateSearchKey(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	lib := New()
	a := newTestPage(t, ep, "blog/post.md")
	b := newTestPage(t, ep, "blog/post.md")

	if _, err := lib.Insert(a); err != nil {
		t.Fatal(err)
	}
	_, err := lib.Insert(b)
	if err == nil {
		t.Fatal("expected DuplicateSearchKeyError")
	}
	if _, ok := err.(*DuplicateSearchKeyError); !ok {
		t.Fatalf("err type = %T", err)
	}
	if lib.Len() != 1 {
		t.Fatalf("len = %d, want 1 (failed insert must not partially apply)", lib.Len())
	}
}

func TestRemoveFreesSlotAtHigherGeneration(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	lib := New()
	a := newTestPage(t, ep, "a.md")

	key, err := lib.Insert(a)
	if err != nil {
		t.Fatal(err)
	}
	if err := lib.Remove(key); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.GetWithKey(key); err == nil {
		t.Fatal("expected stale-key error after removal")
	}

	b := newTestPage(t, ep, "b.md")
	newKey, err := lib.Insert(b)
	if err != nil {
		t.Fatal(err)
	}
	if newKey.Index() != key.Index() {
		t.Fatalf("expected slot reuse at index %d, got %d", key.Index(), newKey.Index())
	}
	if newKey.Generation() <= key.Generation() {
		t.Fatal("expected reused slot to have a strictly higher generation")
	}
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	lib := New()
	names := []string{"c.md", "a.md", "b.md"}
	for _, n := range names {
		if _, err := lib.Insert(newTestPage(t, ep, n)); err != nil {
			t.Fatal(err)
		}
	}
	all := lib.All()
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	for i, n := range names {
		want := "/" + n
		if got := all[i].SearchKeys()[1]; got != want {
			t.Fatalf("order[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestUpdateReplacesPageKeepingKey(t *testing.T) {
	ep := paths.New(paths.MustAbsPath("/proj"), paths.EnginePaths{})
	lib := New()
	a := newTestPage(t, ep, "a.md")
	key, err := lib.Insert(a)
	if err != nil {
		t.Fatal(err)
	}

	updated := newTestPage(t, ep, "a.md")
	if err := lib.Update(key, updated); err != nil {
		t.Fatal(err)
	}
	got, err := lib.GetWithKey(key)
	if err != nil {
		t.Fatal(err)
	}
	if got != updated {
		t.Fatal("expected Update to replace the stored page")
	}
}
