package library

import (
	"path/filepath"

	"github.com/pylon-ssg/pylon/page"
)

// Breadcrumbs implements the supplemented breadcrumb feature from
// original_source's pylonlib::core::page::render::breadcrumbs: starting at
// page, walk up its ancestor directories looking for an "index.md" search
// key at each level, finally falling back to the site root's "/index.md".
// The result is ordered root-first, ending with page itself.
//
// Grounded on original_source/pylonlib/src/core/page/render/breadcrumbs.rs
// (generate), translated from its SysPath::pop()/file_name() walk to the
// equivalent path/filepath operations over a page's search-key string.
func Breadcrumbs(lib *Library, key page.PageKey) ([]*page.Page, error) {
	p, err := lib.GetWithKey(key)
	if err != nil {
		return nil, err
	}
	crumbs := []*page.Page{p}

	srcRel := "/" + p.Path.SysPath().Target.String()
	dir := filepath.Dir(srcRel)
	if filepath.Base(srcRel) == "index.md" {
		dir = filepath.Dir(dir)
	}

	for dir != "." && dir != "/" && dir != "" {
		if ancestor, ok := lib.Get(filepath.Join(dir, "index.md")); ok {
			crumbs = append(crumbs, ancestor)
		}
		dir = filepath.Dir(dir)
	}

	if root, ok := lib.Get("/index.md"); ok {
		alreadyPresent := false
		for _, c := range crumbs {
			if c.PageKey == root.PageKey {
				alreadyPresent = true
				break
			}
		}
		if !alreadyPresent {
			crumbs = append(crumbs, root)
		}
	}

	// crumbs was built leaf-first; reverse to root-first.
	for i, j := 0, len(crumbs)-1; i < j; i, j = i+1, j-1 {
		crumbs[i], crumbs[j] = crumbs[j], crumbs[i]
	}
	return crumbs, nil
}
