// Package library implements spec.md §3/§4.3: the in-memory collection of
// every page the engine knows about, keyed both by a stable generational
// key and by a set of string search keys (URI, source path, ...).
package library

import (
	"fmt"

	"github.com/pylon-ssg/pylon/page"
)

// slot holds a page alongside the generation it was inserted at, so a
// stale PageKey (one whose generation doesn't match the slot's current
// generation) is detected rather than silently aliasing a reused index.
type slot struct {
	page       *page.Page
	generation int
	occupied   bool
}

// DuplicateSearchKeyError reports that two pages claimed the same search
// key (most commonly two source files resolving to the same URI).
type DuplicateSearchKeyError struct {
	Key      string
	Existing page.PageKey
	New      page.PageKey
}

func (e *DuplicateSearchKeyError) Error() string {
	return fmt.Sprintf("library: search key %q already claimed by page %d (generation %d)",
		e.Key, e.Existing.Index(), e.Existing.Generation())
}

// Library is the engine's page store: a generational slot map plus a
// secondary string index for lookup by URI or source path.
//
// Mirroring spec.md §4.3, insertion order is preserved for All(); that
// order is the one the engine reports build results in.
type Library struct {
	slots       []slot
	freeList    []int
	searchIndex map[string]page.PageKey
	order       []page.PageKey
}

// New returns an empty Library.
func New() *Library {
	return &Library{
		searchIndex: make(map[string]page.PageKey),
	}
}

// Insert adds p to the library, assigning it a fresh PageKey and
// registering every key in p.SearchKeys(). If any search key collides
// with an already-registered page, nothing is inserted and a
// *DuplicateSearchKeyError is returned.
func (l *Library) Insert(p *page.Page) (page.PageKey, error) {
	for _, key := range p.SearchKeys() {
		if existing, ok := l.searchIndex[key]; ok {
			return page.PageKey{}, &DuplicateSearchKeyError{Key: key, Existing: existing}
		}
	}

	var idx int
	var generation int
	if n := len(l.freeList); n > 0 {
		idx = l.freeList[n-1]
		l.freeList = l.freeList[:n-1]
		generation = l.slots[idx].generation + 1
	} else {
		idx = len(l.slots)
		l.slots = append(l.slots, slot{})
		generation = 1
	}

	key := page.NewPageKey(idx, generation)
	l.slots[idx] = slot{page: p, generation: generation, occupied: true}
	p.SetPageKey(key)

	for _, k := range p.SearchKeys() {
		l.searchIndex[k] = key
	}
	l.order = append(l.order, key)
	return key, nil
}

// Update replaces the page stored at key's slot in place, re-registering
// its (possibly changed) search keys. The page's generation and position
// in iteration order are unchanged.
func (l *Library) Update(key page.PageKey, p *page.Page) error {
	s, err := l.lookup(key)
	if err != nil {
		return err
	}
	old := s.page
	for _, k := range old.SearchKeys() {
		delete(l.searchIndex, k)
	}
	for _, k := range p.SearchKeys() {
		if existing, ok := l.searchIndex[k]; ok && existing != key {
			// restore old keys before failing so the library is left unchanged.
			for _, ok := range old.SearchKeys() {
				l.searchIndex[ok] = key
			}
			return &DuplicateSearchKeyError{Key: k, Existing: existing, New: key}
		}
	}
	p.SetPageKey(key)
	l.slots[key.Index()].page = p
	for _, k := range p.SearchKeys() {
		l.searchIndex[k] = key
	}
	return nil
}

// Remove drops the page at key, freeing its slot for reuse at a higher
// generation and removing its search keys.
func (l *Library) Remove(key page.PageKey) error {
	s, err := l.lookup(key)
	if err != nil {
		return err
	}
	for _, k := range s.page.SearchKeys() {
		delete(l.searchIndex, k)
	}
	l.slots[key.Index()] = slot{generation: s.generation}
	l.freeList = append(l.freeList, key.Index())
	for i, k := range l.order {
		if k == key {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// GetWithKey returns the page stored at key, or an error if key is stale
// or out of range.
func (l *Library) GetWithKey(key page.PageKey) (*page.Page, error) {
	s, err := l.lookup(key)
	if err != nil {
		return nil, err
	}
	return s.page, nil
}

// Get resolves a search key (URI or source path) to a page.
func (l *Library) Get(searchKey string) (*page.Page, bool) {
	key, ok := l.searchIndex[searchKey]
	if !ok {
		return nil, false
	}
	p, err := l.GetWithKey(key)
	if err != nil {
		return nil, false
	}
	return p, true
}

// KeyFor resolves a search key to a PageKey without fetching the page.
func (l *Library) KeyFor(searchKey string) (page.PageKey, bool) {
	key, ok := l.searchIndex[searchKey]
	return key, ok
}

// All returns every page currently in the library, in insertion order.
func (l *Library) All() []*page.Page {
	out := make([]*page.Page, 0, len(l.order))
	for _, key := range l.order {
		if s, err := l.lookup(key); err == nil {
			out = append(out, s.page)
		}
	}
	return out
}

// Len returns the number of pages currently stored.
func (l *Library) Len() int { return len(l.order) }

func (l *Library) lookup(key page.PageKey) (*slot, error) {
	if key.Index() < 0 || key.Index() >= len(l.slots) {
		return nil, fmt.Errorf("library: page key %v out of range", key)
	}
	s := &l.slots[key.Index()]
	if !s.occupied || s.generation != key.Generation() {
		return nil, fmt.Errorf("library: page key %v is stale", key)
	}
	return s, nil
}
