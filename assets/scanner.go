// Package assets implements spec.md §4.7: scanning rendered HTML for
// asset references, classifying each by URL shape, and materialising the
// ones that don't already exist on disk via the rule engine's pipelines.
// HTML scanning uses golang.org/x/net/html's tokenizer — the narrow,
// well-known parsing contract spec.md §1 carves the HTML parser out as
// an external collaborator to consume.
package assets

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pylon-ssg/pylon/paths"
)

// tagAttrs is spec.md §4.7's fixed tag/attribute table: the only places
// the scanner looks for asset URLs.
var tagAttrs = map[string][]string{
	"a":      {"href"},
	"audio":  {"src"},
	"embed":  {"src"},
	"img":    {"src"},
	"link":   {"href"},
	"object": {"data"},
	"script": {"src"},
	"source": {"src", "srcset"},
	"track":  {"src"},
	"video":  {"src"},
}

// UrlType classifies a discovered URL per spec.md §4.7.
type UrlType int

const (
	// Absolute URLs start with "/".
	Absolute UrlType = iota
	// Relative URLs have no leading "/" and no scheme.
	Relative
	// Offsite URLs carry a scheme or look like a remote host.
	Offsite
	// InternalDoc URLs start with "@/" — should never survive to this
	// point (the markdown renderer rewrites them), so seeing one here
	// is a bug spec.md §4.7 calls out explicitly.
	InternalDoc
)

// Reference is one URL found on one rendered page.
type Reference struct {
	Tag        string
	Attr       string
	Raw        string
	Type       UrlType
	AnchorOnly bool // true for same-page "#fragment" links
}

func classify(raw string) UrlType {
	switch {
	case strings.HasPrefix(raw, "@/"):
		return InternalDoc
	case strings.HasPrefix(raw, "/"):
		return Absolute
	case isOffsite(raw):
		return Offsite
	default:
		return Relative
	}
}

func isOffsite(raw string) bool {
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "mailto:") || strings.HasPrefix(raw, "tel:") {
		return true
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != ""
}

// splitSrcset extracts the URL portion of each comma-separated candidate
// in a srcset attribute value ("a.png 1x, b.png 2x" -> ["a.png", "b.png"]).
func splitSrcset(value string) []string {
	var out []string
	for _, candidate := range strings.Split(value, ",") {
		fields := strings.Fields(strings.TrimSpace(candidate))
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

// ScanReferences walks htmlBytes' tag/attribute table and returns every
// URL found, per spec.md §4.7.
func ScanReferences(htmlBytes []byte) ([]Reference, error) {
	var refs []Reference
	tokenizer := html.NewTokenizer(strings.NewReader(string(htmlBytes)))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			if err := tokenizer.Err(); err != io.EOF {
				return nil, fmt.Errorf("assets: scanning html: %w", err)
			}
			return refs, nil
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		attrs, ok := tagAttrs[token.Data]
		if !ok {
			continue
		}
		for _, a := range token.Attr {
			if !containsStr(attrs, a.Key) {
				continue
			}
			values := []string{a.Val}
			if a.Key == "srcset" {
				values = splitSrcset(a.Val)
			}
			for _, v := range values {
				if v == "" {
					continue
				}
				refs = append(refs, Reference{
					Tag:        token.Data,
					Attr:       a.Key,
					Raw:        v,
					Type:       classify(v),
					AnchorOnly: token.Data == "a" && strings.HasPrefix(v, "#"),
				})
			}
		}
	}
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// ScanResult is the set of asset URIs a page (or a whole build) requires,
// plus the anchor-only links encountered (exempted from the missing-asset
// check per spec.md §9 Design Notes / SPEC_FULL.md §5 decision 2, but
// surfaced explicitly rather than silently dropped).
type ScanResult struct {
	Assets     map[string]paths.AssetUri
	AnchorOnly []string
}

// NewScanResult returns an empty ScanResult.
func NewScanResult() *ScanResult {
	return &ScanResult{Assets: map[string]paths.AssetUri{}}
}

// Merge folds other into r.
func (r *ScanResult) Merge(other *ScanResult) {
	for k, v := range other.Assets {
		r.Assets[k] = v
	}
	r.AnchorOnly = append(r.AnchorOnly, other.AnchorOnly...)
}

// ScanPage scans one rendered HTML file's bytes for asset references,
// given the ConfirmedPath<HtmlFile> it was emitted to (used to resolve
// Relative URLs against the page's own directory, per spec.md §4.7).
func ScanPage(htmlBytes []byte, container paths.ConfirmedPath[paths.HtmlFile]) (*ScanResult, error) {
	refs, err := ScanReferences(htmlBytes)
	if err != nil {
		return nil, err
	}
	result := NewScanResult()
	containerDir := parentDir(container.SysPath().Target.String())

	for _, ref := range refs {
		if ref.AnchorOnly {
			result.AnchorOnly = append(result.AnchorOnly, ref.Raw)
			continue
		}
		switch ref.Type {
		case Offsite:
			continue
		case InternalDoc:
			// A bug if it reaches here (the markdown renderer should
			// already have rewritten it) — surfaced as a normal missing
			// asset rather than panicking, so a build still reports it.
			uri := "/" + strings.TrimPrefix(ref.Raw, "@/")
			result.Assets[uri] = paths.AssetUri{CheckedUri: paths.CheckedUri{Uri: paths.MustUri(uri), Container: container}}
		case Absolute:
			uri := ref.Raw
			result.Assets[uri] = paths.AssetUri{CheckedUri: paths.CheckedUri{Uri: paths.MustUri(uri), Container: container}}
		case Relative:
			abs := "/" + joinUriPath(containerDir, ref.Raw)
			result.Assets[abs] = paths.AssetUri{CheckedUri: paths.CheckedUri{Uri: paths.MustUri(abs), Container: container}}
		}
	}
	return result, nil
}

func parentDir(rel string) string {
	idx := strings.LastIndex(rel, "/")
	if idx < 0 {
		return ""
	}
	return rel[:idx]
}

func joinUriPath(dir, rel string) string {
	if dir == "" {
		return rel
	}
	return dir + "/" + rel
}
