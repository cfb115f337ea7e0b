package page

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

// RawMarkdown is a newtype around a string, kept distinct from rendered
// HTML so the two are never accidentally interchanged.
type RawMarkdown string

// FrontMatter is the parsed `+++ ... +++` preamble of a source document.
// Every field is optional; parseFrontMatter fills in the defaults spec.md
// requires (Searchable true, everything else empty). The Go zero value has
// Searchable false.
type FrontMatter struct {
	TemplateName *string
	Keywords     []string
	Searchable   bool
	Meta         map[string]any
}

// rawFrontMatter mirrors FrontMatter's TOML shape for decoding.
type rawFrontMatter struct {
	Template   *string        `toml:"template_name"`
	Keywords   []string       `toml:"keywords"`
	Searchable *bool          `toml:"searchable"`
	Meta       map[string]any `toml:"meta"`
}

// frontMatterPattern implements the split spec.md §4.1 describes: optional
// leading whitespace, a "+++" line, lazily-captured content, a "+++" line,
// then the rest of the document. Both delimiters are required.
var frontMatterPattern = regexp.MustCompile(`(?s)\A\s*\+\+\+\r?\n(.*?)\r?\n?\+\+\+\r?\n?(.*)\z`)

// MalformedDocumentError reports that raw document text did not match the
// required front-matter delimiter grammar at all.
type MalformedDocumentError struct {
	Path string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("page: %s: malformed document: missing or mismatched +++ delimiters", e.Path)
}

// MalformedFrontMatterError reports that the delimiters were found but the
// captured TOML text failed to parse.
type MalformedFrontMatterError struct {
	Path string
	Err  error
}

func (e *MalformedFrontMatterError) Error() string {
	return fmt.Sprintf("page: %s: malformed front matter: %v", e.Path, e.Err)
}

func (e *MalformedFrontMatterError) Unwrap() error { return e.Err }

// SplitDocument splits raw document text into its TOML front-matter block
// and Markdown body, per spec.md §4.1. An empty front-matter block
// ("+++\n+++") is valid and parses to FrontMatter's zero-ish defaults.
func SplitDocument(path string, raw string) (FrontMatter, RawMarkdown, error) {
	m := frontMatterPattern.FindStringSubmatch(raw)
	if m == nil {
		return FrontMatter{}, "", &MalformedDocumentError{Path: path}
	}
	fmText, body := m[1], m[2]

	fm, err := parseFrontMatter(fmText)
	if err != nil {
		return FrontMatter{}, "", &MalformedFrontMatterError{Path: path, Err: err}
	}
	return fm, RawMarkdown(body), nil
}

func parseFrontMatter(text string) (FrontMatter, error) {
	fm := FrontMatter{Searchable: true}
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return fm, nil
	}

	var raw rawFrontMatter
	if _, err := toml.Decode(text, &raw); err != nil {
		return FrontMatter{}, err
	}

	fm.TemplateName = raw.Template
	fm.Keywords = raw.Keywords
	if fm.Keywords == nil {
		fm.Keywords = []string{}
	}
	if raw.Searchable != nil {
		fm.Searchable = *raw.Searchable
	}
	fm.Meta = raw.Meta
	if fm.Meta == nil {
		fm.Meta = map[string]any{}
	}
	return fm, nil
}
