package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// shortcodePattern matches spec.md §4.5's shortcode grammar:
// "{{ name(k1=\"v1\", k2=\"v2\", ...) }}", whitespace-insensitive.
var shortcodePattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\(([^)]*)\)\s*\}\}`)

var kvPattern = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*=\s*"([^"]*)"$`)

// ShortcodeError reports a malformed shortcode invocation: an unterminated
// quote, a key without a value, or a key repeated within the same
// invocation. Grounded on original_source's shortcode_processor crate
// (SPEC_FULL.md §4), whose ShortcodeError treats these as hard failures
// rather than the distilled spec's silence on the failure mode.
type ShortcodeError struct {
	Name   string
	Reason string
}

func (e *ShortcodeError) Error() string {
	return fmt.Sprintf("markdown: shortcode %q: %s", e.Name, e.Reason)
}

// expandShortcodes scans raw for shortcode invocations and splices each
// one's rendered fragment into the text stream at the match span, ahead
// of Markdown parsing. A nil sc leaves raw unchanged.
func expandShortcodes(raw string, sc ShortcodeRenderer) (string, error) {
	if sc == nil {
		return raw, nil
	}
	var firstErr error
	out := shortcodePattern.ReplaceAllStringFunc(raw, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := shortcodePattern.FindStringSubmatch(match)
		name, argText := sub[1], sub[2]

		args, err := parseShortcodeArgs(name, argText)
		if err != nil {
			firstErr = err
			return match
		}

		rendered, err := sc.RenderShortcode(name, args)
		if err != nil {
			firstErr = fmt.Errorf("markdown: shortcode %q: %w", name, err)
			return match
		}
		return rendered
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// parseShortcodeArgs splits argText on top-level commas (commas inside a
// quoted value don't split) and requires every non-empty piece to be a
// well-formed key="value" pair with a key seen at most once. An
// unterminated quote leaves a token that splitTopLevelCommas can't close,
// which fails the same way a malformed key=value pair does.
func parseShortcodeArgs(name, argText string) (map[string]string, error) {
	tokens, err := splitTopLevelCommas(argText)
	if err != nil {
		return nil, &ShortcodeError{Name: name, Reason: err.Error()}
	}

	args := map[string]string{}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		m := kvPattern.FindStringSubmatch(tok)
		if m == nil {
			return nil, &ShortcodeError{Name: name, Reason: fmt.Sprintf("malformed argument %q", tok)}
		}
		key, val := m[1], m[2]
		if _, dup := args[key]; dup {
			return nil, &ShortcodeError{Name: name, Reason: fmt.Sprintf("duplicate key %q", key)}
		}
		args[key] = val
	}
	return args, nil
}

// splitTopLevelCommas splits s on commas that aren't inside a double-quoted
// string, returning an error if a quote is opened but never closed.
func splitTopLevelCommas(s string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			tokens = append(tokens, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	tokens = append(tokens, cur.String())
	return tokens, nil
}
