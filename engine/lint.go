package engine

import (
	"fmt"

	"github.com/pylon-ssg/pylon/page"
	"github.com/pylon-ssg/pylon/rules"
)

// runLints evaluates every lint whose matcher matches p's URI, in
// declaration order. A predicate returning true means the lint fired
// (spec.md §4.8's worked example: `DENY "Missing author" "**"` fires
// when `meta.author` is unset — the predicate expresses the failure
// condition, not the passing one). The first DENY-severity firing stops
// evaluation for this page and is returned as an error; WARN firings are
// collected and returned alongside it.
func runLints(r *rules.Rules, p *page.Page) ([]LintWarning, error) {
	var warnings []LintWarning
	pageValue := rules.PageToStarlark(p)

	for _, m := range r.LintOrder {
		if !m.Matcher.Match(p.Uri().String()) {
			continue
		}
		lint := r.Lints[m.Key]
		fired, err := r.InvokeLint(m.Key, pageValue)
		if err != nil {
			return warnings, fmt.Errorf("engine: evaluating lint for %s: %w", p.Uri(), err)
		}
		if !fired {
			continue
		}
		if lint.Severity == rules.Deny {
			return warnings, &LintDenyError{PageURI: p.Uri().String(), Message: lint.Message}
		}
		warnings = append(warnings, LintWarning{PageURI: p.Uri().String(), Message: lint.Message})
	}
	return warnings, nil
}
