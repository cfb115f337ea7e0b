package assets

import (
	"fmt"
	"strings"
)

// MissingAssetsError reports every asset URI a build referenced but could
// not resolve, per spec.md §7. Anchor-only links never contribute here
// (SPEC_FULL.md §5 decision 2).
type MissingAssetsError struct {
	Uris []string
}

func (e *MissingAssetsError) Error() string {
	return fmt.Sprintf("assets: %d missing asset(s): %s", len(e.Uris), strings.Join(e.Uris, ", "))
}

// PipelineFailedError wraps a pipeline op failure with the asset URI and
// command that produced it.
type PipelineFailedError struct {
	Uri string
	Op  string
	Err error
}

func (e *PipelineFailedError) Error() string {
	return fmt.Sprintf("assets: pipeline for %s failed at %s: %v", e.Uri, e.Op, e.Err)
}

func (e *PipelineFailedError) Unwrap() error { return e.Err }
