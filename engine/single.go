package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pylon-ssg/pylon/assets"
	"github.com/pylon-ssg/pylon/page"
	"github.com/pylon-ssg/pylon/paths"
)

// RenderOnePage lints, renders, and (if write is true) persists a single
// page, then discovers and resolves its own still-missing assets — the
// per-request counterpart to BuildSite used by package broker's
// RenderPage command (spec.md §4.9). A DENY lint is returned as an
// error, matching "any per-page lint Deny becomes an error response".
func (e *Engine) RenderOnePage(p *page.Page, write bool) (string, error) {
	if _, err := runLints(e.Rules, p); err != nil {
		return "", err
	}

	html, err := e.renderPage(p)
	if err != nil {
		return "", err
	}

	target := p.TargetSysPath().Abs().String()
	if write {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("engine: writing %s: %w", target, err)
		}
		if err := os.WriteFile(target, []byte(html), 0o644); err != nil {
			return "", fmt.Errorf("engine: writing %s: %w", target, err)
		}
	}

	if err := e.resolvePageAssets(p, []byte(html)); err != nil {
		return "", err
	}
	return html, nil
}

// ProcessPipelinesForUri resolves uri to the HTML file already on disk
// under output_dir, scans its assets, and runs pipelines for whichever
// ones are still missing — spec.md §4.9's ProcessPipelines command.
func (e *Engine) ProcessPipelinesForUri(uri string) error {
	rel := paths.MustRelPath(uri[1:])
	sysPath := e.Paths.OutputSysPath(rel)
	confirmed, err := paths.Confirm[paths.HtmlFile](sysPath, statFunc)
	if err != nil {
		return fmt.Errorf("engine: processing pipelines for %s: %w", uri, err)
	}
	contents, err := os.ReadFile(confirmed.Abs().String())
	if err != nil {
		return fmt.Errorf("engine: processing pipelines for %s: %w", uri, err)
	}
	result, err := assets.ScanPage(contents, confirmed)
	if err != nil {
		return err
	}
	return e.Pipeliner.Run(e.Rules.Pipelines, result)
}

// ProcessMounts runs every declared mount once, outside the full build
// pipeline (spec.md §4.9's ProcessMounts command).
func (e *Engine) ProcessMounts() error {
	_, err := processMounts(e.Rules.Mounts)
	return err
}

func (e *Engine) resolvePageAssets(p *page.Page, html []byte) error {
	sysPath := p.TargetSysPath()
	confirmed, err := paths.Confirm[paths.HtmlFile](sysPath, fakeFileStat)
	if err != nil {
		return fmt.Errorf("engine: scanning assets for %s: %w", p.Uri(), err)
	}
	result, err := assets.ScanPage(html, confirmed)
	if err != nil {
		return err
	}
	return e.Pipeliner.Run(e.Rules.Pipelines, result)
}
