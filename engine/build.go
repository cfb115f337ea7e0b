package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pylon-ssg/pylon/assets"
	"github.com/pylon-ssg/pylon/paths"
)

// BuildSite runs the full six-step build pipeline described in spec.md
// §4.8: lint -> render -> write -> mount -> discover assets -> run
// pipelines. A DENY lint or a per-page render failure aborts before any
// output is written; a non-empty missing-assets set after pipelines run
// fails the build as a whole (matching §7's "no partial output is
// promised" propagation policy, even though the HTML itself is already
// on disk by that point — only the asset tree is incomplete).
func (e *Engine) BuildSite() (*Report, error) {
	report := &Report{}
	pages := e.Library.All()

	// Step 1: lint.
	for _, p := range pages {
		warnings, err := runLints(e.Rules, p)
		report.Warnings = append(report.Warnings, warnings...)
		if err != nil {
			return report, err
		}
	}

	// Step 2: render every page to HTML in memory.
	rendered := make(map[string]string, len(pages)) // target abs path -> html
	for _, p := range pages {
		html, err := e.renderPage(p)
		if err != nil {
			return report, err
		}
		rendered[p.TargetSysPath().Abs().String()] = html
		report.PagesRendered++
	}

	// Step 3: write.
	for target, html := range rendered {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return report, fmt.Errorf("engine: writing %s: %w", target, err)
		}
		if err := os.WriteFile(target, []byte(html), 0o644); err != nil {
			return report, fmt.Errorf("engine: writing %s: %w", target, err)
		}
	}

	// Step 4: mounts.
	n, err := processMounts(e.Rules.Mounts)
	report.MountsProcessed = n
	if err != nil {
		return report, err
	}

	// Step 5: discover every HTML file's assets.
	result, err := e.scanOutputTree()
	if err != nil {
		return report, err
	}

	// Step 6: run pipelines over whatever isn't on disk yet.
	if err := e.Pipeliner.Run(e.Rules.Pipelines, result); err != nil {
		return report, err
	}
	report.AssetsResolved = len(result.Assets)
	return report, nil
}

// scanOutputTree walks output_dir for HTML files and merges every page's
// asset references into one ScanResult, per spec.md §4.8 step 5.
func (e *Engine) scanOutputTree() (*assets.ScanResult, error) {
	outputDir := e.Paths.AbsOutputDir().String()
	files, err := sortedHtmlFiles(outputDir)
	if err != nil {
		return nil, fmt.Errorf("engine: discovering html files under %s: %w", outputDir, err)
	}

	merged := assets.NewScanResult()
	for _, f := range files {
		rel, err := filepath.Rel(outputDir, f)
		if err != nil {
			return nil, err
		}
		sysPath := e.Paths.OutputSysPath(paths.MustRelPath(rel))
		confirmed, err := paths.Confirm[paths.HtmlFile](sysPath, statFunc)
		if err != nil {
			return nil, err
		}
		contents, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("engine: reading %s: %w", f, err)
		}
		result, err := assets.ScanPage(contents, confirmed)
		if err != nil {
			return nil, fmt.Errorf("engine: scanning %s: %w", f, err)
		}
		merged.Merge(result)
	}
	return merged, nil
}
