package assets

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pylon-ssg/pylon/paths"
	"github.com/pylon-ssg/pylon/rules"
)

// resolution is one asset's computed source path and Shell-op working
// directory, per spec.md §4.7's base-dir table:
//
//	base-dir "/"    + uri "/a.png"                         -> SOURCE=<root>/a.png (absolute)
//	base-dir "."    + uri "/blog/a.png" on doc src/blog/.. -> SOURCE=a.png, cwd=<root>/src/blog
type resolution struct {
	source  string // value substituted for $SOURCE
	workDir string
}

// absSource returns the filesystem path source actually refers to,
// joining it against workDir when it isn't already absolute (the
// relative-to-doc case, where $SOURCE is deliberately relative to
// workDir for Shell's cwd but Copy has no cwd to resolve against).
func (r resolution) absSource() string {
	if filepath.IsAbs(r.source) {
		return r.source
	}
	return filepath.Join(r.workDir, r.source)
}

func resolve(ep paths.EnginePaths, base rules.BaseDir, uriPath, containerDirRel string) resolution {
	if base.RelativeToRoot {
		abs := ep.ProjectRoot.Join(base.Root, uriPath)
		return resolution{source: abs.String(), workDir: ep.ProjectRoot.String()}
	}
	rel := strings.TrimPrefix(uriPath, containerDirRel)
	rel = strings.TrimPrefix(rel, "/")
	workDir := ep.AbsSrcDir().Join(containerDirRel)
	return resolution{source: filepath.Join(base.Doc, rel), workDir: workDir.String()}
}

// Pipeliner executes rules.Pipeline ops against the assets a build or
// dev-server request couldn't find on disk, per spec.md §4.7.
type Pipeliner struct {
	ep        paths.EnginePaths
	scratchNo int
}

// NewPipeliner returns a Pipeliner rooted at ep.
func NewPipeliner(ep paths.EnginePaths) *Pipeliner {
	return &Pipeliner{ep: ep}
}

// Run resolves result's assets against pipelines in declaration order,
// running the matching pipeline's ops for each asset not already present
// on disk. It returns a PipelineFailedError for the first op that failed;
// otherwise a MissingAssetsError listing every asset that matched no
// pipeline and still isn't present. A pipeline failure is returned in
// place of the missing list, never together with it (ops for other assets
// still run; only the first failure is surfaced, per spec.md §4.7's
// "fail the build" framing — matching the teacher's fail-fast BuildContext
// reporting in phase.go).
func (p *Pipeliner) Run(pipelines []rules.Pipeline, result *ScanResult) error {
	var missing []string
	var firstErr error

	for uri, asset := range result.Assets {
		uriPath := strings.TrimPrefix(uri, "/")
		targetAbs := p.ep.AbsOutputDir().Join(uriPath)
		if fileExists(targetAbs.String()) {
			continue
		}

		matched := false
		for _, pipe := range pipelines {
			if !pipe.Matcher.Match(uri) {
				continue
			}
			matched = true
			containerDirRel := filepath.Dir(asset.Container.SysPath().Target.String())
			if containerDirRel == "." {
				containerDirRel = ""
			}
			res := resolve(p.ep, pipe.Base, uriPath, containerDirRel)
			if err := p.runPipeline(pipe, res, targetAbs.String(), uri); err != nil {
				if firstErr == nil {
					firstErr = err
				}
			}
			break
		}
		if !matched && !fileExists(targetAbs.String()) {
			missing = append(missing, uri)
		}
	}

	if firstErr != nil {
		return firstErr
	}
	if len(missing) > 0 {
		return &MissingAssetsError{Uris: missing}
	}
	return nil
}

func (p *Pipeliner) runPipeline(pipe rules.Pipeline, res resolution, targetAbs, uri string) error {
	scratch, err := p.newScratch()
	if err != nil {
		return &PipelineFailedError{Uri: uri, Op: "scratch-alloc", Err: err}
	}
	var scratches []string
	scratches = append(scratches, scratch)
	defer func() {
		for _, s := range scratches {
			os.Remove(s)
		}
	}()

	wroteTarget := false
	ranShell := false

	for _, op := range pipe.Ops {
		switch o := op.(type) {
		case rules.CopyOp:
			if err := ensureParent(targetAbs); err != nil {
				return &PipelineFailedError{Uri: uri, Op: "[COPY]", Err: err}
			}
			if err := copyFile(res.absSource(), targetAbs); err != nil {
				return &PipelineFailedError{Uri: uri, Op: "[COPY]", Err: err}
			}
			wroteTarget = true
		case rules.ShellOp:
			ranShell = true
			current := scratches[len(scratches)-1]
			cmd := o.Command
			newScratchUsed := strings.Contains(cmd, "$NEW_SCRATCH")
			var nextScratch string
			if newScratchUsed {
				nextScratch, err = p.newScratch()
				if err != nil {
					return &PipelineFailedError{Uri: uri, Op: cmd, Err: err}
				}
				if err := copyFile(current, nextScratch); err != nil {
					return &PipelineFailedError{Uri: uri, Op: cmd, Err: err}
				}
				scratches = append(scratches, nextScratch)
			}
			replaced := strings.NewReplacer(
				"$SOURCE", res.source,
				"$TARGET", targetAbs,
				"$SCRATCH", current,
				"$NEW_SCRATCH", nextScratch,
			).Replace(cmd)

			if err := ensureParent(targetAbs); err != nil {
				return &PipelineFailedError{Uri: uri, Op: cmd, Err: err}
			}
			if err := runShell(replaced, res.workDir); err != nil {
				return &PipelineFailedError{Uri: uri, Op: cmd, Err: err}
			}
			if strings.Contains(cmd, "$TARGET") {
				wroteTarget = true
			}
		}
	}

	if ranShell && !wroteTarget {
		final := scratches[len(scratches)-1]
		if err := ensureParent(targetAbs); err != nil {
			return &PipelineFailedError{Uri: uri, Op: "autocopy", Err: err}
		}
		if err := copyFile(final, targetAbs); err != nil {
			return &PipelineFailedError{Uri: uri, Op: "autocopy", Err: err}
		}
	}
	return nil
}

func (p *Pipeliner) newScratch() (string, error) {
	p.scratchNo++
	f, err := os.CreateTemp("", "pylon-scratch-"+strconv.Itoa(p.scratchNo)+"-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func ensureParent(p string) error {
	return os.MkdirAll(filepath.Dir(p), 0o755)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

func runShell(cmd, workDir string) error {
	c := exec.Command("sh", "-c", cmd)
	c.Dir = workDir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("%w: stdout=%q stderr=%q", err, stdout.String(), stderr.String())
	}
	return nil
}
