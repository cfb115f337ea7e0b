// Package paths implements the typed path algebra the rest of pylon builds
// on: absolute paths, relative paths, a (root, base, target) triple that can
// be rendered either way, and a "confirmed" wrapper that proves a path has
// been checked against the filesystem and a file-kind tag. Crossing between
// kinds always goes through a constructor that re-validates; there is no way
// to get an AbsPath from a relative string, or a ConfirmedPath without an
// existence check.
package paths

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AbsPath is a filesystem path guaranteed to begin with the OS separator.
type AbsPath struct {
	p string
}

// NewAbsPath validates p and wraps it. p must be absolute.
func NewAbsPath(p string) (AbsPath, error) {
	if !filepath.IsAbs(p) {
		return AbsPath{}, fmt.Errorf("paths: %q is not an absolute path", p)
	}
	return AbsPath{p: filepath.Clean(p)}, nil
}

// MustAbsPath panics if p is not absolute. Used at process startup where the
// value is a trusted constant.
func MustAbsPath(p string) AbsPath {
	ap, err := NewAbsPath(p)
	if err != nil {
		panic(err)
	}
	return ap
}

func (a AbsPath) String() string { return a.p }

// Join returns a new AbsPath with rel appended.
func (a AbsPath) Join(rel ...string) AbsPath {
	return AbsPath{p: filepath.Join(append([]string{a.p}, rel...)...)}
}

// RelPath is a filesystem path guaranteed not to begin with the OS separator.
type RelPath struct {
	p string
}

// NewRelPath validates p and wraps it. p must not be absolute.
func NewRelPath(p string) (RelPath, error) {
	if filepath.IsAbs(p) {
		return RelPath{}, fmt.Errorf("paths: %q is an absolute path, want relative", p)
	}
	return RelPath{p: filepath.Clean(p)}, nil
}

// MustRelPath panics if p is absolute.
func MustRelPath(p string) RelPath {
	rp, err := NewRelPath(p)
	if err != nil {
		panic(err)
	}
	return rp
}

func (r RelPath) String() string { return r.p }

// Join returns a new RelPath with more appended.
func (r RelPath) Join(more ...string) RelPath {
	return RelPath{p: filepath.Join(append([]string{r.p}, more...)...)}
}

// Ext returns the file extension, including the leading dot.
func (r RelPath) Ext() string { return filepath.Ext(r.p) }

// WithExtension returns a copy of r with its extension replaced by ext
// (which should include the leading dot).
func (r RelPath) WithExtension(ext string) RelPath {
	trimmed := strings.TrimSuffix(r.p, filepath.Ext(r.p))
	return RelPath{p: trimmed + ext}
}

// SysPath is a path expressed as project_root/base/target, the three-way
// split spec.md's data model requires for pipeline base-dir resolution:
// the absolute form is root/base/target, the relative form is base/target.
type SysPath struct {
	Root   AbsPath
	Base   RelPath
	Target RelPath
}

// NewSysPath builds a SysPath from its three components.
func NewSysPath(root AbsPath, base, target RelPath) SysPath {
	return SysPath{Root: root, Base: base, Target: target}
}

// Abs returns the absolute form: root/base/target.
func (s SysPath) Abs() AbsPath {
	return s.Root.Join(s.Base.p, s.Target.p)
}

// Rel returns the relative form: base/target.
func (s SysPath) Rel() RelPath {
	return RelPath{p: filepath.Join(s.Base.p, s.Target.p)}
}

// WithBase returns a copy of s with Base replaced.
func (s SysPath) WithBase(base RelPath) SysPath {
	s.Base = base
	return s
}

// WithExtension returns a copy of s with Target's extension replaced.
func (s SysPath) WithExtension(ext string) SysPath {
	s.Target = s.Target.WithExtension(ext)
	return s
}

// WithFileName returns a copy of s with Target's final path element replaced.
func (s SysPath) WithFileName(name string) SysPath {
	dir := filepath.Dir(s.Target.p)
	if dir == "." {
		s.Target = RelPath{p: name}
	} else {
		s.Target = RelPath{p: filepath.Join(dir, name)}
	}
	return s
}

// Pop removes the final path element of Target, returning the popped name.
func (s SysPath) Pop() (SysPath, string) {
	name := filepath.Base(s.Target.p)
	dir := filepath.Dir(s.Target.p)
	if dir == "." {
		s.Target = RelPath{p: ""}
	} else {
		s.Target = RelPath{p: dir}
	}
	return s, name
}

// Push appends name to Target.
func (s SysPath) Push(name string) SysPath {
	s.Target = s.Target.Join(name)
	return s
}

// RelativeTo returns Target's path relative to the given base, assuming
// Base equals base (used when deriving a URI from a target path, e.g.
// stripping output_dir off a rendered page's SysPath).
func (s SysPath) RelativeTo(base RelPath) (string, error) {
	if s.Base.p != base.p {
		return "", fmt.Errorf("paths: base mismatch: have %q, want %q", s.Base.p, base.p)
	}
	return s.Target.p, nil
}

// Kind marks a type used to tag a ConfirmedPath with the file kind it was
// checked against (see Confirm).
type Kind interface {
	// Matches reports whether a path with this extension/attributes
	// satisfies the kind (e.g. MdFile requires ".md").
	Matches(sysPath SysPath, isDir bool) bool
	// Name is used in error messages ("markdown file", "directory", ...).
	Name() string
}

// ConfirmedPath is a SysPath that has been checked to exist on disk and to
// match a Kind. Once constructed it is immutable; there is no way to forge
// one without going through Confirm.
type ConfirmedPath[K Kind] struct {
	sysPath SysPath
}

// SysPath returns the underlying path.
func (c ConfirmedPath[K]) SysPath() SysPath { return c.sysPath }

// Abs returns the absolute form of the confirmed path.
func (c ConfirmedPath[K]) Abs() AbsPath { return c.sysPath.Abs() }

func (c ConfirmedPath[K]) String() string { return c.sysPath.Abs().String() }

// StatFunc abstracts filesystem stat calls so Confirm can be unit tested
// without touching disk.
type StatFunc func(path string) (isDir bool, err error)

// Confirm checks sysPath against the filesystem (via stat) and against the
// zero value of K, returning a ConfirmedPath[K] on success.
func Confirm[K Kind](sysPath SysPath, stat StatFunc) (ConfirmedPath[K], error) {
	var kind K
	isDir, err := stat(sysPath.Abs().String())
	if err != nil {
		return ConfirmedPath[K]{}, fmt.Errorf("paths: confirm %s: %w", sysPath.Abs(), err)
	}
	if !kind.Matches(sysPath, isDir) {
		return ConfirmedPath[K]{}, fmt.Errorf("paths: %s is not a %s", sysPath.Abs(), kind.Name())
	}
	return ConfirmedPath[K]{sysPath: sysPath}, nil
}

// MdFile tags a ConfirmedPath as a Markdown source file.
type MdFile struct{}

func (MdFile) Matches(s SysPath, isDir bool) bool { return !isDir && s.Target.Ext() == ".md" }
func (MdFile) Name() string                       { return "markdown file" }

// HtmlFile tags a ConfirmedPath as a rendered HTML file.
type HtmlFile struct{}

func (HtmlFile) Matches(s SysPath, isDir bool) bool { return !isDir && s.Target.Ext() == ".html" }
func (HtmlFile) Name() string                       { return "html file" }

// TemplateFile tags a ConfirmedPath as any template-engine source file.
type TemplateFile struct{}

func (TemplateFile) Matches(s SysPath, isDir bool) bool { return !isDir }
func (TemplateFile) Name() string                       { return "template file" }

// AnyFile tags a ConfirmedPath as any existing regular file.
type AnyFile struct{}

func (AnyFile) Matches(_ SysPath, isDir bool) bool { return !isDir }
func (AnyFile) Name() string                       { return "file" }

// Dir tags a ConfirmedPath as an existing directory.
type Dir struct{}

func (Dir) Matches(_ SysPath, isDir bool) bool { return isDir }
func (Dir) Name() string                       { return "directory" }
