package broker

import (
	"path/filepath"
	"strings"

	"github.com/pylon-ssg/pylon/paths"
)

// underDir reports whether p lies inside dir (both absolute, cleaned
// paths), used by handleFilesystemUpdate to classify a changed path
// against the project's configured directories.
func underDir(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasSuffix(p, suffix string) bool {
	return strings.HasSuffix(p, suffix)
}

// mustAbs wraps p as a paths.AbsPath, panicking if it isn't absolute.
// Every FileEvent.Path reaching handleFilesystemUpdate originates from
// the filesystem watcher, which only ever reports absolute paths.
func mustAbs(p string) paths.AbsPath {
	return paths.MustAbsPath(p)
}
