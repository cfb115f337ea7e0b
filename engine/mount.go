package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pylon-ssg/pylon/rules"
)

// processMounts copies the contents of each mount's source tree into its
// target tree, skipping any file already present at the destination
// (spec.md §4.8 step 4; a pre-mounted asset is why the Copy-pipeline
// example in §4.7's worked case #4 never runs its declared pipeline).
func processMounts(mounts []rules.Mount) (int, error) {
	copied := 0
	for _, m := range mounts {
		n, err := copyTree(m.Src.String(), m.Target.String())
		if err != nil {
			return copied, fmt.Errorf("engine: mounting %s -> %s: %w", m.Src, m.Target, err)
		}
		copied += n
	}
	return copied, nil
}

func copyTree(srcRoot, dstRoot string) (int, error) {
	copied := 0
	err := filepath.WalkDir(srcRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcRoot, p)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstRoot, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		if _, statErr := os.Stat(dst); statErr == nil {
			return nil // already present, a pipeline or an earlier mount provided it
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}
