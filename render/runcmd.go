package render

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// RunCmd is the supplemented "include_cmd" template function
// (SPEC_FULL.md §4, grounded on
// original_source/pylonlib/src/render/template/tera/functions/include_cmd.rs):
// it shells cmd out in cwd and inlines stdout, trimming one trailing
// newline. Unlike the original, the working directory isn't cached —
// pylon's template engine re-evaluates this on every render anyway.
func RunCmd(cwd, cmd string) (string, error) {
	c := exec.Command("sh", "-c", cmd)
	c.Dir = cwd
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("render: RunCmd %q (cwd %s): %w: %s", cmd, cwd, err, stderr.String())
	}
	return strings.TrimSuffix(stdout.String(), "\n"), nil
}
