// Command pylon builds or serves a project, per spec.md §6's external
// interfaces. Flags mirror cmd/s3gen.go's own flat flag.String style
// rather than a cobra/viper CLI framework, since the teacher never reaches
// for one either.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	gut "github.com/panyam/goutils/utils"

	"github.com/pylon-ssg/pylon/broker"
	"github.com/pylon-ssg/pylon/devserver"
	"github.com/pylon-ssg/pylon/engine"
	"github.com/pylon-ssg/pylon/paths"
	"github.com/pylon-ssg/pylon/watch"
)

var usage = `usage: pylon <build|serve> [flags]

  build   render the whole site once and exit
  serve   render on demand and serve the result, reloading on changes

Flags (both subcommands):
  -root string         project root (default ".")
  -src_dir string       source markdown directory, relative to root
  -template_dir string  template directory, relative to root
  -output_dir string    generated-output directory, relative to root
  -rule_script string   rule script path, relative to root

serve-only flags:
  -addr string          address to serve on (default ":8080")
  -debounce duration     filesystem-event debounce window (default 250ms)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func buildEnginePaths(fs *flagSet) paths.EnginePaths {
	var overrides paths.EnginePaths
	if fs.srcDir != "" {
		overrides.SrcDir = paths.MustRelPath(fs.srcDir)
	}
	if fs.templateDir != "" {
		overrides.TemplateDir = paths.MustRelPath(fs.templateDir)
	}
	if fs.outputDir != "" {
		overrides.OutputDir = paths.MustRelPath(fs.outputDir)
	}
	if fs.ruleScript != "" {
		overrides.RuleScript = paths.MustRelPath(fs.ruleScript)
	}
	// ExpandUserPath handles a leading "~" the way the teacher's own
	// Site.ContentRoot/OutputDir setup does, before filepath.Abs resolves
	// whatever's left against the working directory.
	absRoot, err := filepath.Abs(gut.ExpandUserPath(fs.root))
	if err != nil {
		log.Fatalf("pylon: resolving project root %q: %v", fs.root, err)
	}
	return paths.New(paths.MustAbsPath(absRoot), overrides)
}

func runBuild(args []string) {
	fs := parseFlags(args, false)
	ep := buildEnginePaths(fs)

	e, err := engine.New(ep)
	if err != nil {
		log.Fatalf("pylon: %v", err)
	}

	report, err := e.BuildSite()
	if err != nil {
		log.Fatalf("pylon: build failed: %v", err)
	}
	log.Printf("pylon: built %d pages, %d mounts, %d assets resolved",
		report.PagesRendered, report.MountsProcessed, report.AssetsResolved)
	for _, warn := range report.Warnings {
		log.Printf("pylon: lint warning: %s: %s", warn.PageURI, warn.Message)
	}
}

func runServe(args []string) {
	fs := parseFlags(args, true)
	ep := buildEnginePaths(fs)

	e, err := engine.New(ep)
	if err != nil {
		log.Fatalf("pylon: %v", err)
	}
	if _, err := e.BuildSite(); err != nil {
		log.Printf("pylon: initial build failed: %v", err)
	}

	b := broker.New(e, broker.Write)
	go b.Run()
	defer b.Quit()

	w := watch.New(b, ep.ProjectRoot, fs.debounce)
	if err := w.Start(ep.ProjectRoot); err != nil {
		log.Fatalf("pylon: watching %s: %v", ep.ProjectRoot, err)
	}
	defer w.Stop()

	srv := devserver.New(b, ep)
	log.Fatal(srv.Serve(fs.addr))
}

type flagSet struct {
	root        string
	srcDir      string
	templateDir string
	outputDir   string
	ruleScript  string
	addr        string
	debounce    time.Duration
}

func parseFlags(args []string, serveFlags bool) *flagSet {
	fs := &flagSet{}
	set := flag.NewFlagSet("pylon", flag.ExitOnError)
	set.StringVar(&fs.root, "root", ".", "project root")
	set.StringVar(&fs.srcDir, "src_dir", "", "source markdown directory, relative to root")
	set.StringVar(&fs.templateDir, "template_dir", "", "template directory, relative to root")
	set.StringVar(&fs.outputDir, "output_dir", "", "generated-output directory, relative to root")
	set.StringVar(&fs.ruleScript, "rule_script", "", "rule script path, relative to root")
	if serveFlags {
		set.StringVar(&fs.addr, "addr", ":8080", "address to serve on")
		set.DurationVar(&fs.debounce, "debounce", watch.DefaultDebounce, "filesystem-event debounce window")
	}
	set.Parse(args)
	return fs
}
