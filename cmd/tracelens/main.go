package main

import (
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gopkg.in/alecthomas/kingpin.v2"
)

var cfg struct {
	verbose bool
}

var logger = log.NewLogfmtLogger(os.Stderr)

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "Inspect sampled performance traces: call trees, jank and markers.").UsageWriter(os.Stdout)
	app.HelpFlag.Short('h')
	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("0").BoolVar(&cfg.verbose)

	treeCmd := app.Command("tree", "Print the call-node tree of a trace.")
	treeParams := addTreeParams(treeCmd)

	jankCmd := app.Command("jank", "List responsiveness stalls in a trace.")
	jankParams := addJankParams(jankCmd)

	markersCmd := app.Command("markers", "List and search a trace's markers.")
	markersParams := addMarkersParams(markersCmd)

	parsedCmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	if !cfg.verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	switch parsedCmd {
	case treeCmd.FullCommand():
		os.Exit(checkError(printTree(treeParams)))
	case jankCmd.FullCommand():
		os.Exit(checkError(printJank(jankParams)))
	case markersCmd.FullCommand():
		os.Exit(checkError(printMarkers(markersParams)))
	}
}

func checkError(err error) int {
	if err != nil {
		level.Error(logger).Log("msg", "command failed", "err", err)
		return 1
	}
	return 0
}
