// Command browse_dataset steps through the images of a 3DGS
// dataset from the terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/splat-prep/browse"
	"github.com/unixpickle/splat-prep/internal/cliutil"
)

func main() {
	var dirs string
	var verbose bool
	flag.StringVar(&dirs, "dirs", strings.Join(browse.DefaultPriority, ","),
		"image directories to search, in order")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: browse_dataset [flags] <dataset-dir>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	flag.Parse()
	if len(flag.Args()) != 1 {
		flag.Usage()
	}
	datasetDir := flag.Arg(0)

	logger := cliutil.NewLogger(verbose)
	defer logger.Sync()

	paths, err := browse.FindImages(datasetDir, strings.Split(dirs, ","))
	essentials.Must(err)
	if len(paths) == 0 {
		essentials.Die("No images found in dataset: " + datasetDir)
	}
	logger.Infof("Found %d images", len(paths))

	cursor, err := browse.NewCursor(paths)
	essentials.Must(err)
	fmt.Println(helpText)
	essentials.Must(RunCommands(os.Stdin, os.Stdout, datasetDir, cursor))
}
