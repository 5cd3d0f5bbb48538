// Command convert_gaussians converts fitted Gaussians into the
// JSON formats used to initialize 3DGS training.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/splat-prep/gaussians"
	"github.com/unixpickle/splat-prep/internal/cliutil"
)

const (
	// ModeIntermediate reads the simple Gaussian JSON and writes
	// packed covariances.
	ModeIntermediate = "intermediate"

	// ModeFull reads the intermediate JSON and writes scales,
	// rotations, and spherical harmonics.
	ModeFull = "full"
)

func main() {
	var mode string
	var verbose bool
	opts := gaussians.DefaultConvertOptions()
	flag.StringVar(&mode, "mode", ModeIntermediate, "conversion: "+ModeIntermediate+" or "+ModeFull)
	flag.Float64Var(&opts.MinScale, "min-scale", opts.MinScale, "smallest per-axis scale ("+ModeFull+")")
	flag.Float64Var(&opts.Brightness, "brightness", opts.Brightness, "color multiplier ("+ModeFull+")")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: convert_gaussians [flags] <input.json> <output.json>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	flag.Parse()
	if len(flag.Args()) != 2 {
		flag.Usage()
	}
	inputPath, outputPath := flag.Arg(0), flag.Arg(1)

	logger := cliutil.NewLogger(verbose)
	defer logger.Sync()

	switch mode {
	case ModeIntermediate:
		var in gaussians.File
		essentials.Must(gaussians.ReadJSON(inputPath, &in))
		logger.Infof("Packing %d Gaussians...", len(in.Gaussians))
		essentials.Must(gaussians.WriteJSON(outputPath, gaussians.ToIntermediate(in.Gaussians)))
		fmt.Printf("Converted %s to %s in 3DGS format\n", inputPath, outputPath)
	case ModeFull:
		var in gaussians.Intermediate
		essentials.Must(gaussians.ReadJSON(inputPath, &in))
		logger.Infof("Decomposing %d covariances...", in.Len())
		full, err := gaussians.ToFull(&in, opts)
		essentials.Must(err)
		essentials.Must(gaussians.WriteJSON(outputPath, full))
		fmt.Printf("Converted %s to %s with scales, rotations, and SHs\n", inputPath, outputPath)
	default:
		essentials.Die("unknown mode: " + mode)
	}
}
