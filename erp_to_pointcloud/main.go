// Command erp_to_pointcloud unprojects an equirectangular color
// image and depth map into a PLY point cloud.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/splat-prep/internal/cliutil"
	"github.com/unixpickle/splat-prep/pointcloud"
)

func main() {
	var depthScale float64
	var verbose bool
	flag.Float64Var(&depthScale, "depth-scale", 1.0, "multiplier from depth pixel values to distance")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: erp_to_pointcloud [flags] <rgb.png> <depth.png> <output.ply>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	flag.Parse()
	if len(flag.Args()) != 3 {
		flag.Usage()
	}
	rgbPath, depthPath, outputPath := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	logger := cliutil.NewLogger(verbose)
	defer logger.Sync()

	logger.Info("Loading images...")
	rgb, err := imaging.Open(rgbPath)
	essentials.Must(err)
	depth, err := imaging.Open(depthPath)
	essentials.Must(err)
	logger.Debugw("loaded images", "bounds", rgb.Bounds(), "depth_model", fmt.Sprintf("%T", depth))

	logger.Info("Unprojecting pixels...")
	cloud, err := pointcloud.FromERP(rgb, depth, depthScale)
	essentials.Must(err)

	logger.Infof("Saving %d points...", cloud.Len())
	essentials.Must(pointcloud.Save(outputPath, cloud))
}
