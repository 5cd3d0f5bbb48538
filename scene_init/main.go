// Command scene_init renders a point cloud from a rig of cameras
// and writes a 3DGS training scene.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/splat-prep/camerarig"
	"github.com/unixpickle/splat-prep/internal/cliutil"
	"github.com/unixpickle/splat-prep/pointcloud"
	"github.com/unixpickle/splat-prep/scene"
)

func main() {
	cfg, err := ParseConfig("scene_init", os.Args[1:], os.Stderr)
	if err == flag.ErrHelp {
		os.Exit(1)
	}
	essentials.Must(err)

	logger := cliutil.NewLogger(cfg.Verbose)
	defer logger.Sync()

	logger.Infow("Loading point cloud...", "path", cfg.PLY)
	cloud, err := pointcloud.Load(cfg.PLY)
	essentials.Must(err)
	lo, hi := cloud.Bounds()
	logger.Infow("Loaded point cloud", "points", cloud.Len(), "min", lo, "max", hi)

	logger.Infow("Creating camera rig...", "views", cfg.Views, "layout", cfg.Layout)
	rig, err := camerarig.NewRig(cfg.RigConfig())
	essentials.Must(err)

	writer := scene.NewWriter(cfg.OutDir)
	writer.Split = cfg.Split()
	writer.Logger = logger
	writer.Workers = cfg.Workers

	logger.Infow("Rendering views...", "cameras", rig.Len(), "out", cfg.OutDir)
	in := camerarig.DefaultIntrinsics(cfg.Width, cfg.Height)
	summary, err := writer.Write(context.Background(), cloud, rig, in)
	essentials.Must(err)
	logger.Infow("Wrote scene", "train", summary.Train, "test", summary.Test,
		"empty", summary.Empty)

	fmt.Printf("scene_init prepared with %d views and radii=%s\n", summary.Views,
		cfg.RadiiString())
}
