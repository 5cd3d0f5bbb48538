// Command point_cloud reconstructs a point cloud from the depth
// images of a scene written by scene_init.
package main

import (
	"flag"
	"math/rand"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/splat-prep/internal/cliutil"
	"github.com/unixpickle/splat-prep/pointcloud"
	"github.com/unixpickle/splat-prep/scene"
)

func main() {
	var sceneDir string
	var manifest string
	var outputPath string
	var meshPath string
	var thickness float64
	var delta float64
	var maxPoints int
	var seed int64
	var verbose bool
	flag.StringVar(&sceneDir, "scene-dir", "", "scene directory")
	flag.StringVar(&manifest, "manifest", scene.TrainFile, "manifest to read, relative to -scene-dir")
	flag.StringVar(&outputPath, "output-path", "", "output PLY path")
	flag.StringVar(&meshPath, "mesh-path", "", "optional output STL path")
	flag.Float64Var(&thickness, "thickness", 0.02, "radius of each point in the mesh")
	flag.Float64Var(&delta, "delta", 0.02, "marching cubes delta")
	flag.IntVar(&maxPoints, "max-points", 50000, "maximum points to keep")
	flag.Int64Var(&seed, "seed", 0, "seed for point sampling")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Parse()
	if sceneDir == "" || outputPath == "" {
		essentials.Die("Must specify -scene-dir and -output-path")
	}

	logger := cliutil.NewLogger(verbose)
	defer logger.Sync()

	logger.Info("Computing points...")
	cloud, err := scene.ReadPointCloud(sceneDir, manifest)
	essentials.Must(err)
	if cloud.Len() == 0 {
		essentials.Die("no points found in " + sceneDir)
	}

	if cloud.Len() > maxPoints {
		logger.Infof("Found %d points. Reducing to %d...", cloud.Len(), maxPoints)
		cloud = cloud.Subsample(maxPoints, rand.New(rand.NewSource(seed)))
	} else {
		logger.Infof("Using all %d points.", cloud.Len())
	}

	logger.Info("Saving point cloud...")
	essentials.Must(pointcloud.Save(outputPath, cloud))

	if meshPath != "" {
		logger.Info("Creating mesh...")
		mesh := cloud.Mesh(thickness, delta)
		logger.Info("Saving mesh...")
		essentials.Must(mesh.SaveGroupedSTL(meshPath))
	}
}
