// Command fit_gaussians fits 3D Gaussians to a point cloud, either
// one per point or one per cluster of points.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/splat-prep/gaussians"
	"github.com/unixpickle/splat-prep/internal/cliutil"
	"github.com/unixpickle/splat-prep/pointcloud"
)

const (
	MethodPerPoint = "perpoint"
	MethodDBSCAN   = "dbscan"
	MethodKMeans   = "kmeans"
)

func main() {
	var method string
	var variance float64
	var eps float64
	var minSamples int
	var minClusterSize int
	var k int
	var verbose bool
	flag.StringVar(&method, "method", MethodPerPoint,
		"fitting method: "+MethodPerPoint+", "+MethodDBSCAN+", or "+MethodKMeans)
	flag.Float64Var(&variance, "variance", gaussians.DefaultVariance, "per-axis variance for "+MethodPerPoint)
	flag.Float64Var(&eps, "eps", 0.05, "neighborhood radius for "+MethodDBSCAN)
	flag.IntVar(&minSamples, "min-samples", 10, "neighbors of a core point for "+MethodDBSCAN)
	flag.IntVar(&minClusterSize, "min-cluster-size", 10, "smallest cluster that gets a Gaussian")
	flag.IntVar(&k, "k", 100, "number of clusters for "+MethodKMeans)
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fit_gaussians [flags] <input.ply> <output.json>")
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

	logger.Info("Loading point cloud...")
	cloud, err := pointcloud.Load(inputPath)
	essentials.Must(err)

	var result []gaussians.Gaussian
	switch method {
	case MethodPerPoint:
		result = gaussians.PerPoint(cloud, variance)
	case MethodDBSCAN, MethodKMeans:
		var labels []int
		if method == MethodDBSCAN {
			logger.Infow("Clustering points with DBSCAN...", "eps", eps, "min_samples", minSamples)
			labels, err = gaussians.DBSCAN(cloud.Positions, eps, minSamples)
		} else {
			logger.Infow("Clustering points with k-means...", "k", k)
			labels, err = gaussians.KMeans(cloud.Positions, k)
		}
		essentials.Must(err)
		var noise int
		for _, l := range labels {
			if l == gaussians.Noise {
				noise++
			}
		}
		logger.Debugw("clustered points", "noise", noise)
		result, err = gaussians.FitClusters(cloud, labels, minClusterSize)
		essentials.Must(err)
	default:
		essentials.Die("unknown method: " + method)
	}

	logger.Info("Saving Gaussians...")
	essentials.Must(gaussians.WriteJSON(outputPath, &gaussians.File{Gaussians: result}))
	fmt.Printf("Fitted %d Gaussians to %s\n", len(result), inputPath)
}
