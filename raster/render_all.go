package raster

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/unixpickle/splat-prep/camerarig"
	"github.com/unixpickle/splat-prep/pointcloud"
	"golang.org/x/sync/errgroup"
)

// RenderAll renders every camera of the rig using up to workers
// goroutines, passing each view to fn along with its rig index.
//
// Views are independent, so fn may be called concurrently and in
// any order. The first error stops further rendering and is
// returned.
//
// If workers is 0, runtime.NumCPU() is used.
func RenderAll(ctx context.Context, cloud *pointcloud.PointCloud, rig *camerarig.Rig,
	in *camerarig.Intrinsics, workers int, fn func(idx int, view *View) error) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pose := range rig.Poses {
		if ctx.Err() != nil {
			break
		}
		i, pose := i, pose
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			view, err := Render(cloud, pose, in)
			if err != nil {
				return errors.Wrapf(err, "view %d", i)
			}
			return fn(i, view)
		})
	}
	return g.Wait()
}
