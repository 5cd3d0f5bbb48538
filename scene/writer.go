package scene

import (
	"context"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/unixpickle/splat-prep/camerarig"
	"github.com/unixpickle/splat-prep/pointcloud"
	"github.com/unixpickle/splat-prep/raster"
	"go.uber.org/zap"
)

// A Writer renders a rig into a scene directory.
type Writer struct {
	Dir    string
	Split  Split
	Logger *zap.SugaredLogger

	// Workers is the number of views rendered at once. If it is 0,
	// one worker per CPU is used.
	Workers int
}

// NewWriter creates a writer with a no-op logger.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Logger: zap.NewNop().Sugar()}
}

// Summary describes a written scene.
type Summary struct {
	Views int
	Train int
	Test  int
	Empty int
}

// Prepare creates the output directories.
func (w *Writer) Prepare() error {
	for _, sub := range []string{ImageDir, DepthDir} {
		if err := os.MkdirAll(filepath.Join(w.Dir, sub), 0755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	return nil
}

// WriteView saves the color and depth images of a view.
func (w *Writer) WriteView(idx int, view *raster.View) error {
	name := ViewName(idx) + ".png"
	if err := imaging.Save(view.Color, filepath.Join(w.Dir, ImageDir, name)); err != nil {
		return errors.Wrapf(err, "view %d: save image", idx)
	}
	if err := imaging.Save(view.DepthImage(), filepath.Join(w.Dir, DepthDir, name)); err != nil {
		return errors.Wrapf(err, "view %d: save depth", idx)
	}
	return nil
}

// WriteManifests writes the train and test manifests.
func (w *Writer) WriteManifests(rig *camerarig.Rig, in *camerarig.Intrinsics,
	stats []ViewStats) (train, test int, err error) {
	trainIdxs, testIdxs := w.Split.Assign(rig.Len())
	for _, m := range []struct {
		name string
		idxs []int
	}{{TrainFile, trainIdxs}, {TestFile, testIdxs}} {
		manifest := NewManifest(rig, in, stats, m.idxs)
		if err := WriteManifest(filepath.Join(w.Dir, m.name), manifest); err != nil {
			return 0, 0, errors.Wrapf(err, "write %s", m.name)
		}
	}
	return len(trainIdxs), len(testIdxs), nil
}

// Write renders every camera of the rig and saves the images and
// manifests. Any error aborts the whole scene.
func (w *Writer) Write(ctx context.Context, cloud *pointcloud.PointCloud, rig *camerarig.Rig,
	in *camerarig.Intrinsics) (*Summary, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := w.Split.Validate(); err != nil {
		return nil, err
	}
	logger := w.logger()
	if err := w.Prepare(); err != nil {
		return nil, err
	}

	// Each view only writes its own stats entry.
	stats := make([]ViewStats, rig.Len())
	err := raster.RenderAll(ctx, cloud, rig, in, w.Workers, func(idx int, view *raster.View) error {
		stats[idx] = ViewStats{Valid: view.Valid, DepthMin: view.DepthMin, DepthMax: view.DepthMax}
		if view.Valid == 0 {
			logger.Warnw("view has no visible points", "view", idx)
		}
		if err := w.WriteView(idx, view); err != nil {
			return err
		}
		logger.Debugw("wrote view", "view", idx, "pixels", view.Valid)
		return nil
	})
	if err != nil {
		return nil, err
	}

	train, test, err := w.WriteManifests(rig, in, stats)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Views: rig.Len(), Train: train, Test: test}
	for _, s := range stats {
		if s.Valid == 0 {
			summary.Empty++
		}
	}
	return summary, nil
}

func (w *Writer) logger() *zap.SugaredLogger {
	if w.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return w.Logger
}
