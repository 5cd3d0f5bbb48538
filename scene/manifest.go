// Package scene writes and reads multi-view training scenes: a
// directory of rendered images, depth maps, and camera manifests.
package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/unixpickle/splat-prep/camerarig"
	"go.uber.org/multierr"
)

const (
	ImageDir  = "images"
	DepthDir  = "depths"
	TrainFile = "transforms_train.json"
	TestFile  = "transforms_test.json"
)

// A Frame describes one camera of a manifest.
type Frame struct {
	FilePath  string `json:"file_path,omitempty"`
	DepthPath string `json:"depth_path,omitempty"`

	// DepthMin and DepthMax are the depths mapped to 0 and 255 in
	// the depth image. They are omitted for empty views.
	DepthMin float64 `json:"depth_min,omitempty"`
	DepthMax float64 `json:"depth_max,omitempty"`

	TransformMatrix [4][4]float64 `json:"transform_matrix"`
}

// Pose decodes the camera-to-world transform of the frame.
func (f *Frame) Pose() (*camerarig.Pose, error) {
	return camerarig.PoseFromMatrix(f.TransformMatrix)
}

// A Manifest lists the cameras of one split of a scene.
type Manifest struct {
	CameraAngleX float64 `json:"camera_angle_x,omitempty"`
	Width        int     `json:"w,omitempty"`
	Height       int     `json:"h,omitempty"`
	Fx           float64 `json:"fl_x,omitempty"`
	Fy           float64 `json:"fl_y,omitempty"`
	Cx           float64 `json:"cx,omitempty"`
	Cy           float64 `json:"cy,omitempty"`

	Frames []Frame `json:"frames"`
}

// ViewStats summarizes a rendered view for its manifest entry.
type ViewStats struct {
	Valid    int
	DepthMin float64
	DepthMax float64
}

// ViewName is the base file name (without extension) of the
// images for the view at the given rig index.
func ViewName(idx int) string {
	return fmt.Sprintf("%03d", idx)
}

// NewManifest creates a manifest for the given rig indices.
//
// The stats slice is indexed by rig index and may be nil, in which
// case no depth ranges are recorded.
func NewManifest(rig *camerarig.Rig, in *camerarig.Intrinsics, stats []ViewStats,
	indices []int) *Manifest {
	m := &Manifest{
		CameraAngleX: in.CameraAngleX(),
		Width:        in.Width,
		Height:       in.Height,
		Fx:           in.Fx,
		Fy:           in.Fy,
		Cx:           in.Cx,
		Cy:           in.Cy,
		Frames:       make([]Frame, 0, len(indices)),
	}
	for _, idx := range indices {
		frame := Frame{
			FilePath:        ImageDir + "/" + ViewName(idx),
			DepthPath:       DepthDir + "/" + ViewName(idx),
			TransformMatrix: rig.Poses[idx].Matrix(),
		}
		if stats != nil && stats[idx].Valid > 0 {
			frame.DepthMin = stats[idx].DepthMin
			frame.DepthMax = stats[idx].DepthMax
		}
		m.Frames = append(m.Frames, frame)
	}
	return m
}

// Intrinsics returns the camera intrinsics stored in the manifest.
func (m *Manifest) Intrinsics() (*camerarig.Intrinsics, error) {
	in := &camerarig.Intrinsics{
		Width:  m.Width,
		Height: m.Height,
		Fx:     m.Fx,
		Fy:     m.Fy,
		Cx:     m.Cx,
		Cy:     m.Cy,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// WriteManifest encodes the manifest as indented JSON.
func WriteManifest(path string, m *Manifest) (err error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create manifest")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	_, err = f.Write(append(data, '\n'))
	return err
}

// ReadManifest decodes a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decode manifest %s", path)
	}
	return &m, nil
}

// Split decides which views go into the train and test manifests.
type Split struct {
	// TestEvery holds out every TestEvery-th view for testing.
	//
	// If it is 0, every view appears in both manifests.
	TestEvery int
}

// Validate rejects splits that would leave no training views.
func (s Split) Validate() error {
	if s.TestEvery < 0 || s.TestEvery == 1 {
		return errors.Errorf("invalid test interval %d", s.TestEvery)
	}
	return nil
}

// Assign returns the train and test indices for n views.
func (s Split) Assign(n int) (train, test []int) {
	train = []int{}
	test = []int{}
	for i := 0; i < n; i++ {
		if s.TestEvery == 0 {
			train = append(train, i)
			test = append(test, i)
		} else if (i+1)%s.TestEvery == 0 {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	return
}
