package scene

import (
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/splat-prep/pointcloud"
)

// ReadPointCloud rebuilds a point cloud from the depth and color
// images listed in a scene manifest.
//
// Depth images only store the range between the nearest and
// farthest depth of each view, and the nearest depth shares the
// value 0 with empty pixels, so those pixels are skipped.
func ReadPointCloud(dir, manifestFile string) (*pointcloud.PointCloud, error) {
	m, err := ReadManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	in, err := m.Intrinsics()
	if err != nil {
		return nil, err
	}

	var positions []model3d.Coord3D
	var colors [][3]float64
	for i, frame := range m.Frames {
		if frame.DepthMax == 0 {
			continue
		}
		pose, err := frame.Pose()
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		depth, err := openFrameImage(dir, frame.DepthPath)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		colorImg, err := openFrameImage(dir, frame.FilePath)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		gray := imaging.Grayscale(depth)
		b := gray.Bounds()
		if b.Dx() != in.Width || b.Dy() != in.Height {
			return nil, errors.Errorf("frame %d: depth image is %dx%d but cameras are %dx%d",
				i, b.Dx(), b.Dy(), in.Width, in.Height)
		}
		span := frame.DepthMax - frame.DepthMin
		for y := 0; y < in.Height; y++ {
			for x := 0; x < in.Width; x++ {
				level := gray.NRGBAAt(b.Min.X+x, b.Min.Y+y).R
				if level == 0 {
					continue
				}
				z := frame.DepthMin + span*float64(level)/255
				cx, cy, cz := in.Unproject(float64(x), float64(y), z)
				positions = append(positions, pose.ToWorld(model3d.XYZ(cx, cy, cz)))

				r, g, bl, _ := colorImg.At(colorImg.Bounds().Min.X+x, colorImg.Bounds().Min.Y+y).RGBA()
				colors = append(colors, [3]float64{
					float64(r>>8) / 255,
					float64(g>>8) / 255,
					float64(bl>>8) / 255,
				})
			}
		}
	}
	return pointcloud.New(positions, colors)
}

func openFrameImage(dir, name string) (image.Image, error) {
	if name == "" {
		return nil, errors.New("missing image path")
	}
	path := filepath.Join(dir, filepath.FromSlash(name))
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open frame image")
	}
	return img, nil
}
