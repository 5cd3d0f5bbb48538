package pointcloud

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// FromERP unprojects an equirectangular color image and a matching
// depth image into one point per pixel.
//
// Longitude runs from 0 to 2*pi across the width, and latitude
// from pi/2 at the top row towards -pi/2 at the bottom. Depth is
// read from the gray level of each depth pixel (0-255 for 8-bit
// images, 0-65535 for 16-bit images) and multiplied by depthScale.
func FromERP(rgb, depth image.Image, depthScale float64) (*PointCloud, error) {
	rb, db := rgb.Bounds(), depth.Bounds()
	if rb.Dx() != db.Dx() || rb.Dy() != db.Dy() {
		return nil, errors.Errorf("color image is %dx%d but depth image is %dx%d",
			rb.Dx(), rb.Dy(), db.Dx(), db.Dy())
	}
	w, h := db.Dx(), db.Dy()
	positions := make([]model3d.Coord3D, 0, w*h)
	colors := make([][3]float64, 0, w*h)
	for i := 0; i < h; i++ {
		phi := (0.5 - float64(i)/float64(h)) * math.Pi
		for j := 0; j < w; j++ {
			theta := float64(j) / float64(w) * 2 * math.Pi
			d := depthValue(depth, db.Min.X+j, db.Min.Y+i) * depthScale
			positions = append(positions, model3d.XYZ(
				d*math.Cos(phi)*math.Sin(theta),
				d*math.Sin(phi),
				d*math.Cos(phi)*math.Cos(theta),
			))
			r, g, b, _ := rgb.At(rb.Min.X+j, rb.Min.Y+i).RGBA()
			colors = append(colors, [3]float64{
				float64(r>>8) / 255,
				float64(g>>8) / 255,
				float64(b>>8) / 255,
			})
		}
	}
	return New(positions, colors)
}

func depthValue(img image.Image, x, y int) float64 {
	switch img := img.(type) {
	case *image.Gray16:
		return float64(img.Gray16At(x, y).Y)
	case *image.Gray:
		return float64(img.GrayAt(x, y).Y)
	}
	return float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
}
