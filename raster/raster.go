// Package raster projects point clouds into pinhole cameras,
// keeping the nearest point at every pixel.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/splat-prep/camerarig"
	"github.com/unixpickle/splat-prep/pointcloud"
)

// Background is the color of pixels that no point projects to.
var Background = color.RGBA{A: 0xff}

// A View is the result of rendering one camera.
type View struct {
	Width  int
	Height int

	Color *image.RGBA

	// Depth stores the camera-space depth of the visible point at
	// each pixel in row-major order, or +Inf where no point landed.
	Depth []float64

	// Valid is the number of pixels with a finite depth.
	Valid int

	// DepthMin and DepthMax bound the finite depths. Both are zero
	// for an empty view.
	DepthMin float64
	DepthMax float64
}

// Render projects every point through the camera and resolves
// visibility with a depth buffer.
//
// Points at or behind the camera plane, or whose rounded pixel is
// outside the image, are dropped. When several points land on a
// pixel, the one with the smallest depth wins; on exact ties, the
// earliest point in the cloud is kept.
func Render(cloud *pointcloud.PointCloud, pose *camerarig.Pose,
	in *camerarig.Intrinsics) (*View, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	w, h := in.Width, in.Height
	view := &View{
		Width:  w,
		Height: h,
		Color:  image.NewRGBA(image.Rect(0, 0, w, h)),
		Depth:  make([]float64, w*h),
	}
	for i := range view.Depth {
		view.Depth[i] = math.Inf(1)
	}
	winners := make([]int, w*h)
	for i := range winners {
		winners[i] = -1
	}

	worldToCamera := &model3d.Matrix3Transform{Matrix: pose.Rotation().Transpose()}
	for i, p := range cloud.Positions {
		c := worldToCamera.Apply(p.Sub(pose.Origin))
		if !(c.Z > 0) {
			continue
		}
		fu, fv := in.Project(c.X, c.Y, c.Z)
		u, v := math.RoundToEven(fu), math.RoundToEven(fv)
		if !(u >= 0 && u < float64(w) && v >= 0 && v < float64(h)) {
			continue
		}
		idx := int(v)*w + int(u)
		if c.Z < view.Depth[idx] {
			view.Depth[idx] = c.Z
			winners[idx] = i
		}
	}

	for idx, winner := range winners {
		x, y := idx%w, idx/w
		if winner < 0 {
			view.Color.SetRGBA(x, y, Background)
			continue
		}
		rgb := pointcloud.ColorBytes(cloud.Colors[winner])
		view.Color.SetRGBA(x, y, color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff})

		z := view.Depth[idx]
		if view.Valid == 0 || z < view.DepthMin {
			view.DepthMin = z
		}
		if view.Valid == 0 || z > view.DepthMax {
			view.DepthMax = z
		}
		view.Valid++
	}
	return view, nil
}

// DepthAt returns the raw depth at a pixel, or +Inf if the pixel
// is empty.
func (v *View) DepthAt(x, y int) float64 {
	return v.Depth[y*v.Width+x]
}

// DepthImage linearly maps the finite depths of the view from
// [DepthMin, DepthMax] to [0, 255]. Empty pixels are 0.
//
// If every visible point has the same depth, visible pixels are
// 255. An empty view produces an all-zero image.
func (v *View) DepthImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, v.Width, v.Height))
	if v.Valid == 0 {
		return img
	}
	span := v.DepthMax - v.DepthMin
	for idx, z := range v.Depth {
		if math.IsInf(z, 1) {
			continue
		}
		norm := 1.0
		if span > 0 {
			norm = math.Max(0, math.Min(1, (z-v.DepthMin)/span))
		}
		img.Pix[idx] = uint8(norm * 255)
	}
	return img
}
