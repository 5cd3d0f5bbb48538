package raster

import (
	"context"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/splat-prep/camerarig"
	"github.com/unixpickle/splat-prep/pointcloud"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func TestRenderSinglePoint(t *testing.T) {
	cloud := testCloud(t, []model3d.Coord3D{model3d.XYZ(0, 0, 2)}, [][3]float64{{1, 0, 0}})
	pose := lookAt(t, model3d.XYZ(0, 0, 5), model3d.Coord3D{})
	in := &camerarig.Intrinsics{Width: 256, Height: 256, Fx: 128, Fy: 128, Cx: 128, Cy: 128}

	view, err := Render(cloud, pose, in)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Valid)
	assert.Equal(t, 3.0, view.DepthMin)
	assert.Equal(t, 3.0, view.DepthMax)

	depth := view.DepthImage()
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			if x == 128 && y == 128 {
				assert.Equal(t, red, view.Color.RGBAAt(x, y))
				assert.Equal(t, uint8(255), depth.GrayAt(x, y).Y)
				assert.Equal(t, 3.0, view.DepthAt(x, y))
				continue
			}
			if view.Color.RGBAAt(x, y) != Background || depth.GrayAt(x, y).Y != 0 {
				t.Fatalf("unexpected pixel at (%d, %d)", x, y)
			}
			if !math.IsInf(view.DepthAt(x, y), 1) {
				t.Fatalf("unexpected depth at (%d, %d)", x, y)
			}
		}
	}
}

func TestRenderNearestWins(t *testing.T) {
	pose := lookAt(t, model3d.Coord3D{}, model3d.XYZ(0, 0, 1))
	in := &camerarig.Intrinsics{Width: 8, Height: 8, Fx: 4, Fy: 4, Cx: 4, Cy: 4}

	far := model3d.XYZ(0, 0, 5)
	near := model3d.XYZ(0, 0, 1)
	orders := map[string]*pointcloud.PointCloud{
		"near first": testCloud(t, []model3d.Coord3D{near, far}, [][3]float64{{1, 0, 0}, {0, 0, 1}}),
		"far first":  testCloud(t, []model3d.Coord3D{far, near}, [][3]float64{{0, 0, 1}, {1, 0, 0}}),
	}
	for name, cloud := range orders {
		t.Run(name, func(t *testing.T) {
			view, err := Render(cloud, pose, in)
			require.NoError(t, err)
			assert.Equal(t, red, view.Color.RGBAAt(4, 4))
			assert.Equal(t, 1.0, view.DepthAt(4, 4))
			assert.Equal(t, 1, view.Valid)
		})
	}

	t.Run("tie keeps first", func(t *testing.T) {
		cloud := testCloud(t,
			[]model3d.Coord3D{model3d.XYZ(0, 0, 2), model3d.XYZ(0.01, 0, 2)},
			[][3]float64{{0, 1, 0}, {1, 0, 0}},
		)
		view, err := Render(cloud, pose, in)
		require.NoError(t, err)
		assert.Equal(t, green, view.Color.RGBAAt(4, 4))
	})
}

func TestRenderBounds(t *testing.T) {
	pose := lookAt(t, model3d.Coord3D{}, model3d.XYZ(0, 0, 1))
	in := &camerarig.Intrinsics{Width: 10, Height: 10, Fx: 10, Fy: 10}

	cloud := testCloud(t,
		[]model3d.Coord3D{
			model3d.XYZ(1, 0, 1),
			model3d.XYZ(0, 1, 1),
			model3d.XYZ(-0.1, 0, 1),
			model3d.XYZ(0.9, 0.9, 1),
			model3d.XYZ(0.5, 0.5, -1),
			model3d.XYZ(0.5, 0.5, 0),
		},
		[][3]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {0, 0, 1}, {1, 1, 1}, {1, 1, 1}},
	)
	view, err := Render(cloud, pose, in)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Valid)
	assert.Equal(t, blue, view.Color.RGBAAt(9, 9))
}

func TestRenderCube(t *testing.T) {
	in := &camerarig.Intrinsics{Width: 256, Height: 256, Fx: 128, Fy: 128, Cx: 128, Cy: 128}
	pose := lookAt(t, model3d.XYZ(0, 0, 5), model3d.Coord3D{})

	var corners []model3d.Coord3D
	var colors [][3]float64
	for i := 0; i < 8; i++ {
		corners = append(corners, model3d.XYZ(
			float64(i&1)-0.5,
			float64((i>>1)&1)-0.5,
			float64((i>>2)&1)-0.5,
		))
		colors = append(colors, [3]float64{float64(i+1) / 10, 0.5, 0.5})
	}
	view, err := Render(testCloud(t, corners, colors), pose, in)
	require.NoError(t, err)
	require.Equal(t, 8, view.Valid)

	for i, c := range corners {
		// The camera looks down -Z, so its right vector is -X.
		x, y, z := -c.X, c.Y, 5-c.Z
		expectedU := 128*x/z + 128
		expectedV := 128*y/z + 128

		target := pointcloud.ColorBytes(colors[i])
		found := false
		for v := 0; v < 256 && !found; v++ {
			for u := 0; u < 256; u++ {
				px := view.Color.RGBAAt(u, v)
				if px.R == target[0] && px.G == target[1] && px.B == target[2] {
					assert.InDelta(t, expectedU, float64(u), 1, "corner %d", i)
					assert.InDelta(t, expectedV, float64(v), 1, "corner %d", i)
					assert.InDelta(t, z, view.DepthAt(u, v), 1e-9)
					found = true
					break
				}
			}
		}
		assert.True(t, found, "corner %d not rendered", i)
	}
}

func TestRenderEmpty(t *testing.T) {
	pose := lookAt(t, model3d.XYZ(0, 0, 5), model3d.Coord3D{})
	in := camerarig.DefaultIntrinsics(16, 8)

	view, err := Render(testCloud(t, nil, nil), pose, in)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Valid)
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			assert.Equal(t, Background, view.Color.RGBAAt(x, y))
		}
	}
	depth := view.DepthImage()
	for _, p := range depth.Pix {
		assert.Equal(t, uint8(0), p)
	}
}

func TestDepthImage(t *testing.T) {
	pose := lookAt(t, model3d.Coord3D{}, model3d.XYZ(0, 0, 1))
	in := &camerarig.Intrinsics{Width: 3, Height: 1, Fx: 1, Fy: 1, Cx: 1, Cy: 0}
	cloud := testCloud(t,
		[]model3d.Coord3D{model3d.XYZ(-2, 0, 2), model3d.XYZ(0, 0, 3), model3d.XYZ(4, 0, 4)},
		[][3]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
	)
	view, err := Render(cloud, pose, in)
	require.NoError(t, err)
	require.Equal(t, 3, view.Valid)
	assert.Equal(t, 2.0, view.DepthMin)
	assert.Equal(t, 4.0, view.DepthMax)
	assert.Equal(t, []uint8{0, 127, 255}, view.DepthImage().Pix)
}

func TestRenderInvalidIntrinsics(t *testing.T) {
	pose := lookAt(t, model3d.XYZ(0, 0, 5), model3d.Coord3D{})
	for _, in := range []*camerarig.Intrinsics{
		{Width: 4, Height: 4, Fx: 0, Fy: 1},
		{Width: 4, Height: 4, Fx: 1, Fy: 0},
		{Width: 0, Height: 4, Fx: 1, Fy: 1},
	} {
		_, err := Render(testCloud(t, nil, nil), pose, in)
		assert.True(t, errors.Is(err, camerarig.ErrInvalidIntrinsics))
	}
}

func TestRenderAll(t *testing.T) {
	cloud := testCloud(t,
		[]model3d.Coord3D{model3d.XYZ(0, 0, 0), model3d.XYZ(0.2, 0.1, -0.3)},
		[][3]float64{{1, 0, 0}, {0, 1, 0}},
	)
	rig, err := camerarig.NewRig(&camerarig.RigConfig{Views: 5, Radii: []float64{2, 4}})
	require.NoError(t, err)
	in := camerarig.DefaultIntrinsics(32, 16)

	t.Run("all views", func(t *testing.T) {
		var lock sync.Mutex
		views := map[int]*View{}
		err := RenderAll(context.Background(), cloud, rig, in, 3, func(idx int, v *View) error {
			lock.Lock()
			defer lock.Unlock()
			views[idx] = v
			return nil
		})
		require.NoError(t, err)
		require.Len(t, views, 10)
		for idx, v := range views {
			expected, err := Render(cloud, rig.Poses[idx], in)
			require.NoError(t, err)
			assert.Equal(t, expected, v)
		}
	})

	t.Run("callback error", func(t *testing.T) {
		err := RenderAll(context.Background(), cloud, rig, in, 2, func(idx int, v *View) error {
			return errors.New("disk full")
		})
		assert.EqualError(t, err, "disk full")
	})

	t.Run("invalid intrinsics", func(t *testing.T) {
		called := false
		err := RenderAll(context.Background(), cloud, rig, &camerarig.Intrinsics{Width: 4, Height: 4},
			0, func(idx int, v *View) error {
				called = true
				return nil
			})
		assert.True(t, errors.Is(err, camerarig.ErrInvalidIntrinsics))
		assert.False(t, called)
	})
}

func testCloud(t *testing.T, positions []model3d.Coord3D, colors [][3]float64) *pointcloud.PointCloud {
	cloud, err := pointcloud.New(positions, colors)
	require.NoError(t, err)
	return cloud
}

func lookAt(t *testing.T, pos, target model3d.Coord3D) *camerarig.Pose {
	pose, err := camerarig.LookAt(pos, target, camerarig.YUp)
	require.NoError(t, err)
	return pose
}
