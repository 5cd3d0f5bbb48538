package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/splat-prep/camerarig"
	"github.com/unixpickle/splat-prep/pointcloud"
)

func TestSplit(t *testing.T) {
	train, test := Split{}.Assign(3)
	assert.Equal(t, []int{0, 1, 2}, train)
	assert.Equal(t, []int{0, 1, 2}, test)

	train, test = Split{TestEvery: 3}.Assign(7)
	assert.Equal(t, []int{0, 1, 3, 4, 6}, train)
	assert.Equal(t, []int{2, 5}, test)

	train, test = Split{}.Assign(0)
	assert.Empty(t, train)
	assert.Empty(t, test)

	assert.NoError(t, Split{}.Validate())
	assert.NoError(t, Split{TestEvery: 2}.Validate())
	assert.Error(t, Split{TestEvery: 1}.Validate())
	assert.Error(t, Split{TestEvery: -2}.Validate())
}

func TestNewManifest(t *testing.T) {
	rig := testRig(t, 2, []float64{3, 6})
	in := camerarig.DefaultIntrinsics(64, 32)
	stats := []ViewStats{
		{Valid: 3, DepthMin: 1, DepthMax: 2},
		{},
		{Valid: 1, DepthMin: 4, DepthMax: 4},
		{Valid: 2, DepthMin: 5, DepthMax: 7},
	}
	m := NewManifest(rig, in, stats, []int{1, 2})
	require.Len(t, m.Frames, 2)
	assert.Equal(t, "images/001", m.Frames[0].FilePath)
	assert.Equal(t, "depths/002", m.Frames[1].DepthPath)
	assert.Equal(t, 0.0, m.Frames[0].DepthMax)
	assert.Equal(t, 4.0, m.Frames[1].DepthMin)
	assert.Equal(t, rig.Poses[2].Matrix(), m.Frames[1].TransformMatrix)
	assert.Equal(t, 64, m.Width)
	assert.Equal(t, 32.0, m.Fx)

	parsedIn, err := m.Intrinsics()
	require.NoError(t, err)
	assert.Equal(t, in, parsedIn)

	pose, err := m.Frames[1].Pose()
	require.NoError(t, err)
	assert.Equal(t, rig.Poses[2], pose)
}

func TestWriter(t *testing.T) {
	cloud := testSceneCloud(t)
	rig := testRig(t, 4, []float64{3, 6})
	in := camerarig.DefaultIntrinsics(32, 16)

	dir := t.TempDir()
	w := NewWriter(dir)
	w.Workers = 2
	summary, err := w.Write(context.Background(), cloud, rig, in)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Views: 8, Train: 8, Test: 8}, summary)

	for i := 0; i < 8; i++ {
		for _, sub := range []string{ImageDir, DepthDir} {
			f, err := os.Open(filepath.Join(dir, sub, fmt.Sprintf("%03d.png", i)))
			require.NoError(t, err)
			cfg, _, err := image.DecodeConfig(f)
			f.Close()
			require.NoError(t, err)
			assert.Equal(t, 32, cfg.Width)
			assert.Equal(t, 16, cfg.Height)
		}
	}

	for _, name := range []string{TrainFile, TestFile} {
		m, err := ReadManifest(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Len(t, m.Frames, 8)
		for i, frame := range m.Frames {
			assert.Equal(t, rig.Poses[i].Matrix(), frame.TransformMatrix)
		}
	}

	// Downstream trainers only rely on frames[].transform_matrix.
	data, err := os.ReadFile(filepath.Join(dir, TrainFile))
	require.NoError(t, err)
	var raw struct {
		Frames []struct {
			TransformMatrix [][]float64 `json:"transform_matrix"`
		} `json:"frames"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Frames, 8)
	require.Len(t, raw.Frames[0].TransformMatrix, 4)
	for _, row := range raw.Frames[0].TransformMatrix {
		assert.Len(t, row, 4)
	}
	assert.Equal(t, []float64{0, 0, 0, 1}, raw.Frames[0].TransformMatrix[3])
}

func TestWriterHoldOut(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.Split = Split{TestEvery: 4}
	summary, err := w.Write(context.Background(), testSceneCloud(t), testRig(t, 4, []float64{3, 6}),
		camerarig.DefaultIntrinsics(16, 16))
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Train)
	assert.Equal(t, 2, summary.Test)

	test, err := ReadManifest(filepath.Join(dir, TestFile))
	require.NoError(t, err)
	require.Len(t, test.Frames, 2)
	assert.Equal(t, "images/003", test.Frames[0].FilePath)
	assert.Equal(t, "images/007", test.Frames[1].FilePath)
}

func TestWriterEmpty(t *testing.T) {
	t.Run("no views", func(t *testing.T) {
		dir := t.TempDir()
		summary, err := NewWriter(dir).Write(context.Background(), testSceneCloud(t),
			testRig(t, 0, []float64{1}), camerarig.DefaultIntrinsics(8, 8))
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Views)

		data, err := os.ReadFile(filepath.Join(dir, TrainFile))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"frames": []`)
	})

	t.Run("no points", func(t *testing.T) {
		cloud, err := pointcloud.New(nil, nil)
		require.NoError(t, err)
		summary, err := NewWriter(t.TempDir()).Write(context.Background(), cloud,
			testRig(t, 2, []float64{1}), camerarig.DefaultIntrinsics(8, 8))
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Empty)
	})

	t.Run("invalid intrinsics", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "scene")
		_, err := NewWriter(dir).Write(context.Background(), testSceneCloud(t),
			testRig(t, 2, []float64{1}), &camerarig.Intrinsics{Width: 8, Height: 8})
		assert.Error(t, err)
		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestReadPointCloud(t *testing.T) {
	cloud := testSceneCloud(t)
	rig := testRig(t, 6, []float64{4})
	dir := t.TempDir()
	_, err := NewWriter(dir).Write(context.Background(), cloud, rig, camerarig.DefaultIntrinsics(64, 64))
	require.NoError(t, err)

	rebuilt, err := ReadPointCloud(dir, TrainFile)
	require.NoError(t, err)
	require.NotZero(t, rebuilt.Len())
	for i, p := range rebuilt.Positions {
		nearest := 0
		for j, q := range cloud.Positions {
			if p.Dist(q) < p.Dist(cloud.Positions[nearest]) {
				nearest = j
			}
		}
		assert.Less(t, p.Dist(cloud.Positions[nearest]), 0.2, "point %d", i)
		assert.Equal(t, pointcloud.ColorBytes(cloud.Colors[nearest]),
			pointcloud.ColorBytes(rebuilt.Colors[i]))
	}
}

func testRig(t *testing.T, views int, radii []float64) *camerarig.Rig {
	rig, err := camerarig.NewRig(&camerarig.RigConfig{Views: views, Radii: radii})
	require.NoError(t, err)
	return rig
}

func testSceneCloud(t *testing.T) *pointcloud.PointCloud {
	cloud, err := pointcloud.New(
		[]model3d.Coord3D{
			model3d.XYZ(0, 0, 0),
			model3d.XYZ(0.5, 0.2, -0.3),
			model3d.XYZ(-0.4, 0.3, 0.4),
			model3d.XYZ(0.1, -0.5, 0.2),
		},
		[][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}},
	)
	require.NoError(t, err)
	return cloud
}
