package main

import (
	"bytes"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/splat-prep/browse"
)

func TestRunCommands(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, imaging.Save(image.NewNRGBA(image.Rect(0, 0, 4, 2)), path))
		paths = append(paths, path)
	}
	cursor, err := browse.NewCursor(paths)
	require.NoError(t, err)

	input := "n\np\np\nj 2\nj 9\nx\ni\nq\nn\n"
	var output bytes.Buffer
	require.NoError(t, RunCommands(strings.NewReader(input), &output, dir, cursor))

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	assert.Equal(t, []string{
		"Image 1/3: a.png",
		"Image 2/3: b.png",
		"Image 1/3: a.png",
		"Image 3/3: c.png",
		"Image 2/3: b.png",
		"index 8 out of range [0, 3)",
		helpText,
		"Dataset: " + filepath.Base(dir),
		"Total Images: 3",
		"Current: 2",
		"Image: b.png",
		"Resolution: 4x2",
		"Path: " + dir,
	}, lines)
}
