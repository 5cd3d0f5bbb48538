// Package browse lists the images of a dataset directory and
// steps through them.
package browse

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DefaultPriority lists the image directories of a dataset in the
// order they are searched.
var DefaultPriority = []string{"images", "input", "images_4", "images_2"}

// IsImage checks if a file name has a supported image extension.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// FindImages returns the sorted image paths of the first directory
// in priority, relative to dir, that contains at least one image.
//
// Missing directories are skipped. If no directory has images, the
// result is empty.
func FindImages(dir string, priority []string) ([]string, error) {
	for _, sub := range priority {
		subDir := filepath.Join(dir, sub)
		entries, err := os.ReadDir(subDir)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, errors.Wrapf(err, "list %s", subDir)
		}
		var paths []string
		for _, entry := range entries {
			if !entry.IsDir() && IsImage(entry.Name()) {
				paths = append(paths, filepath.Join(subDir, entry.Name()))
			}
		}
		if len(paths) > 0 {
			sort.Strings(paths)
			return paths, nil
		}
	}
	return nil, nil
}

// A Cursor is a position in a list of images.
//
// Cursors are values: moving returns a new Cursor and leaves the
// receiver unchanged.
type Cursor struct {
	paths []string
	index int
}

// NewCursor creates a cursor at the first path.
func NewCursor(paths []string) (Cursor, error) {
	if len(paths) == 0 {
		return Cursor{}, errors.New("no images to browse")
	}
	return Cursor{paths: paths}, nil
}

func (c Cursor) Len() int {
	return len(c.paths)
}

func (c Cursor) Index() int {
	return c.index
}

func (c Cursor) Current() string {
	return c.paths[c.index]
}

// Next moves forward, wrapping to the first image.
func (c Cursor) Next() Cursor {
	c.index = (c.index + 1) % len(c.paths)
	return c
}

// Prev moves backward, wrapping to the last image.
func (c Cursor) Prev() Cursor {
	c.index = (c.index + len(c.paths) - 1) % len(c.paths)
	return c
}

// Jump moves to the zero-based index i.
func (c Cursor) Jump(i int) (Cursor, error) {
	if i < 0 || i >= len(c.paths) {
		return c, errors.Errorf("index %d out of range [0, %d)", i, len(c.paths))
	}
	c.index = i
	return c, nil
}

// Info describes a single image file.
type Info struct {
	Path   string
	Width  int
	Height int
}

// ReadInfo decodes the header of an image file.
func ReadInfo(path string) (info *Info, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return &Info{Path: path, Width: cfg.Width, Height: cfg.Height}, nil
}
