package source

import (
	"image"
	"path/filepath"
)

// Still displays one image, composed onto the canvas once at load time.
// Every tick sees the same snapshot.
type Still struct {
	name  string
	frame *image.RGBA
}

// LoadStill decodes the image at path and letterboxes it onto a
// width×height canvas.
func LoadStill(path string, width, height int) (*Still, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	return NewStill(filepath.Base(path), img, width, height), nil
}

// NewStill composes img onto the canvas under the given display name.
func NewStill(name string, img image.Image, width, height int) *Still {
	return &Still{name: name, frame: compose(img, width, height)}
}

// Frame returns the composed snapshot.
func (s *Still) Frame() *image.RGBA { return s.frame }

// Name returns the display name, usually the file's base name.
func (s *Still) Name() string { return s.name }
