package viewer

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrImageFormat is returned for snapshot paths with an unknown extension.
var ErrImageFormat = errors.New("viewer: unsupported image format")

// encodeImage writes img to w in the format named by ext (".png", ".bmp",
// ".tif" or ".tiff").
func encodeImage(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("%w: %q", ErrImageFormat, ext)
	}
}

// writeImage encodes img into path, choosing the format from its extension.
// The file is written next to path and renamed into place.
func writeImage(path string, img image.Image) error {
	ext := filepath.Ext(path)
	if err := encodeImage(io.Discard, ext, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*"+ext)
	if err != nil {
		return fmt.Errorf("viewer: create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encodeImage(tmp, ext, img); err != nil {
		tmp.Close()
		return fmt.Errorf("viewer: encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("viewer: write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("viewer: write snapshot: %w", err)
	}
	return nil
}
