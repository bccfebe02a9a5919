// Image validation and metadata helpers
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// DefaultMaxDimension bounds either side of a decoded image.
const DefaultMaxDimension = 16384

// ImageMetadata contains image information
type ImageMetadata struct {
	Width    int
	Height   int
	Channels int
	Type     gocv.MatType
	Format   string
}

// Describe captures the shape of mat; format comes from the path extension.
func Describe(mat gocv.Mat, path string) ImageMetadata {
	return ImageMetadata{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Type:     mat.Type(),
		Format:   getFormatFromPath(path),
	}
}

// ValidateImage validates an OpenCV Mat for basic requirements
func ValidateImage(mat gocv.Mat, maxDimension int) error {
	if mat.Empty() {
		return fmt.Errorf("%w: image is empty", ErrInvalidImage)
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvalidImage, mat.Cols(), mat.Rows())
	}

	channels := mat.Channels()
	if channels != 1 && channels != 3 && channels != 4 {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidImage, channels)
	}

	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("%w: image too large %dx%d (max: %d)", ErrInvalidImage, mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}

func getFormatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
