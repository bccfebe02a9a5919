// Image decoding and JPEG encoding on top of OpenCV
package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDecode            = errors.New("failed to decode image")
	ErrEncode            = errors.New("failed to encode image")
)

// DefaultJPEGQuality matches the OpenCV encoder default.
const DefaultJPEGQuality = 95

// supportedExtensions are the formats SaveImage writes.
var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// browsableExtensions feed the open dialog. Loading itself is not restricted
// by extension; OpenCV decides.
var browsableExtensions = append(append([]string{}, supportedExtensions...),
	".jpe", ".jp2", ".pbm", ".pgm", ".ppm", ".pnm", ".pfm", ".exr", ".hdr", ".pic", ".ras", ".sr", ".dib")

// ImageLoader handles image file operations
type ImageLoader struct {
	logger      *logrus.Logger
	jpegQuality int
}

func NewImageLoader(logger *logrus.Logger, jpegQuality int) *ImageLoader {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &ImageLoader{
		logger:      logger,
		jpegQuality: jpegQuality,
	}
}

// LoadImage decodes path with whatever codec OpenCV picks from the file
// contents. Single-channel files stay single-channel, colour files load as
// 3-channel BGR.
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if path == "" {
		return gocv.NewMat(), fmt.Errorf("%w: empty path", ErrDecode)
	}

	mat := gocv.IMRead(path, gocv.IMReadAnyColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrDecode, path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("Image loaded")

	return mat, nil
}

// SaveImage writes mat to path. JPEG targets use the configured quality.
func (il *ImageLoader) SaveImage(mat gocv.Mat, path string) error {
	il.logger.WithField("filepath", path).Debug("Saving image")

	if mat.Empty() {
		return fmt.Errorf("%w: cannot save empty image", ErrEncode)
	}

	if !IsSupportedImageFormat(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if info, err := os.Stat(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrEncode, filepath.Dir(path))
	}

	var ok bool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		ok = gocv.IMWriteWithParams(path, mat, []int{gocv.IMWriteJpegQuality, il.jpegQuality})
	default:
		ok = gocv.IMWrite(path, mat)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrEncode, path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("Image saved")

	return nil
}

// ValidateImageFile reports whether path decodes to a non-empty raster.
func (il *ImageLoader) ValidateImageFile(path string) error {
	mat, err := il.LoadImage(path)
	defer mat.Close()
	return err
}

// IsSupportedImageFormat reports whether SaveImage can write path. It checks
// the file extension only.
func IsSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedExtensions {
		if ext == format {
			return true
		}
	}
	return false
}

// SupportedExtensions returns the writable extensions, lower-case with a leading dot.
func SupportedExtensions() []string {
	result := make([]string, len(supportedExtensions))
	copy(result, supportedExtensions)
	return result
}

// BrowsableExtensions returns the extensions offered by the open dialog.
func BrowsableExtensions() []string {
	result := make([]string, len(browsableExtensions))
	copy(result, browsableExtensions)
	return result
}
