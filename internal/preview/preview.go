// Display-sized copies of original and processed images
package preview

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

const DefaultMaxSize = 1024

var ErrNoPath = errors.New("no image path")

// Loader opens image files for display, shrinking anything larger than
// maxSize on either side.
type Loader struct {
	maxSize int
	logger  *logrus.Logger
}

func NewLoader(maxSize int, logger *logrus.Logger) *Loader {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Loader{maxSize: maxSize, logger: logger}
}

func (l *Loader) MaxSize() int {
	return l.maxSize
}

// Load decodes path, applying EXIF orientation, and fits it into the preview
// box keeping the aspect ratio.
func (l *Loader) Load(path string) (image.Image, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("preview %q: %w", path, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= l.maxSize && bounds.Dy() <= l.maxSize {
		return img, nil
	}

	fitted := imaging.Fit(img, l.maxSize, l.maxSize, imaging.Lanczos)
	l.logger.WithFields(logrus.Fields{
		"path":     path,
		"original": fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"preview":  fmt.Sprintf("%dx%d", fitted.Bounds().Dx(), fitted.Bounds().Dy()),
	}).Debug("Preview downscaled")

	return fitted, nil
}
