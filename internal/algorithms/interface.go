// Filter registry backed by OpenCV transforms
package algorithms

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrEmptyInput is returned when a transform receives an empty Mat.
var ErrEmptyInput = errors.New("input image is empty")

// Algorithm is a single pixel transform. Apply never modifies its input and
// the caller owns the returned Mat.
type Algorithm interface {
	Apply(input gocv.Mat) (gocv.Mat, error)
	GetName() string
	GetDescription() string
}

type algorithm struct {
	name        string
	description string
	apply       func(input gocv.Mat) (gocv.Mat, error)
}

func (a algorithm) Apply(input gocv.Mat) (gocv.Mat, error) {
	return a.apply(input)
}

func (a algorithm) GetName() string {
	return a.name
}

func (a algorithm) GetDescription() string {
	return a.description
}

var algorithms = make(map[Filter]Algorithm)

func Register(filter Filter, algorithm Algorithm) {
	algorithms[filter] = algorithm
}

func Get(filter Filter) (Algorithm, bool) {
	algorithm, exists := algorithms[filter]
	return algorithm, exists
}

// Apply runs the transform registered for filter. Unregistered filters are an
// identity copy of the input.
func Apply(filter Filter, input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), ErrEmptyInput
	}

	algorithm, exists := algorithms[filter]
	if !exists {
		return input.Clone(), nil
	}

	output, err := algorithm.Apply(input)
	if err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("%s: %w", filter, err)
	}
	return output, nil
}

func init() {
	Register(Grayscale, algorithm{"Grayscale", "Convert to single-channel luma", grayscale})
	Register(Invert, algorithm{"Invert", "Bitwise complement of every sample", invert})
	Register(Contrast, algorithm{"Contrast", "Linear gain of 1.5 per channel", contrast})
	Register(Blur, algorithm{"Blur", "5x5 Gaussian smoothing", blur})
	Register(Sharpen, algorithm{"Sharpen", "3x3 sharpening kernel", sharpen})
	Register(Edges, algorithm{"Edges", "Canny edge detection (100/200)", edges})
	Register(Sepia, algorithm{"Sepia", "Warm brown colour mix", sepia})
	Register(ResizeHalf, algorithm{"Half Size", "Scale both dimensions by 0.5", resizeHalf})
	Register(Rotate90CW, algorithm{"Rotate Right", "Rotate 90 degrees clockwise", rotateClockwise})
	Register(Rotate90CCW, algorithm{"Rotate Left", "Rotate 90 degrees counter-clockwise", rotateCounterClockwise})
}
