// OpenCV implementations of the fixed filter set
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

const (
	contrastGain = 1.5
	blurKernel   = 5

	cannyLow  = 100
	cannyHigh = 200
)

var sharpenKernel = [3][3]float32{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

// Rows produce (B, G, R) from an (R, G, B) input vector.
var sepiaKernel = [3][3]float32{
	{0.272, 0.534, 0.131},
	{0.349, 0.686, 0.168},
	{0.393, 0.769, 0.189},
}

func grayscale(input gocv.Mat) (gocv.Mat, error) {
	if input.Channels() == 1 {
		return input.Clone(), nil
	}
	return toGray(input)
}

func invert(input gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	if err := gocv.BitwiseNot(input, &output); err != nil {
		return output, err
	}
	return output, nil
}

func contrast(input gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	if err := input.ConvertToWithParams(&output, input.Type(), contrastGain, 0); err != nil {
		return output, err
	}
	return output, nil
}

func blur(input gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	err := gocv.GaussianBlur(input, &output, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)
	return output, err
}

func sharpen(input gocv.Mat) (gocv.Mat, error) {
	kernel := newKernel(sharpenKernel)
	defer kernel.Close()

	output := gocv.NewMat()
	err := gocv.Filter2D(input, &output, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
	return output, err
}

func edges(input gocv.Mat) (gocv.Mat, error) {
	gray, err := grayscale(input)
	defer gray.Close()
	if err != nil {
		return gocv.NewMat(), err
	}

	// Default aperture (3) and L1 gradient.
	output := gocv.NewMat()
	err = gocv.Canny(gray, &output, cannyLow, cannyHigh)
	return output, err
}

func sepia(input gocv.Mat) (gocv.Mat, error) {
	rgb, err := toRGB(input)
	defer rgb.Close()
	if err != nil {
		return gocv.NewMat(), err
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	if err := rgb.ConvertToWithParams(&scaled, gocv.MatTypeCV32F, 1.0/255.0, 0); err != nil {
		return gocv.NewMat(), fmt.Errorf("scale to float: %w", err)
	}

	kernel := newKernel(sepiaKernel)
	defer kernel.Close()

	mixed := gocv.NewMat()
	defer mixed.Close()
	if err := gocv.Transform(scaled, &mixed, kernel); err != nil {
		return gocv.NewMat(), fmt.Errorf("colour transform: %w", err)
	}

	output := gocv.NewMat()
	if err := mixed.ConvertToWithParams(&output, gocv.MatTypeCV8U, 255, 0); err != nil {
		return output, fmt.Errorf("scale to 8-bit: %w", err)
	}
	return output, nil
}

func resizeHalf(input gocv.Mat) (gocv.Mat, error) {
	size := image.Pt(max(1, (input.Cols()+1)/2), max(1, (input.Rows()+1)/2))

	output := gocv.NewMat()
	err := gocv.Resize(input, &output, size, 0, 0, gocv.InterpolationLinear)
	return output, err
}

func rotateClockwise(input gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	err := gocv.Rotate(input, &output, gocv.Rotate90Clockwise)
	return output, err
}

func rotateCounterClockwise(input gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	err := gocv.Rotate(input, &output, gocv.Rotate90CounterClockwise)
	return output, err
}

func toGray(input gocv.Mat) (gocv.Mat, error) {
	code := gocv.ColorBGRToGray
	if input.Channels() == 4 {
		code = gocv.ColorBGRAToGray
	}

	output := gocv.NewMat()
	if err := gocv.CvtColor(input, &output, code); err != nil {
		return output, fmt.Errorf("convert to gray: %w", err)
	}
	return output, nil
}

func toRGB(input gocv.Mat) (gocv.Mat, error) {
	var code gocv.ColorConversionCode
	switch input.Channels() {
	case 1:
		// Gray replicates into every channel, so BGR and RGB are identical.
		code = gocv.ColorGrayToBGR
	case 4:
		code = gocv.ColorBGRAToRGB
	default:
		code = gocv.ColorBGRToRGB
	}

	output := gocv.NewMat()
	if err := gocv.CvtColor(input, &output, code); err != nil {
		return output, fmt.Errorf("convert to rgb: %w", err)
	}
	return output, nil
}

func newKernel(values [3][3]float32) gocv.Mat {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for row := range values {
		for col, value := range values[row] {
			kernel.SetFloatAt(row, col, value)
		}
	}
	return kernel
}
