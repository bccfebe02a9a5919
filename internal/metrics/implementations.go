package metrics

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

const maxPixelValue = 255.0

// MSE implements Mean Squared Error on luma
type MSE struct{}

func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed gocv.Mat) (float64, error) {
	return meanSquaredError(original, processed)
}

func (m *MSE) GetName() string {
	return "MSE"
}

func (m *MSE) IsHigherBetter() bool {
	return false
}

// PSNR implements Peak Signal-to-Noise Ratio on luma
type PSNR struct{}

func NewPSNR() *PSNR {
	return &PSNR{}
}

// Calculate returns +Inf for identical images.
func (p *PSNR) Calculate(original, processed gocv.Mat) (float64, error) {
	mse, err := meanSquaredError(original, processed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(maxPixelValue*maxPixelValue/mse), nil
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) IsHigherBetter() bool {
	return true
}

func meanSquaredError(original, processed gocv.Mat) (float64, error) {
	if !Comparable(original, processed) {
		return 0, fmt.Errorf("image dimensions mismatch")
	}

	gray1, err := ensureGrayscale(original)
	if err != nil {
		return 0, err
	}
	defer gray1.Close()

	gray2, err := ensureGrayscale(processed)
	if err != nil {
		return 0, err
	}
	defer gray2.Close()

	pixels1 := gray1.ToBytes()
	pixels2 := gray2.ToBytes()
	if len(pixels1) == 0 || len(pixels1) != len(pixels2) {
		return 0, fmt.Errorf("unexpected pixel buffer sizes %d and %d", len(pixels1), len(pixels2))
	}

	sumSquaredDiff := 0.0
	for i := range pixels1 {
		diff := float64(pixels1[i]) - float64(pixels2[i])
		sumSquaredDiff += diff * diff
	}
	return sumSquaredDiff / float64(len(pixels1)), nil
}

// ensureGrayscale always returns a Mat owned by the caller
func ensureGrayscale(input gocv.Mat) (gocv.Mat, error) {
	if input.Channels() == 1 {
		return input.Clone(), nil
	}

	code := gocv.ColorBGRToGray
	if input.Channels() == 4 {
		code = gocv.ColorBGRAToGray
	}

	gray := gocv.NewMat()
	if err := gocv.CvtColor(input, &gray, code); err != nil {
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("convert to gray: %w", err)
	}
	return gray, nil
}
