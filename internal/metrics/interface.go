// Quality metrics comparing a filter's input with its output
package metrics

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Metric defines the interface for quality metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(original, processed gocv.Mat) (float64, error)

	GetName() string

	// IsHigherBetter returns true if higher values indicate closer images
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with MSE and PSNR registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.Register("mse", NewMSE())
	e.Register("psnr", NewPSNR())
	return e
}

func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

func (e *Evaluator) Calculate(name string, original, processed gocv.Mat) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(original, processed)
}

// Evaluate returns every metric that could be computed. Images with different
// dimensions (resize, rotate) yield an empty map.
func (e *Evaluator) Evaluate(before, after gocv.Mat) map[string]float64 {
	results := make(map[string]float64)
	if !Comparable(before, after) {
		return results
	}

	for name, metric := range e.metrics {
		if value, err := metric.Calculate(before, after); err == nil {
			results[name] = value
		}
	}
	return results
}

// Comparable reports whether two Mats share width and height.
func Comparable(a, b gocv.Mat) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return a.Rows() == b.Rows() && a.Cols() == b.Cols()
}
