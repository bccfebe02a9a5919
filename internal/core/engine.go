// Filter engine: decode, filter, name and write one output file per call
package core

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"photo-filters/internal/algorithms"
	"photo-filters/internal/io"
	"photo-filters/internal/metrics"
)

// Result describes one filter application. On failure Path equals Source and
// Err is set.
type Result struct {
	Path      string
	Source    string
	Effective string // file the pixels were taken from
	Filter    algorithms.Filter
	Chained   bool
	Metadata  ImageMetadata
	Metrics   map[string]float64
	Duration  time.Duration
	Err       error
}

// Changed reports a successful application that produced a new file.
func (r Result) Changed() bool {
	return r.Err == nil && r.Path != r.Source
}

// Engine applies filters to image files. It only reads the source file and
// always writes a new one.
type Engine struct {
	loader          *io.ImageLoader
	logger          *logrus.Logger
	evaluator       *metrics.Evaluator
	now             func() time.Time
	recoverOriginal bool
	maxDimension    int
}

type Option func(*Engine)

// WithClock replaces time.Now for output names.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithOriginalRecovery toggles looking up the pristine original behind a
// processed file when a different filter is applied to it.
func WithOriginalRecovery(enabled bool) Option {
	return func(e *Engine) {
		e.recoverOriginal = enabled
	}
}

func WithMaxDimension(maxDimension int) Option {
	return func(e *Engine) {
		e.maxDimension = maxDimension
	}
}

// WithEvaluator attaches quality metrics to each successful result.
func WithEvaluator(evaluator *metrics.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = evaluator
	}
}

func NewEngine(loader *io.ImageLoader, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		loader:          loader,
		logger:          logger,
		now:             time.Now,
		recoverOriginal: true,
		maxDimension:    DefaultMaxDimension,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs filter on the image at sourcePath and writes the output as JPEG
// next to it. Failures are logged and reported through Result.Err with
// Result.Path left at sourcePath.
func (e *Engine) Apply(sourcePath string, filter algorithms.Filter) (result Result) {
	start := time.Now()
	result = Result{
		Path:      sourcePath,
		Source:    sourcePath,
		Effective: sourcePath,
		Filter:    filter,
	}
	log := e.logger.WithFields(logrus.Fields{
		"filter": filter,
		"source": sourcePath,
	})

	defer func() {
		if r := recover(); r != nil {
			result.Path = sourcePath
			result.Err = fmt.Errorf("panic while applying %s: %v", filter, r)
			log.WithField("panic", r).Error("Filter application panicked")
		}
		result.Duration = time.Since(start)
	}()

	decoded, err := e.decode(sourcePath)
	if err != nil {
		decoded.Close()
		log.WithError(err).Error("Failed to load source image")
		result.Err = err
		return result
	}
	defer decoded.Close()

	source := decoded
	if IsOutputOf(sourcePath, filter) {
		result.Chained = true
	} else if e.recoverOriginal {
		original, path, ok := e.recoverPristine(sourcePath)
		defer original.Close()
		if ok {
			source = original
			result.Effective = path
			log.WithField("original", path).Debug("Recovered original image")
		}
	}

	if !filter.Known() {
		log.Warn("Unknown filter, copying source unchanged")
	}

	output, err := algorithms.Apply(filter, source)
	if err != nil {
		output.Close()
		log.WithError(err).Error("Filter failed")
		result.Err = err
		return result
	}
	defer output.Close()

	target, err := uniqueOutputPath(sourcePath, filter, e.now(), maxOutputAttempts)
	if err != nil {
		log.WithError(err).Error("No usable output name")
		result.Err = err
		return result
	}
	if err := e.loader.SaveImage(output, target); err != nil {
		log.WithError(err).WithField("output", target).Error("Failed to save processed image")
		result.Err = err
		return result
	}

	if e.evaluator != nil {
		result.Metrics = e.evaluator.Evaluate(source, output)
	}
	result.Path = target
	result.Metadata = Describe(output, target)

	log.WithFields(logrus.Fields{
		"output":    target,
		"effective": result.Effective,
		"chained":   result.Chained,
		"width":     result.Metadata.Width,
		"height":    result.Metadata.Height,
		"duration":  time.Since(start),
	}).Info("Filter applied")

	return result
}

func (e *Engine) decode(path string) (gocv.Mat, error) {
	mat, err := e.loader.LoadImage(path)
	if err != nil {
		return mat, err
	}
	if err := ValidateImage(mat, e.maxDimension); err != nil {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%s: %w", path, err)
	}
	return mat, nil
}

// recoverPristine loads the file a processed path was derived from, when
// stripping "_processed" names an existing, decodable image.
func (e *Engine) recoverPristine(path string) (gocv.Mat, string, bool) {
	candidate, ok := OriginalPath(path)
	if !ok || candidate == path {
		return gocv.NewMat(), "", false
	}
	if info, err := os.Stat(candidate); err != nil || info.IsDir() {
		return gocv.NewMat(), "", false
	}
	mat, err := e.decode(candidate)
	if err != nil {
		mat.Close()
		return gocv.NewMat(), "", false
	}
	return mat, candidate, true
}
