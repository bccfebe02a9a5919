// Main window: original/processed panels, filter buttons and status line
package gui

import (
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"photo-filters/internal/algorithms"
	"photo-filters/internal/core"
	"photo-filters/internal/io"
)

const (
	DefaultWidth  = 1100
	DefaultHeight = 700
)

// FilterRunner is the part of core.Pipeline the window drives.
type FilterRunner interface {
	Submit(filter algorithms.Filter) (string, error)
	SetCallbacks(onResult func(core.Update))
	Stop()
}

// PreviewLoader turns a file path into something displayable.
type PreviewLoader interface {
	Load(path string) (image.Image, error)
}

// Options carries the collaborators built by cmd/app.
type Options struct {
	Session  *core.Session
	Runner   FilterRunner
	Loader   *io.ImageLoader
	Previews PreviewLoader
	Width    float32
	Height   float32
}

// Application owns the window and keeps the panels in sync with the session.
type Application struct {
	app       fyne.App
	window    fyne.Window
	logger    *logrus.Logger
	debugMode bool

	session  *core.Session
	runner   FilterRunner
	loader   *io.ImageLoader
	previews PreviewLoader

	// latest SelectImage call; older decodes are dropped
	selections atomic.Uint64

	original    *ImagePanel
	processed   *ImagePanel
	filters     *FilterPanel
	status      *widget.Label
	openBtn     *widget.Button
	resetBtn    *widget.Button
	menuHandler *MenuHandler
}

func NewApplication(app fyne.App, opts Options, logger *logrus.Logger, debugMode bool) *Application {
	window := app.NewWindow("Photo Filters")
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	window.Resize(fyne.NewSize(width, height))
	window.CenterOnScreen()

	a := &Application{
		app:       app,
		window:    window,
		logger:    logger,
		debugMode: debugMode,
		session:   opts.Session,
		runner:    opts.Runner,
		loader:    opts.Loader,
		previews:  opts.Previews,
	}

	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()
	a.setImageControlsEnabled(false)

	return a
}

func (a *Application) initializeGUI() {
	a.original = NewImagePanel("Original")
	a.processed = NewImagePanel("Processed")
	a.filters = NewFilterPanel(algorithms.All(), a.applyFilter)
	a.status = widget.NewLabel("Open an image to start")
	a.status.Wrapping = fyne.TextWrapWord

	a.openBtn = widget.NewButton("Open Image", func() { a.menuHandler.OpenImage() })
	a.openBtn.Importance = widget.HighImportance
	a.resetBtn = widget.NewButton("Reset", a.Reset)

	a.menuHandler = NewMenuHandler(a.window, a.logger, func(path string) { a.SelectImage(path) }, a.Reset)
}

func (a *Application) setupLayout() {
	controls := container.NewVBox(
		a.openBtn,
		widget.NewSeparator(),
		widget.NewCard("Filters", "", a.filters.GetContainer()),
		a.resetBtn,
	)

	images := container.NewGridWithColumns(2,
		a.original.GetContainer(),
		a.processed.GetContainer(),
	)

	content := container.NewBorder(
		nil,        // top
		a.status,   // bottom
		controls,   // left
		nil,        // right
		images,
	)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(content)
}

func (a *Application) setupCallbacks() {
	// Runs on the pipeline worker: decode previews here, touch widgets in fyne.Do.
	a.runner.SetCallbacks(func(update core.Update) {
		img, err := a.previewFor(update)
		fyne.Do(func() {
			a.showUpdate(update, img, err)
		})
	})
}

// errSelectionSuperseded is reported when a newer selection started while
// this one was still decoding.
var errSelectionSuperseded = errors.New("selection superseded by a newer one")

// SelectImage decodes path on a background goroutine and makes it the current
// original once it loads. The returned channel receives the outcome after the
// panels are updated. Undecodable files are refused and the previous
// selection is kept.
func (a *Application) SelectImage(path string) <-chan error {
	seq := a.selections.Add(1)
	done := make(chan error, 1)
	a.updateStatusMessage(fmt.Sprintf("Loading %s...", path))

	go func() {
		img, err := a.loadSelection(path)
		fyne.Do(func() {
			done <- a.showSelection(seq, path, img, err)
		})
	}()
	return done
}

// loadSelection runs off the UI thread.
func (a *Application) loadSelection(path string) (image.Image, error) {
	if a.loader != nil {
		if err := a.loader.ValidateImageFile(path); err != nil {
			return nil, err
		}
	}
	return a.previews.Load(path)
}

// showSelection must run on the UI thread.
func (a *Application) showSelection(seq uint64, path string, img image.Image, err error) error {
	if seq != a.selections.Load() {
		a.logger.WithField("path", path).Debug("Dropping superseded selection")
		return errSelectionSuperseded
	}
	if err != nil {
		a.showError("Failed to Load Image", err)
		return err
	}

	a.session.Select(path)
	a.original.SetImage(img)
	a.processed.SetImage(img)
	a.setImageControlsEnabled(true)
	a.updateStatusMessage(fmt.Sprintf("Loaded: %s", path))

	a.logger.WithField("path", path).Info("Image selected")
	return nil
}

// Reset shows the original again and forgets the chaining state.
func (a *Application) Reset() {
	if !a.session.HasImage() {
		return
	}
	a.session.Reset()
	a.processed.SetImage(a.original.Image())
	a.updateStatusMessage("Reset to original image")
	a.logger.Debug("Session reset")
}

func (a *Application) applyFilter(filter algorithms.Filter) {
	id, err := a.runner.Submit(filter)
	switch {
	case errors.Is(err, core.ErrQueueFull):
		a.updateStatusMessage("Busy: too many pending requests, try again")
		return
	case errors.Is(err, core.ErrNoImage):
		a.updateStatusMessage("Open an image first")
		return
	case err != nil:
		a.showError("Processing Error", err)
		return
	}

	a.logger.WithFields(logrus.Fields{
		"request_id": id,
		"filter":     filter,
	}).Debug("Filter requested")
	a.updateStatusMessage(fmt.Sprintf("Applying %s...", filter.Label()))
}

func (a *Application) previewFor(update core.Update) (image.Image, error) {
	if update.Stale || update.Result.Path == "" {
		return nil, nil
	}
	return a.previews.Load(update.Result.Path)
}

// showUpdate must run on the UI thread.
func (a *Application) showUpdate(update core.Update, img image.Image, previewErr error) {
	label := update.Filter.Label()

	switch {
	case update.Stale:
		a.updateStatusMessage(fmt.Sprintf("%s result discarded: image changed meanwhile", label))
		return
	case previewErr != nil:
		a.logger.WithError(previewErr).WithField("path", update.Result.Path).Warn("Preview failed")
		a.updateStatusMessage(fmt.Sprintf("%s: cannot display %s", label, update.Result.Path))
		return
	}

	if img != nil {
		a.processed.SetImage(img)
	}

	if update.Err != nil {
		a.updateStatusMessage(fmt.Sprintf("%s failed, no change: %v", label, update.Err))
		return
	}

	message := fmt.Sprintf("%s saved to %s", label, filepath.Base(update.Result.Path))
	if psnr, ok := update.Result.Metrics["psnr"]; ok {
		message += " (" + formatPSNR(psnr) + ")"
	}
	a.updateStatusMessage(message)
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "PSNR ∞"
	}
	return fmt.Sprintf("PSNR %.2f dB", psnr)
}

func (a *Application) setImageControlsEnabled(enabled bool) {
	a.filters.SetEnabled(enabled)
	if enabled {
		a.resetBtn.Enable()
	} else {
		a.resetBtn.Disable()
	}
}

func (a *Application) updateStatusMessage(message string) {
	a.status.SetText(message)
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}

func (a *Application) Window() fyne.Window {
	return a.window
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	a.runner.Stop()
}
