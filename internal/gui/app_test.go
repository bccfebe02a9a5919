package gui

import (
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-filters/internal/algorithms"
	"photo-filters/internal/core"
	"photo-filters/internal/io"
	"photo-filters/internal/preview"
)

type fakeRunner struct {
	mu        sync.Mutex
	submitted []algorithms.Filter
	err       error
	callback  func(core.Update)
	stopped   bool
}

func (f *fakeRunner) Submit(filter algorithms.Filter) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.submitted = append(f.submitted, filter)
	return "req-1", nil
}

func (f *fakeRunner) SetCallbacks(onResult func(core.Update)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = onResult
}

func (f *fakeRunner) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

// gatedPreviews blocks Load for a path until its gate is closed.
type gatedPreviews struct {
	next    PreviewLoader
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newGatedPreviews(next PreviewLoader, paths ...string) *gatedPreviews {
	g := &gatedPreviews{next: next, gates: map[string]chan struct{}{}, started: make(chan string, 8)}
	for _, path := range paths {
		g.gates[path] = make(chan struct{})
	}
	return g
}

func (g *gatedPreviews) Load(path string) (image.Image, error) {
	g.mu.Lock()
	gate := g.gates[path]
	g.mu.Unlock()

	g.started <- path
	if gate != nil {
		<-gate
	}
	return g.next.Load(path)
}

func (g *gatedPreviews) release(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[path])
}

func waitSelection(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for image selection")
		return nil
	}
}

func newTestApplication(t *testing.T) (*Application, *fakeRunner, *core.Session) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	return newTestApplicationWith(t, preview.NewLoader(64, logger))
}

func newTestApplicationWith(t *testing.T, previews PreviewLoader) (*Application, *fakeRunner, *core.Session) {
	t.Helper()
	fyneApp := test.NewApp()
	t.Cleanup(fyneApp.Quit)

	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	runner := &fakeRunner{}
	session := core.NewSession()
	app := NewApplication(fyneApp, Options{
		Session:  session,
		Runner:   runner,
		Loader:   io.NewImageLoader(logger, io.DefaultJPEGQuality),
		Previews: previews,
	}, logger, true)

	return app, runner, session
}

func writeFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	img := imaging.New(40, 20, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestControlsDisabledUntilImageSelected(t *testing.T) {
	app, runner, session := newTestApplication(t)

	for _, filter := range algorithms.All() {
		assert.True(t, app.filters.Button(filter).Disabled(), filter)
	}
	assert.True(t, app.resetBtn.Disabled())
	assert.NotNil(t, runner.callback)

	path := writeFixture(t, "photo.png")
	require.NoError(t, waitSelection(t, app.SelectImage(path)))

	for _, filter := range algorithms.All() {
		assert.False(t, app.filters.Button(filter).Disabled(), filter)
	}
	assert.False(t, app.resetBtn.Disabled())
	assert.Equal(t, path, session.Snapshot().Original)
	require.NotNil(t, app.original.Image())
	assert.Equal(t, 40, app.original.Image().Bounds().Dx())
	assert.Contains(t, app.status.Text, "photo.png")
}

func TestSelectImageRejectsUndecodableFile(t *testing.T) {
	app, _, session := newTestApplication(t)

	done := app.SelectImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, waitSelection(t, done))
	assert.False(t, session.HasImage())
	assert.True(t, app.resetBtn.Disabled())
	assert.Contains(t, app.status.Text, "Error")
}

func TestSelectImageDecodesOffTheCaller(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	path := writeFixture(t, "photo.png")
	previews := newGatedPreviews(preview.NewLoader(64, logger), path)
	app, _, session := newTestApplicationWith(t, previews)

	done := app.SelectImage(path)
	assert.Equal(t, path, <-previews.started)

	assert.False(t, session.HasImage())
	assert.Contains(t, app.status.Text, "Loading")
	assert.True(t, app.resetBtn.Disabled())
	assert.Nil(t, app.original.Image())

	previews.release(path)
	require.NoError(t, waitSelection(t, done))
	assert.Equal(t, path, session.Snapshot().Original)
	assert.False(t, app.resetBtn.Disabled())
	assert.Contains(t, app.status.Text, "Loaded")
}

func TestSelectImageKeepsNewestSelection(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	slow := writeFixture(t, "slow.png")
	fast := writeFixture(t, "fast.png")
	previews := newGatedPreviews(preview.NewLoader(64, logger), slow)
	app, _, session := newTestApplicationWith(t, previews)

	slowDone := app.SelectImage(slow)
	assert.Equal(t, slow, <-previews.started)

	require.NoError(t, waitSelection(t, app.SelectImage(fast)))
	assert.Equal(t, fast, session.Snapshot().Original)

	previews.release(slow)
	assert.ErrorIs(t, waitSelection(t, slowDone), errSelectionSuperseded)
	assert.Equal(t, fast, session.Snapshot().Original)
	assert.Contains(t, app.status.Text, "fast.png")
}

func TestFilterButtonSubmits(t *testing.T) {
	app, runner, _ := newTestApplication(t)
	require.NoError(t, waitSelection(t, app.SelectImage(writeFixture(t, "photo.png"))))

	test.Tap(app.filters.Button(algorithms.Sepia))
	test.Tap(app.filters.Button(algorithms.Sepia))

	assert.Equal(t, []algorithms.Filter{algorithms.Sepia, algorithms.Sepia}, runner.submitted)
	assert.Contains(t, app.status.Text, "Sepia")
}

func TestFilterButtonQueueFull(t *testing.T) {
	app, runner, _ := newTestApplication(t)
	require.NoError(t, waitSelection(t, app.SelectImage(writeFixture(t, "photo.png"))))
	runner.err = core.ErrQueueFull

	test.Tap(app.filters.Button(algorithms.Blur))
	assert.Contains(t, app.status.Text, "Busy")
}

func TestShowUpdate(t *testing.T) {
	source := writeFixture(t, "photo.png")
	output := filepath.Join(filepath.Dir(source), "photo_invert_1_processed.jpg")
	require.NoError(t, imaging.Save(imaging.New(20, 40, color.White), output))

	tests := []struct {
		name       string
		update     core.Update
		wantStatus string
		wantWidth  int
	}{
		{
			name: "success shows output and psnr",
			update: core.Update{
				Filter: algorithms.Invert,
				Result: core.Result{Path: output, Source: source, Metrics: map[string]float64{"psnr": 12.346}},
			},
			wantStatus: "PSNR 12.35 dB",
			wantWidth:  20,
		},
		{
			name: "identical images",
			update: core.Update{
				Filter: algorithms.Filter("posterize"),
				Result: core.Result{Path: output, Source: source, Metrics: map[string]float64{"psnr": math.Inf(1)}},
			},
			wantStatus: "PSNR ∞",
			wantWidth:  20,
		},
		{
			name: "failure shows the source",
			update: core.Update{
				Filter: algorithms.Blur,
				Result: core.Result{Path: source, Source: source, Err: core.ErrDecode},
				Err:    core.ErrDecode,
			},
			wantStatus: "no change",
			wantWidth:  40,
		},
		{
			name: "stale result is not displayed",
			update: core.Update{
				Filter: algorithms.Edges,
				Result: core.Result{Path: output, Source: source},
				Stale:  true,
				Err:    core.ErrStale,
			},
			wantStatus: "discarded",
			wantWidth:  40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := newTestApplication(t)
			require.NoError(t, waitSelection(t, app.SelectImage(source)))

			img, err := app.previewFor(tt.update)
			app.showUpdate(tt.update, img, err)

			assert.Contains(t, app.status.Text, tt.wantStatus)
			require.NotNil(t, app.processed.Image())
			assert.Equal(t, tt.wantWidth, app.processed.Image().Bounds().Dx())
		})
	}
}

func TestShowUpdatePreviewFailure(t *testing.T) {
	app, _, _ := newTestApplication(t)
	source := writeFixture(t, "photo.png")
	require.NoError(t, waitSelection(t, app.SelectImage(source)))

	update := core.Update{Filter: algorithms.Blur, Result: core.Result{Path: source}}
	app.showUpdate(update, nil, errors.New("gone"))
	assert.Contains(t, app.status.Text, "cannot display")
}

func TestReset(t *testing.T) {
	app, _, session := newTestApplication(t)
	source := writeFixture(t, "photo.png")
	require.NoError(t, waitSelection(t, app.SelectImage(source)))

	output := filepath.Join(filepath.Dir(source), "photo_sharpen_1_processed.jpg")
	require.NoError(t, imaging.Save(imaging.New(10, 10, color.Black), output))
	_, gen, err := session.SourceFor(algorithms.Sharpen)
	require.NoError(t, err)
	require.NoError(t, session.Record(gen, algorithms.Sharpen, core.Result{Path: output, Source: source}))
	img, err := app.previewFor(core.Update{Result: core.Result{Path: output}})
	require.NoError(t, err)
	app.processed.SetImage(img)

	test.Tap(app.resetBtn)

	assert.Equal(t, app.original.Image(), app.processed.Image())
	assert.Empty(t, session.Snapshot().LastFilter)
	assert.Contains(t, app.status.Text, "Reset")
}

func TestCleanupStopsRunner(t *testing.T) {
	app, runner, _ := newTestApplication(t)
	app.cleanup()
	assert.True(t, runner.stopped)
}
