// Menu handler for application actions
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/sirupsen/logrus"

	"photo-filters/internal/algorithms"
	"photo-filters/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	logger *logrus.Logger

	onSelect func(string)
	onReset  func()
}

func NewMenuHandler(window fyne.Window, logger *logrus.Logger, onSelect func(string), onReset func()) *MenuHandler {
	return &MenuHandler{
		window:   window,
		logger:   logger,
		onSelect: onSelect,
		onReset:  onReset,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.OpenImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Reset to Original", mh.onReset),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, editMenu, helpMenu)
}

func (mh *MenuHandler) OpenImage() {
	mh.logger.Debug("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.logger.WithError(err).Error("File dialog error")
			dialog.ShowError(err, mh.window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		mh.onSelect(path)
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.BrowsableExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	message := "Apply simple photo filters. Every result is written next to the original as a JPEG.\n\nFilters:\n"
	for _, filter := range algorithms.All() {
		message += "  " + filter.Label() + "\n"
	}
	dialog.ShowInformation("About Photo Filters", message, mh.window)
}
