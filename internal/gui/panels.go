package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"photo-filters/internal/algorithms"
)

// ImagePanel is a titled card showing one image scaled to fit.
type ImagePanel struct {
	card        *widget.Card
	picture     *canvas.Image
	placeholder *widget.Label
	current     image.Image
}

func NewImagePanel(title string) *ImagePanel {
	picture := canvas.NewImageFromImage(nil)
	picture.FillMode = canvas.ImageFillContain
	picture.ScaleMode = canvas.ImageScaleSmooth
	picture.SetMinSize(fyne.NewSize(320, 240))

	placeholder := widget.NewLabelWithStyle("No image", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	return &ImagePanel{
		card:        widget.NewCard(title, "", container.NewStack(picture, placeholder)),
		picture:     picture,
		placeholder: placeholder,
	}
}

func (p *ImagePanel) SetImage(img image.Image) {
	p.current = img
	p.picture.Image = img
	if img == nil {
		p.placeholder.Show()
	} else {
		p.placeholder.Hide()
	}
	p.picture.Refresh()
}

func (p *ImagePanel) Image() image.Image {
	return p.current
}

func (p *ImagePanel) GetContainer() fyne.CanvasObject {
	return p.card
}

// FilterPanel lays out one button per filter.
type FilterPanel struct {
	container *fyne.Container
	buttons   map[algorithms.Filter]*widget.Button
}

func NewFilterPanel(filters []algorithms.Filter, onApply func(algorithms.Filter)) *FilterPanel {
	panel := &FilterPanel{buttons: make(map[algorithms.Filter]*widget.Button, len(filters))}

	objects := make([]fyne.CanvasObject, 0, len(filters))
	for _, filter := range filters {
		filter := filter // per-iteration copy; go directive is 1.21 (pre-1.22 loopvar semantics)
		button := widget.NewButton(filter.Label(), func() { onApply(filter) })
		panel.buttons[filter] = button
		objects = append(objects, button)
	}

	panel.container = container.NewGridWithColumns(2, objects...)
	return panel
}

func (fp *FilterPanel) SetEnabled(enabled bool) {
	for _, button := range fp.buttons {
		if enabled {
			button.Enable()
		} else {
			button.Disable()
		}
	}
}

func (fp *FilterPanel) Button(filter algorithms.Filter) *widget.Button {
	return fp.buttons[filter]
}

func (fp *FilterPanel) GetContainer() fyne.CanvasObject {
	return fp.container
}
