package algorithms

// Filter identifies one of the fixed filters. Values outside the known set
// are valid and behave as an identity copy.
type Filter string

const (
	Grayscale   Filter = "grayscale"
	Invert      Filter = "invert"
	Contrast    Filter = "contrast"
	Blur        Filter = "blur"
	Sharpen     Filter = "sharpen"
	Edges       Filter = "edges"
	Sepia       Filter = "sepia"
	ResizeHalf  Filter = "resize_half"
	Rotate90CW  Filter = "rotate_90_cw"
	Rotate90CCW Filter = "rotate_90_ccw"
)

var order = []Filter{
	Grayscale,
	Invert,
	Contrast,
	Blur,
	Sharpen,
	Edges,
	Sepia,
	ResizeHalf,
	Rotate90CW,
	Rotate90CCW,
}

// All returns the known filters in display order.
func All() []Filter {
	result := make([]Filter, len(order))
	copy(result, order)
	return result
}

func (f Filter) String() string {
	return string(f)
}

// Known reports whether f has a registered transform.
func (f Filter) Known() bool {
	_, exists := algorithms[f]
	return exists
}

// Label is the human-readable name shown on buttons.
func (f Filter) Label() string {
	if algorithm, exists := algorithms[f]; exists {
		return algorithm.GetName()
	}
	return string(f)
}
