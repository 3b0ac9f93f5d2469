package widget

// Dimensions are explicit display dimensions in pixels. A zero component
// means "auto" and is left to the browser's natural sizing.
type Dimensions struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Empty reports whether neither component is set
func (d Dimensions) Empty() bool {
	return d.Width == 0 && d.Height == 0
}

func equalDims(a, b *Dimensions) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
