package logview

// DefaultOverscan is the number of extra rows rendered above and below the
// viewport
const DefaultOverscan = 5

// Window describes the visible part of a list of rows. Offset is the index of
// the first row in the viewport.
type Window struct {
	Height   int
	Overscan int
	Offset   int
}

// MaxOffset returns the largest valid offset for total rows
func (w Window) MaxOffset(total int) int {
	if w.Height <= 0 {
		return max0(total - 1)
	}
	return max0(total - w.Height)
}

// Clamp returns the window with Offset bounded to [0, MaxOffset(total)]
func (w Window) Clamp(total int) Window {
	if w.Offset > w.MaxOffset(total) {
		w.Offset = w.MaxOffset(total)
	}
	if w.Offset < 0 {
		w.Offset = 0
	}
	return w
}

// Range returns the half open range [start, end) of rows to render, including
// overscan on both sides. 0 <= start <= end <= total always holds.
func (w Window) Range(total int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	c := w.Clamp(total)
	over := max0(c.Overscan)
	height := max0(c.Height)

	start = max0(c.Offset - over)
	end = c.Offset + height + over
	if end > total {
		end = total
	}
	return start, end
}

// Viewport returns the rows inside the viewport only, without overscan
func (w Window) Viewport(total int) (start, end int) {
	return Window{Height: w.Height, Offset: w.Offset}.Range(total)
}

// ScrollBy moves the offset by delta rows, clamped
func (w Window) ScrollBy(delta, total int) Window {
	w.Offset += delta
	return w.Clamp(total)
}

// ScrollToBottom moves the offset so the last row is visible
func (w Window) ScrollToBottom(total int) Window {
	w.Offset = w.MaxOffset(total)
	return w
}

// AtBottom reports whether the last row is inside the viewport
func (w Window) AtBottom(total int) bool {
	return w.Offset >= w.MaxOffset(total)
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
