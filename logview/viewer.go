package logview

import (
	"io"

	"github.com/indcloud/console/data"
)

// Row is one rendered row. It is computed from the entry, the search term and
// the row state only.
type Row struct {
	Index    int
	Entry    data.LogEntry
	Expanded bool
	Segments []Segment
}

// Viewer owns the buffer and the derived view state of one log screen
type Viewer struct {
	buf      *Buffer
	filter   Filter
	filtered []data.LogEntry
	window   Window
	auto     *AutoScroll
	rows     *RowState
	hl       *Highlighter
}

// NewViewer creates a viewer retaining up to capacity entries with every
// source and level selected.
func NewViewer(capacity int) *Viewer {
	return &Viewer{
		buf:    NewBuffer(capacity),
		filter: NewFilter(),
		window: Window{Overscan: DefaultOverscan},
		auto:   NewAutoScroll(),
		rows:   NewRowState(),
		hl:     NewHighlighter(""),
	}
}

// Buffer returns the underlying buffer
func (v *Viewer) Buffer() *Buffer {
	return v.buf
}

// Append ingests entries and updates the filtered list incrementally. The
// entries are returned stamped with their sequence numbers.
func (v *Viewer) Append(entries ...data.LogEntry) []data.LogEntry {
	stamped := v.buf.Append(entries...)
	if len(stamped) == 0 {
		return nil
	}

	first := v.buf.FirstSeq()
	dropped := 0
	for dropped < len(v.filtered) && v.filtered[dropped].Seq < first {
		dropped++
	}
	if dropped > 0 {
		v.filtered = v.filtered[dropped:]
		v.rows.Prune(first)
		// keep the same rows under the viewport when the head is trimmed
		if !v.auto.Following() {
			v.window.Offset -= dropped
		}
	}

	v.filtered = append(v.filtered, v.filter.Apply(stamped)...)
	v.window = v.window.Clamp(len(v.filtered))

	if v.auto.Grew(len(v.filtered)) {
		v.window = v.window.ScrollToBottom(len(v.filtered))
	}

	return stamped
}

// Filter returns the active filter
func (v *Viewer) Filter() Filter {
	return v.filter
}

// SetFilter replaces the filter. Row state is reset when the filter changes.
func (v *Viewer) SetFilter(f Filter) {
	if f.Equal(v.filter) {
		v.filter = f
		return
	}
	v.filter = f
	v.hl = NewHighlighter(f.Search())
	v.refilter()
}

// ToggleSource flips a source in the filter
func (v *Viewer) ToggleSource(s data.LogSource) {
	v.SetFilter(v.filter.ToggleSource(s))
}

// ToggleLevel flips a level in the filter
func (v *Viewer) ToggleLevel(l data.LogLevel) {
	v.SetFilter(v.filter.ToggleLevel(l))
}

// SetSearch changes the search term
func (v *Viewer) SetSearch(term string) {
	v.SetFilter(v.filter.WithSearch(term))
}

func (v *Viewer) refilter() {
	v.filtered = v.filter.Apply(v.buf.Entries())
	v.rows.Reset()
	v.auto.Reset(len(v.filtered))
	if v.auto.Following() {
		v.window = v.window.ScrollToBottom(len(v.filtered))
	} else {
		v.window = v.window.Clamp(len(v.filtered))
	}
}

// Filtered returns the entries that pass the filter. The returned slice must
// not be modified.
func (v *Viewer) Filtered() []data.LogEntry {
	return v.filtered
}

// Window returns the current window
func (v *Viewer) Window() Window {
	return v.window
}

// SetHeight sets the viewport height in rows
func (v *Viewer) SetHeight(h int) {
	v.window.Height = h
	if v.auto.Following() {
		v.window = v.window.ScrollToBottom(len(v.filtered))
		return
	}
	v.window = v.window.Clamp(len(v.filtered))
}

// Visible returns the rows to render, including overscan
func (v *Viewer) Visible() []Row {
	start, end := v.window.Range(len(v.filtered))
	ret := make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		e := v.filtered[i]
		ret = append(ret, Row{
			Index:    i,
			Entry:    e,
			Expanded: v.rows.Expanded(e.Seq),
			Segments: v.hl.Segments(e.Message),
		})
	}
	return ret
}

// ScrollBy moves the viewport as a user action
func (v *Viewer) ScrollBy(delta int) {
	v.window = v.window.ScrollBy(delta, len(v.filtered))
	v.auto.UserScrolled(v.window.AtBottom(len(v.filtered)))
}

// ScrollToBottom jumps to the last row as a user action
func (v *Viewer) ScrollToBottom() {
	v.window = v.window.ScrollToBottom(len(v.filtered))
	v.auto.UserScrolled(true)
}

// ScrollToTop jumps to the first row as a user action
func (v *Viewer) ScrollToTop() {
	v.window.Offset = 0
	v.auto.UserScrolled(v.window.AtBottom(len(v.filtered)))
}

// AutoScroll returns the auto-scroll controller state
func (v *Viewer) AutoScroll() *AutoScroll {
	return v.auto
}

// ToggleAutoScroll switches auto-scroll without moving the viewport
func (v *Viewer) ToggleAutoScroll() {
	v.auto.Toggle(v.window.AtBottom(len(v.filtered)))
}

// ToggleExpanded flips the expanded state of the filtered row at index
func (v *Viewer) ToggleExpanded(index int) bool {
	if index < 0 || index >= len(v.filtered) {
		return false
	}
	return v.rows.Toggle(v.filtered[index].Seq)
}

// Expanded reports whether the filtered row at index is expanded
func (v *Viewer) Expanded(index int) bool {
	if index < 0 || index >= len(v.filtered) {
		return false
	}
	return v.rows.Expanded(v.filtered[index].Seq)
}

// Export writes the filtered entries
func (v *Viewer) Export(w io.Writer) error {
	return WriteExport(w, v.filtered)
}

// Clear empties the buffer and the view
func (v *Viewer) Clear() {
	v.buf.Clear()
	v.filtered = nil
	v.rows.Reset()
	v.auto.Reset(0)
	v.window.Offset = 0
}
