package logview

// RowState holds per entry UI state keyed by the entry Seq. Row indexes shift
// as entries are dropped or filtered so they are never used as keys.
type RowState struct {
	expanded map[uint64]bool
}

// NewRowState returns empty row state
func NewRowState() *RowState {
	return &RowState{expanded: make(map[uint64]bool)}
}

// Toggle flips the expanded state of an entry and returns the new state
func (r *RowState) Toggle(seq uint64) bool {
	if r.expanded[seq] {
		delete(r.expanded, seq)
		return false
	}
	r.expanded[seq] = true
	return true
}

// Expanded reports whether an entry is expanded
func (r *RowState) Expanded(seq uint64) bool {
	return r.expanded[seq]
}

// Count returns the number of expanded entries
func (r *RowState) Count() int {
	return len(r.expanded)
}

// Prune drops state for entries older than firstSeq
func (r *RowState) Prune(firstSeq uint64) {
	for seq := range r.expanded {
		if seq < firstSeq {
			delete(r.expanded, seq)
		}
	}
}

// Reset collapses every entry
func (r *RowState) Reset() {
	r.expanded = make(map[uint64]bool)
}
