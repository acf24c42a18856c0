package logview

import "github.com/indcloud/console/data"

// DefaultCapacity is the number of entries a buffer retains by default
const DefaultCapacity = 10000

// Buffer accumulates log entries in arrival order and retains the newest
// capacity entries.
type Buffer struct {
	entries  []data.LogEntry
	capacity int
	nextSeq  uint64
	version  uint64
}

// NewBuffer creates a buffer. A capacity <= 0 selects DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity, nextSeq: 1}
}

// Append stamps entries with a sequence number and adds them. The stamped
// entries are returned in the same order.
func (b *Buffer) Append(entries ...data.LogEntry) []data.LogEntry {
	if len(entries) == 0 {
		return nil
	}

	stamped := make([]data.LogEntry, len(entries))
	for i, e := range entries {
		e.Seq = b.nextSeq
		b.nextSeq++
		stamped[i] = e
	}

	b.entries = append(b.entries, stamped...)
	b.entries = retainLatest(b.entries, b.capacity)
	b.version++
	return stamped
}

// Entries returns the retained entries. The returned slice must not be modified.
func (b *Buffer) Entries() []data.LogEntry {
	return b.entries
}

// Len returns the number of retained entries
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Cap returns the retention capacity
func (b *Buffer) Cap() int {
	return b.capacity
}

// FirstSeq returns the sequence number of the oldest retained entry, or the
// next sequence number to be assigned when the buffer is empty.
func (b *Buffer) FirstSeq() uint64 {
	if len(b.entries) == 0 {
		return b.nextSeq
	}
	return b.entries[0].Seq
}

// Version changes every time the buffer content changes
func (b *Buffer) Version() uint64 {
	return b.version
}

// Clear drops all entries. Sequence numbers keep increasing.
func (b *Buffer) Clear() {
	b.entries = nil
	b.version++
}

// retainLatest reslices rather than copies; the dropped head is released the
// next time append grows the backing array.
func retainLatest(entries []data.LogEntry, max int) []data.LogEntry {
	if max <= 0 || len(entries) <= max {
		return entries
	}
	return entries[len(entries)-max:]
}
