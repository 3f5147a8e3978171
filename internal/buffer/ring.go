// Package buffer holds snapshots that could not be transmitted yet.
//
// Ring is a fixed-capacity FIFO that never refuses a push: when full it
// drops the oldest entry and raises a sticky overflow flag. Draining follows
// a peek-then-commit protocol: PeekOldest returns a copy, and PopOldest is
// called only after the copy was handed off successfully. The protocol is
// not reentrant and Ring is not safe for concurrent use; a single control
// loop owns it.
package buffer

import (
	"fmt"

	"heatpump_monitor/internal/models"
)

// DefaultCapacity is the number of snapshots kept while offline.
const DefaultCapacity = 100

// Ring is a circular store of snapshots with overwrite-oldest semantics.
type Ring struct {
	items    []models.Snapshot
	head     int // next write position
	tail     int // oldest entry
	count    int
	overflow bool
}

// New returns an empty ring. Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{items: make([]models.Snapshot, capacity)}
}

// Push stores s as the newest entry. If the ring is full the oldest entry
// is evicted first and the overflow flag is set. Returns true on eviction.
func (r *Ring) Push(s models.Snapshot) bool {
	evicted := false
	if r.count == len(r.items) {
		r.tail = (r.tail + 1) % len(r.items)
		r.count--
		r.overflow = true
		evicted = true
	}
	r.items[r.head] = s
	r.head = (r.head + 1) % len(r.items)
	r.count++
	return evicted
}

// PeekOldest returns a copy of the oldest entry without removing it.
func (r *Ring) PeekOldest() (models.Snapshot, bool) {
	if r.count == 0 {
		return models.Snapshot{}, false
	}
	return r.items[r.tail], true
}

// PopOldest removes the oldest entry. Returns false when empty.
func (r *Ring) PopOldest() bool {
	if r.count == 0 {
		return false
	}
	r.items[r.tail] = models.Snapshot{}
	r.tail = (r.tail + 1) % len(r.items)
	r.count--
	return true
}

// Len is the number of stored snapshots.
func (r *Ring) Len() int { return r.count }

// Cap is the fixed capacity.
func (r *Ring) Cap() int { return len(r.items) }

// IsEmpty reports whether nothing is stored.
func (r *Ring) IsEmpty() bool { return r.count == 0 }

// IsFull reports whether the next Push will evict.
func (r *Ring) IsFull() bool { return r.count == len(r.items) }

// Overflowed reports whether data was dropped since the last AckOverflow or Clear.
func (r *Ring) Overflowed() bool { return r.overflow }

// AckOverflow clears the overflow flag.
func (r *Ring) AckOverflow() { r.overflow = false }

// Clear drops every entry and the overflow flag.
func (r *Ring) Clear() {
	for i := range r.items {
		r.items[i] = models.Snapshot{}
	}
	r.head, r.tail, r.count = 0, 0, 0
	r.overflow = false
}

// Entries returns copies of the stored snapshots, oldest first.
func (r *Ring) Entries() []models.Snapshot {
	out := make([]models.Snapshot, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.items[(r.tail+i)%len(r.items)])
	}
	return out
}

// Restore replaces the contents with entries (oldest first), as if each had
// been pushed in order onto an empty ring. Excess entries evict the oldest
// and set overflow; the overflow argument is OR-ed in.
func (r *Ring) Restore(entries []models.Snapshot, overflow bool) {
	r.Clear()
	for _, s := range entries {
		r.Push(s)
	}
	r.overflow = r.overflow || overflow
}

// Status is a one-line description for status replies.
func (r *Ring) Status() string {
	if r.overflow {
		return fmt.Sprintf("Buffer: %d/%d (OVERFLOW)", r.count, len(r.items))
	}
	return fmt.Sprintf("Buffer: %d/%d", r.count, len(r.items))
}
