// Package history keeps the list of custom title analyses a user has run.
package history

import (
	"errors"
	"sync"

	"github.com/corey/titlelab/internal/ports"
)

// ErrNotFound is returned when no analysis has the requested id.
var ErrNotFound = errors.New("analysis not found")

// History is a newest-first list of analyses with at most one entry per
// title. Safe for concurrent use.
type History struct {
	mu    sync.Mutex
	limit int // 0 = unbounded
	items []ports.TitleAnalysis
}

// New creates a history seeded with items (newest first). Duplicates and
// entries beyond limit are dropped; their ids are returned so callers can
// remove them from storage.
func New(limit int, items []ports.TitleAnalysis) (*History, []string) {
	h := &History{limit: limit}
	var dropped []string
	for i := len(items) - 1; i >= 0; i-- {
		dropped = append(dropped, h.add(items[i])...)
	}
	return h, dropped
}

// Add puts a at the front. An older entry with the same title is replaced.
// Returns the ids of the entries that were dropped, either replaced or
// pushed past the limit, so callers can remove them from storage.
func (h *History) Add(a ports.TitleAnalysis) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.add(a)
}

func (h *History) add(a ports.TitleAnalysis) []string {
	var dropped []string
	kept := make([]ports.TitleAnalysis, 0, len(h.items)+1)
	kept = append(kept, a)
	for _, it := range h.items {
		if it.Title == a.Title {
			if it.ID != a.ID {
				dropped = append(dropped, it.ID)
			}
			continue
		}
		kept = append(kept, it)
	}
	if h.limit > 0 && len(kept) > h.limit {
		for _, it := range kept[h.limit:] {
			dropped = append(dropped, it.ID)
		}
		kept = kept[:h.limit]
	}
	h.items = kept
	return dropped
}

// Delete removes the entry with id. Deleting an unknown id is a no-op and
// reports false.
func (h *History) Delete(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, it := range h.items {
		if it.ID == id {
			h.items = append(h.items[:i:i], h.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the entry with id.
func (h *History) Get(id string) (ports.TitleAnalysis, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, it := range h.items {
		if it.ID == id {
			return it, true
		}
	}
	return ports.TitleAnalysis{}, false
}

// List returns a copy of the entries, newest first.
func (h *History) List() []ports.TitleAnalysis {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ports.TitleAnalysis, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// Clear drops every entry.
func (h *History) Clear() {
	h.mu.Lock()
	h.items = nil
	h.mu.Unlock()
}
