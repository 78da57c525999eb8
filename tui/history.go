// Package tui provides a Bubble Tea terminal UI for a djinncore battle
// session.
package tui

import "slices"

// History is a bounded command history with cursor-based navigation.
// Re-entering a command moves it to the newest position.
type History struct {
	entries []string
	limit   int
	offset  int // 0 = fresh input, n = n entries back from the newest
}

// NewHistory creates a history holding at most limit commands.
func NewHistory(limit int) *History {
	return &History{
		entries: make([]string, 0, limit),
		limit:   limit,
	}
}

// Push records a command and resets navigation.
func (h *History) Push(cmd string) {
	h.offset = 0
	if i := slices.Index(h.entries, cmd); i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.limit {
		h.entries = slices.Delete(h.entries, 0, len(h.entries)-h.limit)
	}
}

// Len returns the number of stored commands.
func (h *History) Len() int { return len(h.entries) }

// Prev steps to the next older entry, stopping at the oldest.
// Returns ("", false) if history is empty.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.offset < len(h.entries) {
		h.offset++
	}
	return h.entries[len(h.entries)-h.offset], true
}

// Next steps to the next newer entry. Returns ("", false) when stepping
// past the newest entry back to fresh input.
func (h *History) Next() (string, bool) {
	if h.offset <= 1 {
		h.offset = 0
		return "", false
	}
	h.offset--
	return h.entries[len(h.entries)-h.offset], true
}
