// Package history mirrors navigation into a browser-style history so
// the address bar and back/forward controls stay consistent with the
// file browser without full page transitions.
package history

import (
	"sync"
	"time"

	"github.com/hausakte/hausakte/internal/storage"
)

// Entry is the state object attached to each history position,
// equivalent to the pushState payload
// {path, clientNavigation: true, timestamp}.
type Entry struct {
	Path             string    `json:"path"`
	ClientNavigation bool      `json:"clientNavigation"`
	Timestamp        time.Time `json:"timestamp"`
}

// URL returns the address-bar URL for this entry.
func (e Entry) URL() string {
	return storage.PathToURL(e.Path)
}

// History is a browser-history-shaped stack: pushing after going back
// truncates the forward entries. Navigation data is always applied to
// the store before Push is called, so the visible URL never points at
// content that failed to load.
type History struct {
	mu      sync.Mutex
	entries []Entry
	index   int
}

// New creates an empty history.
func New() *History {
	return &History{index: -1}
}

// Push appends a new entry after the current position and drops any
// forward entries.
func (h *History) Push(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.index+1], Entry{
		Path:             path,
		ClientNavigation: true,
		Timestamp:        time.Now(),
	})
	h.index = len(h.entries) - 1
}

// Replace swaps the current entry without growing the stack.
// Used for the initial load and for refreshes of the same path.
func (h *History) Replace(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := Entry{
		Path:             path,
		ClientNavigation: true,
		Timestamp:        time.Now(),
	}

	if h.index < 0 {
		h.entries = append(h.entries, entry)
		h.index = 0
		return
	}
	h.entries[h.index] = entry
}

// Current returns the entry at the current position.
func (h *History) Current() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index < 0 || h.index >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[h.index], true
}

// CurrentURL returns the URL the address bar shows right now.
func (h *History) CurrentURL() string {
	entry, ok := h.Current()
	if !ok {
		return ""
	}
	return entry.URL()
}

// Back moves one entry back and returns it for replay. The caller
// replays the navigation with history pushing suppressed, matching the
// popstate handler which must not re-push.
func (h *History) Back() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index <= 0 {
		return Entry{}, false
	}
	h.index--
	return h.entries[h.index], true
}

// Forward moves one entry forward and returns it for replay.
func (h *History) Forward() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index < 0 || h.index >= len(h.entries)-1 {
		return Entry{}, false
	}
	h.index++
	return h.entries[h.index], true
}

// CanBack reports whether a back entry exists.
func (h *History) CanBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// CanForward reports whether a forward entry exists.
func (h *History) CanForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index >= 0 && h.index < len(h.entries)-1
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Resolve handles the hard-refresh case: no client-navigation state is
// available, only the raw URL. It derives the storage path for the
// given user and seeds the history with it.
func (h *History) Resolve(url string, userID string) (string, error) {
	path, err := storage.URLToPath(url, userID)
	if err != nil {
		return "", err
	}
	h.Replace(path)
	return path, nil
}
