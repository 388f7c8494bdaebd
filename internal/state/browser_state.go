// Package state provides the observable store behind the file browser.
// It is the single source of truth for the currently displayed listing;
// every write funnels through its setters.
package state

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/models"
)

// BrowserState holds the current path, listing, breadcrumb trail,
// selection set and display preferences. Setters are pure assignment:
// no setter issues a backend call or triggers a refresh.
// Thread-safe for concurrent access.
type BrowserState struct {
	eventBus *events.EventBus

	currentPath string
	files       []models.StorageObject
	folders     []models.VirtualFolder
	breadcrumbs []models.BreadcrumbItem
	totalSize   int64

	loading    bool
	errorMsg   string
	retryCount int

	selected  map[string]bool
	sortBy    string // "name", "size", "modified"
	ascending bool
	filter    string // case-insensitive name filter

	mu sync.RWMutex
}

// NewBrowserState creates a browser store. The store is constructed
// explicitly and injected; there is no package-level singleton.
func NewBrowserState(eventBus *events.EventBus) *BrowserState {
	return &BrowserState{
		eventBus:  eventBus,
		selected:  make(map[string]bool),
		sortBy:    "name",
		ascending: true,
	}
}

// SetCurrentPath updates the current path.
func (s *BrowserState) SetCurrentPath(path string) {
	s.mu.Lock()
	s.currentPath = path
	s.mu.Unlock()
}

// CurrentPath returns the current path.
func (s *BrowserState) CurrentPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPath
}

// SetFiles replaces the file list.
func (s *BrowserState) SetFiles(files []models.StorageObject) {
	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
}

// SetFolders replaces the folder list.
func (s *BrowserState) SetFolders(folders []models.VirtualFolder) {
	s.mu.Lock()
	s.folders = folders
	s.mu.Unlock()
}

// SetBreadcrumbs replaces the breadcrumb trail.
func (s *BrowserState) SetBreadcrumbs(crumbs []models.BreadcrumbItem) {
	s.mu.Lock()
	s.breadcrumbs = crumbs
	s.mu.Unlock()
}

// SetLoading marks the listing as loading.
func (s *BrowserState) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// IsLoading returns whether a navigation is in flight.
func (s *BrowserState) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetError sets the user-facing error message. Empty string clears it.
func (s *BrowserState) SetError(msg string) {
	s.mu.Lock()
	s.errorMsg = msg
	if msg == "" {
		s.retryCount = 0
	}
	s.mu.Unlock()
}

// Error returns the current error message, empty when none.
func (s *BrowserState) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorMsg
}

// SetRetryCount updates the observable retry counter.
func (s *BrowserState) SetRetryCount(n int) {
	s.mu.Lock()
	s.retryCount = n
	s.mu.Unlock()
}

// RetryCount returns the retry counter of the current navigation.
func (s *BrowserState) RetryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retryCount
}

// ApplyListing applies a completed navigation result in one step and
// publishes a listing-changed event. The selection survives only for
// keys that still exist in the new listing.
func (s *BrowserState) ApplyListing(listing models.Listing) {
	s.mu.Lock()
	s.currentPath = listing.Path
	s.files = listing.Files
	s.folders = listing.Folders
	s.breadcrumbs = listing.Breadcrumbs
	s.totalSize = listing.TotalSize
	s.loading = false
	s.errorMsg = ""
	s.retryCount = 0

	keep := make(map[string]bool, len(s.selected))
	for _, f := range listing.Files {
		key := f.Key()
		if s.selected[key] {
			keep[key] = true
		}
	}
	s.selected = keep
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(&events.ListingChangedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventListingChanged, Time: time.Now()},
			Path:      listing.Path,
			FileCount: len(listing.Files),
			DirCount:  len(listing.Folders),
			TotalSize: listing.TotalSize,
		})
	}
}

// Files returns a copy of the unfiltered file list.
func (s *BrowserState) Files() []models.StorageObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.StorageObject, len(s.files))
	copy(result, s.files)
	return result
}

// Folders returns a copy of the folder list.
func (s *BrowserState) Folders() []models.VirtualFolder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.VirtualFolder, len(s.folders))
	copy(result, s.folders)
	return result
}

// Breadcrumbs returns a copy of the breadcrumb trail.
func (s *BrowserState) Breadcrumbs() []models.BreadcrumbItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.BreadcrumbItem, len(s.breadcrumbs))
	copy(result, s.breadcrumbs)
	return result
}

// TotalSize returns the byte total of the current listing.
func (s *BrowserState) TotalSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSize
}

// SetFilter sets the case-insensitive name filter.
func (s *BrowserState) SetFilter(filter string) {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
}

// SetSort updates the sort preferences.
func (s *BrowserState) SetSort(sortBy string, ascending bool) {
	s.mu.Lock()
	s.sortBy = sortBy
	s.ascending = ascending
	s.mu.Unlock()
}

// GetSort returns the current sort preferences.
func (s *BrowserState) GetSort() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortBy, s.ascending
}

// VisibleFiles returns the filtered and sorted file list, i.e. exactly
// what the browser displays. Select-all operates on this subset.
func (s *BrowserState) VisibleFiles() []models.StorageObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visibleFilesLocked()
}

func (s *BrowserState) visibleFilesLocked() []models.StorageObject {
	visible := make([]models.StorageObject, 0, len(s.files))
	needle := strings.ToLower(s.filter)
	for _, f := range s.files {
		if needle != "" && !strings.Contains(strings.ToLower(f.Name), needle) {
			continue
		}
		visible = append(visible, f)
	}

	sortBy, ascending := s.sortBy, s.ascending
	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		var less bool
		switch sortBy {
		case "size":
			less = a.Size < b.Size
		case "modified":
			less = a.UpdatedAt.Before(b.UpdatedAt)
		default: // "name"
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		if ascending {
			return less
		}
		return !less
	})

	return visible
}

// Select adds a file key to the selection.
func (s *BrowserState) Select(key string) {
	s.mu.Lock()
	s.selected[key] = true
	ids := s.selectedIDsLocked()
	s.mu.Unlock()
	s.publishSelection(ids)
}

// Deselect removes a file key from the selection.
func (s *BrowserState) Deselect(key string) {
	s.mu.Lock()
	delete(s.selected, key)
	ids := s.selectedIDsLocked()
	s.mu.Unlock()
	s.publishSelection(ids)
}

// ToggleSelect toggles a file key's selection state.
func (s *BrowserState) ToggleSelect(key string) {
	s.mu.Lock()
	if s.selected[key] {
		delete(s.selected, key)
	} else {
		s.selected[key] = true
	}
	ids := s.selectedIDsLocked()
	s.mu.Unlock()
	s.publishSelection(ids)
}

// IsSelected returns whether a file key is selected.
func (s *BrowserState) IsSelected(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[key]
}

// SelectAllVisible adds every currently visible file to the selection.
// Files hidden by the active filter are not touched.
func (s *BrowserState) SelectAllVisible() {
	s.mu.Lock()
	for _, f := range s.visibleFilesLocked() {
		s.selected[f.Key()] = true
	}
	ids := s.selectedIDsLocked()
	s.mu.Unlock()
	s.publishSelection(ids)
}

// DeselectAllVisible removes every currently visible file from the
// selection, leaving filtered-out selections intact.
func (s *BrowserState) DeselectAllVisible() {
	s.mu.Lock()
	for _, f := range s.visibleFilesLocked() {
		delete(s.selected, f.Key())
	}
	ids := s.selectedIDsLocked()
	s.mu.Unlock()
	s.publishSelection(ids)
}

// ClearSelection empties the selection set.
func (s *BrowserState) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[string]bool)
	s.mu.Unlock()
	s.publishSelection([]string{})
}

// SelectedIDs returns the selected file keys.
func (s *BrowserState) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedIDsLocked()
}

func (s *BrowserState) selectedIDsLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectedFiles returns the selected files that are present in the
// current listing.
func (s *BrowserState) SelectedFiles() []models.StorageObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.StorageObject, 0, len(s.selected))
	for _, f := range s.files {
		if s.selected[f.Key()] {
			result = append(result, f)
		}
	}
	return result
}

// SelectedCount returns the size of the selection set.
func (s *BrowserState) SelectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// FindFolder looks up a folder in the current listing by path.
func (s *BrowserState) FindFolder(path string) (models.VirtualFolder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.folders {
		if f.Path == path {
			return f, true
		}
	}
	return models.VirtualFolder{}, false
}

func (s *BrowserState) publishSelection(ids []string) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(&events.SelectionChangedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.EventSelectionChanged, Time: time.Now()},
		SelectedIDs: ids,
	})
}
