// Package models defines the data types shared across the storage browser.
package models

import (
	"time"
)

// StorageObject is a single file in the cloud storage bucket.
// Objects are immutable once listed; they only change through an
// explicit delete or move.
type StorageObject struct {
	// ID is the backend object identifier.
	ID string `json:"id"`

	// Name is the file name without any path segments.
	Name string `json:"name"`

	// Size in bytes.
	Size int64 `json:"size"`

	// UpdatedAt is the last modification timestamp reported by the backend.
	UpdatedAt time.Time `json:"updated_at"`

	// ParentPath is the storage path of the containing folder,
	// e.g. "user_42/invoices".
	ParentPath string `json:"parent_path"`
}

// Key returns the full object key in the bucket.
func (o StorageObject) Key() string {
	if o.ParentPath == "" {
		return o.Name
	}
	return o.ParentPath + "/" + o.Name
}

// VirtualFolder is a folder derived from object key prefixes.
// It is synthetic: the backend has no folder records, only keys.
type VirtualFolder struct {
	// Name is the folder name (last path segment).
	Name string `json:"name"`

	// Path is the full storage path of the folder.
	Path string `json:"path"`

	// IsEmpty is true when the folder holds no files and no subfolders.
	IsEmpty bool `json:"is_empty"`

	// FileCount counts all files anywhere below this folder.
	FileCount int `json:"file_count"`

	// Subfolders lists the names of direct child folders.
	Subfolders []string `json:"subfolders,omitempty"`
}

// BreadcrumbType distinguishes the storage root from regular folders.
type BreadcrumbType string

const (
	BreadcrumbRoot   BreadcrumbType = "root"
	BreadcrumbFolder BreadcrumbType = "folder"
)

// BreadcrumbItem is one element of the trail from the storage root to
// the current folder. The last element's Path always equals the
// current path.
type BreadcrumbItem struct {
	Path  string         `json:"path"`
	Label string         `json:"label"`
	Type  BreadcrumbType `json:"type"`
}

// Listing is the complete result of loading one storage path.
type Listing struct {
	Path        string           `json:"path"`
	Files       []StorageObject  `json:"files"`
	Folders     []VirtualFolder  `json:"folders"`
	Breadcrumbs []BreadcrumbItem `json:"breadcrumbs"`
	TotalSize   int64            `json:"total_size"`
}
