// Package storage derives the browsable view (files, virtual folders,
// breadcrumbs) from flat object listings, and maps storage paths to the
// public /dateien URL surface.
package storage

import (
	"sort"
	"strings"

	"github.com/hausakte/hausakte/internal/models"
)

// PlaceholderName is the zero-byte object the backend stores to keep an
// otherwise empty prefix alive. It never shows up as a file and does not
// count against a folder's FileCount.
const PlaceholderName = ".emptyFolderPlaceholder"

// BuildListing folds a recursive object listing under currentPath into
// the direct files of the folder plus one VirtualFolder per direct child
// prefix. Deeper objects only contribute to FileCount/Subfolders of
// their top-level folder.
func BuildListing(objects []models.StorageObject, currentPath string) models.Listing {
	prefix := currentPath
	if prefix != "" {
		prefix += "/"
	}

	var files []models.StorageObject
	var totalSize int64

	type folderAgg struct {
		fileCount  int
		subfolders map[string]bool
		hasAny     bool
	}
	folders := make(map[string]*folderAgg)

	for _, obj := range objects {
		key := obj.Key()
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rel := strings.TrimPrefix(key, prefix)
		if rel == "" {
			continue
		}

		segments := strings.Split(rel, "/")
		if len(segments) == 1 {
			// Direct child file of the current folder.
			if obj.Name == PlaceholderName {
				continue
			}
			files = append(files, obj)
			totalSize += obj.Size
			continue
		}

		// Everything deeper belongs to the first-level virtual folder.
		name := segments[0]
		agg := folders[name]
		if agg == nil {
			agg = &folderAgg{subfolders: make(map[string]bool)}
			folders[name] = agg
		}
		agg.hasAny = true

		if obj.Name != PlaceholderName {
			agg.fileCount++
			totalSize += obj.Size
		}
		if len(segments) > 2 {
			agg.subfolders[segments[1]] = true
		}
	}

	virtualFolders := make([]models.VirtualFolder, 0, len(folders))
	for name, agg := range folders {
		subs := make([]string, 0, len(agg.subfolders))
		for sub := range agg.subfolders {
			subs = append(subs, sub)
		}
		sort.Strings(subs)

		virtualFolders = append(virtualFolders, models.VirtualFolder{
			Name:       name,
			Path:       prefix + name,
			IsEmpty:    agg.fileCount == 0 && len(subs) == 0,
			FileCount:  agg.fileCount,
			Subfolders: subs,
		})
	}
	sort.Slice(virtualFolders, func(i, j int) bool {
		return strings.ToLower(virtualFolders[i].Name) < strings.ToLower(virtualFolders[j].Name)
	})

	return models.Listing{
		Path:        currentPath,
		Files:       files,
		Folders:     virtualFolders,
		Breadcrumbs: Breadcrumbs(currentPath),
		TotalSize:   totalSize,
	}
}

// Breadcrumbs builds the trail from the storage root to path.
// The last element's Path always equals path.
func Breadcrumbs(path string) []models.BreadcrumbItem {
	segments := strings.Split(path, "/")
	if len(segments) == 0 || segments[0] == "" {
		return nil
	}

	items := make([]models.BreadcrumbItem, 0, len(segments))
	items = append(items, models.BreadcrumbItem{
		Path:  segments[0],
		Label: "Dateien",
		Type:  models.BreadcrumbRoot,
	})

	current := segments[0]
	for _, seg := range segments[1:] {
		current += "/" + seg
		items = append(items, models.BreadcrumbItem{
			Path:  current,
			Label: seg,
			Type:  models.BreadcrumbFolder,
		})
	}

	return items
}

// IsFolderDeletable reports whether a folder may be deleted.
// Only empty folders (no files, no subfolders) are deletable; the
// frontend disables the action instead of letting the backend fail.
func IsFolderDeletable(f models.VirtualFolder) bool {
	return f.FileCount == 0 && len(f.Subfolders) == 0
}
