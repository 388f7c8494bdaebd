// Package services implements the operations the browser offers on
// storage objects: download, delete, move and the bulk variants acting
// on the current selection.
package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hausakte/hausakte/internal/logging"
	"github.com/hausakte/hausakte/internal/models"
	"github.com/hausakte/hausakte/internal/storage"
)

// Storage is the backend surface the file operations need.
// *api.Client satisfies this.
type Storage interface {
	DownloadObject(ctx context.Context, key string) (io.ReadCloser, int64, error)
	DeleteObjects(ctx context.Context, keys []string) error
	MoveObject(ctx context.Context, fromKey, toKey string) error
	UploadObject(ctx context.Context, key string, r io.Reader) error
}

// FileService performs single-object operations.
type FileService struct {
	client Storage
	logger *logging.Logger
}

// NewFileService creates the file operation service.
func NewFileService(client Storage) *FileService {
	return &FileService{
		client: client,
		logger: logging.NewLogger("files"),
	}
}

// Download streams the object behind key into w and returns the number
// of bytes written.
func (s *FileService) Download(ctx context.Context, key string, w io.Writer) (int64, error) {
	body, _, err := s.client.DownloadObject(ctx, key)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("failed to write %q: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int64("bytes", n).Msg("Downloaded object")
	return n, nil
}

// Delete removes a single object.
func (s *FileService) Delete(ctx context.Context, key string) error {
	return s.client.DeleteObjects(ctx, []string{key})
}

// DeleteFolder removes an empty folder by deleting its placeholder
// object. Folders containing files or subfolders are refused; the
// contents must be removed first.
func (s *FileService) DeleteFolder(ctx context.Context, folder models.VirtualFolder) error {
	if !storage.IsFolderDeletable(folder) {
		return fmt.Errorf("Ordner %q ist nicht leer und kann nicht gelöscht werden", folder.Name)
	}
	return s.client.DeleteObjects(ctx, []string{folder.Path + "/" + storage.PlaceholderName})
}

// Rename moves an object to a new name within its parent folder.
func (s *FileService) Rename(ctx context.Context, file models.StorageObject, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" || strings.Contains(newName, "/") {
		return fmt.Errorf("ungültiger Dateiname: %q", newName)
	}
	if newName == file.Name {
		return nil
	}
	return s.client.MoveObject(ctx, file.Key(), file.ParentPath+"/"+newName)
}

// Move relocates an object into another folder, keeping its name.
func (s *FileService) Move(ctx context.Context, file models.StorageObject, destFolder string) error {
	destFolder = strings.TrimSuffix(destFolder, "/")
	if destFolder == file.ParentPath {
		return nil
	}
	return s.client.MoveObject(ctx, file.Key(), destFolder+"/"+file.Name)
}

// CreateFolder materializes an empty folder by uploading the
// placeholder object under its path.
func (s *FileService) CreateFolder(ctx context.Context, path string) error {
	name := path[strings.LastIndex(path, "/")+1:]
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("ungültiger Ordnername")
	}
	return s.client.UploadObject(ctx, path+"/"+storage.PlaceholderName, strings.NewReader(""))
}

// Upload stores a new object in the given folder.
func (s *FileService) Upload(ctx context.Context, folder, name string, r io.Reader) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "/") {
		return fmt.Errorf("ungültiger Dateiname: %q", name)
	}
	return s.client.UploadObject(ctx, folder+"/"+name, r)
}
