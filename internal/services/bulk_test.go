package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/metrics"
	"github.com/hausakte/hausakte/internal/models"
	"github.com/hausakte/hausakte/internal/state"
)

// fakeStorage records calls and fails deletes for keys in failKeys.
type fakeStorage struct {
	mu       sync.Mutex
	deleted  []string
	moved    [][2]string
	uploaded []string
	failKeys map[string]bool
	content  string
}

func (f *fakeStorage) DownloadObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if f.failKeys[key] {
		return nil, 0, errors.New("503 service unavailable")
	}
	return io.NopCloser(strings.NewReader(f.content)), int64(len(f.content)), nil
}

func (f *fakeStorage) DeleteObjects(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		if f.failKeys[key] {
			return fmt.Errorf("delete %q: 503 service unavailable", key)
		}
	}
	f.deleted = append(f.deleted, keys...)
	return nil
}

func (f *fakeStorage) MoveObject(ctx context.Context, fromKey, toKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[fromKey] {
		return errors.New("500 internal server error")
	}
	f.moved = append(f.moved, [2]string{fromKey, toKey})
	return nil
}

func (f *fakeStorage) UploadObject(ctx context.Context, key string, r io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, key)
	return nil
}

// fakeRefresher counts silent refreshes.
type fakeRefresher struct {
	calls atomic.Int64
}

func (f *fakeRefresher) Refresh(ctx context.Context) (models.Listing, error) {
	f.calls.Add(1)
	return models.Listing{}, nil
}

func seedSelection(store *state.BrowserState, names ...string) {
	files := make([]models.StorageObject, 0, len(names))
	for _, name := range names {
		files = append(files, models.StorageObject{
			ID:         "user_1/" + name,
			Name:       name,
			ParentPath: "user_1",
		})
	}
	store.SetFiles(files)
	for _, file := range files {
		store.Select(file.Key())
	}
}

func TestDeleteSelectedAllSucceed(t *testing.T) {
	eventBus := events.NewEventBus(100)
	store := state.NewBrowserState(eventBus)
	backend := &fakeStorage{failKeys: map[string]bool{}}
	refresher := &fakeRefresher{}
	toastCh := eventBus.Subscribe(events.EventToast)

	bulk := NewBulkService(NewFileService(backend), store, refresher, eventBus, metrics.New())
	seedSelection(store, "a.pdf", "b.pdf", "c.pdf")

	result := bulk.DeleteSelected(context.Background())

	if result.Succeeded != 3 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(backend.deleted) != 3 {
		t.Errorf("deleted %d objects, want 3", len(backend.deleted))
	}
	if store.SelectedCount() != 0 {
		t.Error("selection must be cleared after the bulk operation")
	}
	if refresher.calls.Load() != 1 {
		t.Error("listing must be refreshed exactly once")
	}

	toast := receiveToast(t, toastCh)
	if toast.Message != "3 Dateien erfolgreich gelöscht" {
		t.Errorf("toast = %q", toast.Message)
	}
	if toast.Level != events.ToastSuccess {
		t.Error("all-success run must toast success")
	}
}

func TestDeleteSelectedPartialFailure(t *testing.T) {
	eventBus := events.NewEventBus(100)
	store := state.NewBrowserState(eventBus)
	backend := &fakeStorage{failKeys: map[string]bool{"user_1/b.pdf": true}}
	refresher := &fakeRefresher{}
	toastCh := eventBus.Subscribe(events.EventToast)
	bulkCh := eventBus.Subscribe(events.EventBulkCompleted)

	bulk := NewBulkService(NewFileService(backend), store, refresher, eventBus, metrics.New())
	seedSelection(store, "a.pdf", "b.pdf", "c.pdf")

	result := bulk.DeleteSelected(context.Background())

	if result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 2 succeeded / 1 failed", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Error(), "b.pdf") {
		t.Errorf("Errors = %v, want the failing file named", result.Errors)
	}

	// Successes stay final, there is no rollback.
	if len(backend.deleted) != 2 {
		t.Errorf("deleted %d objects, want 2", len(backend.deleted))
	}

	toast := receiveToast(t, toastCh)
	if toast.Message != "2 Dateien erfolgreich gelöscht, 1 fehlgeschlagen" {
		t.Errorf("toast = %q", toast.Message)
	}
	if toast.Level != events.ToastError {
		t.Error("partial failure must toast as error")
	}

	select {
	case ev := <-bulkCh:
		done := ev.(*events.BulkCompletedEvent)
		if done.Operation != "delete" || done.Succeeded != 2 || done.Failed != 1 {
			t.Errorf("bulk event = %+v", done)
		}
	case <-time.After(time.Second):
		t.Fatal("no bulk completed event")
	}

	// Refresh and selection reset happen even on partial failure.
	if refresher.calls.Load() != 1 {
		t.Error("listing must still be refreshed")
	}
	if store.SelectedCount() != 0 {
		t.Error("selection must be cleared even when items failed")
	}
}

func TestDeleteSelectedEmptySelectionIsNoop(t *testing.T) {
	eventBus := events.NewEventBus(100)
	store := state.NewBrowserState(eventBus)
	refresher := &fakeRefresher{}
	bulk := NewBulkService(NewFileService(&fakeStorage{}), store, refresher, eventBus, metrics.New())

	result := bulk.DeleteSelected(context.Background())
	if result.Succeeded != 0 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	if refresher.calls.Load() != 0 {
		t.Error("empty selection must not trigger a refresh")
	}
}

func TestMoveSelected(t *testing.T) {
	eventBus := events.NewEventBus(100)
	store := state.NewBrowserState(eventBus)
	backend := &fakeStorage{failKeys: map[string]bool{}}
	bulk := NewBulkService(NewFileService(backend), store, &fakeRefresher{}, eventBus, metrics.New())
	seedSelection(store, "a.pdf")

	result := bulk.MoveSelected(context.Background(), "user_1/archiv")
	if result.Succeeded != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(backend.moved) != 1 || backend.moved[0][1] != "user_1/archiv/a.pdf" {
		t.Errorf("moved = %v", backend.moved)
	}
}

func TestDownloadSelectedWritesFiles(t *testing.T) {
	eventBus := events.NewEventBus(100)
	store := state.NewBrowserState(eventBus)
	backend := &fakeStorage{failKeys: map[string]bool{}, content: "inhalt"}
	bulk := NewBulkService(NewFileService(backend), store, &fakeRefresher{}, eventBus, metrics.New())
	seedSelection(store, "a.pdf", "b.pdf")

	dir := t.TempDir()
	result := bulk.DownloadSelected(context.Background(), dir)
	if result.Succeeded != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
}

func receiveToast(t *testing.T, ch <-chan events.Event) *events.ToastEvent {
	t.Helper()
	select {
	case ev := <-ch:
		toast, ok := ev.(*events.ToastEvent)
		if !ok {
			t.Fatalf("unexpected event type %T", ev)
		}
		return toast
	case <-time.After(time.Second):
		t.Fatal("no toast published")
		return nil
	}
}
