package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hausakte/hausakte/internal/constants"
	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/localfs"
	"github.com/hausakte/hausakte/internal/logging"
	"github.com/hausakte/hausakte/internal/metrics"
	"github.com/hausakte/hausakte/internal/models"
	"github.com/hausakte/hausakte/internal/state"
)

// Refresher reloads the current listing after a bulk operation. The
// reload is forced and silent: its outcome produces no toast of its
// own. *browser.Controller satisfies this.
type Refresher interface {
	Refresh(ctx context.Context) (models.Listing, error)
}

// BulkResult summarizes a bulk operation. Items are independent; a
// failed item never rolls back the ones that already succeeded.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []error
}

// BulkService runs an operation over the current selection with
// bounded concurrency and per-item error accounting.
//
// Every run ends the same way regardless of outcome: one summary
// toast, a forced refresh and a cleared selection.
type BulkService struct {
	files    *FileService
	store    *state.BrowserState
	refresh  Refresher
	eventBus *events.EventBus
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewBulkService wires the bulk action layer.
func NewBulkService(files *FileService, store *state.BrowserState, refresh Refresher, eventBus *events.EventBus, m *metrics.Metrics) *BulkService {
	return &BulkService{
		files:    files,
		store:    store,
		refresh:  refresh,
		eventBus: eventBus,
		metrics:  m,
		logger:   logging.NewLogger("bulk"),
	}
}

// DeleteSelected removes every selected file.
func (s *BulkService) DeleteSelected(ctx context.Context) BulkResult {
	return s.run(ctx, "delete", func(ctx context.Context, file models.StorageObject) error {
		return s.files.Delete(ctx, file.Key())
	})
}

// DownloadSelected downloads every selected file into destDir.
// Name collisions get a numeric suffix instead of overwriting.
func (s *BulkService) DownloadSelected(ctx context.Context, destDir string) BulkResult {
	if err := localfs.EnsureDir(destDir); err != nil {
		result := BulkResult{Failed: s.store.SelectedCount(), Errors: []error{err}}
		s.finish(ctx, "download", result)
		return result
	}

	var nameMu sync.Mutex
	return s.run(ctx, "download", func(ctx context.Context, file models.StorageObject) error {
		nameMu.Lock()
		target := localfs.UniquePath(destDir, file.Name)
		out, err := os.Create(target)
		nameMu.Unlock()
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = s.files.Download(ctx, file.Key(), out)
		return err
	})
}

// MoveSelected moves every selected file into destFolder.
func (s *BulkService) MoveSelected(ctx context.Context, destFolder string) BulkResult {
	return s.run(ctx, "move", func(ctx context.Context, file models.StorageObject) error {
		return s.files.Move(ctx, file, destFolder)
	})
}

// run executes op over the selection snapshot. Item failures are
// collected, never propagated: one bad file must not abort the batch.
func (s *BulkService) run(ctx context.Context, op string, itemOp func(context.Context, models.StorageObject) error) BulkResult {
	selected := s.store.SelectedFiles()
	if len(selected) == 0 {
		return BulkResult{}
	}

	var succeeded, failed atomic.Int64
	errCh := make(chan error, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.BulkConcurrency)
	for _, file := range selected {
		file := file
		g.Go(func() error {
			if err := itemOp(gctx, file); err != nil {
				failed.Add(1)
				errCh <- fmt.Errorf("%s: %w", file.Name, err)
				s.logger.Warn().Str("op", op).Str("key", file.Key()).Err(err).Msg("Bulk item failed")
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	g.Wait()
	close(errCh)

	result := BulkResult{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
	for err := range errCh {
		result.Errors = append(result.Errors, err)
	}

	s.finish(ctx, op, result)
	return result
}

// finish applies the common epilogue: metrics, summary toast, silent
// refresh, selection reset. The selection is cleared even when every
// item failed, so a repeated click never re-runs a stale selection.
func (s *BulkService) finish(ctx context.Context, op string, result BulkResult) {
	if s.metrics != nil {
		s.metrics.BulkItemsTotal.WithLabelValues(op, "success").Add(float64(result.Succeeded))
		s.metrics.BulkItemsTotal.WithLabelValues(op, "error").Add(float64(result.Failed))
	}

	if s.eventBus != nil {
		s.eventBus.Publish(&events.BulkCompletedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventBulkCompleted, Time: time.Now()},
			Operation: op,
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
		})

		level := events.ToastSuccess
		if result.Failed > 0 {
			level = events.ToastError
		}
		s.eventBus.PublishToast(level, summaryMessage(op, result))
	}

	if s.refresh != nil {
		if _, err := s.refresh.Refresh(ctx); err != nil {
			s.logger.Warn().Str("op", op).Err(err).Msg("Refresh after bulk operation failed")
		}
	}

	s.store.ClearSelection()
}

// summaryMessage formats the German summary toast for a bulk result.
func summaryMessage(op string, result BulkResult) string {
	var verb string
	switch op {
	case "delete":
		verb = "gelöscht"
	case "download":
		verb = "heruntergeladen"
	case "move":
		verb = "verschoben"
	default:
		verb = "verarbeitet"
	}

	noun := "Dateien"
	if result.Succeeded == 1 {
		noun = "Datei"
	}

	msg := fmt.Sprintf("%d %s erfolgreich %s", result.Succeeded, noun, verb)
	if result.Failed > 0 {
		msg += fmt.Sprintf(", %d fehlgeschlagen", result.Failed)
	}
	return msg
}
