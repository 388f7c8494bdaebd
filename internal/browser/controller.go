// Package browser implements the navigation controller of the file
// browser: it loads folder listings while coalescing duplicate
// requests, retries transient failures with backoff and supports
// cancellation per user or across the board.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/hausakte/hausakte/internal/api"
	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/history"
	internalhttp "github.com/hausakte/hausakte/internal/http"
	"github.com/hausakte/hausakte/internal/logging"
	"github.com/hausakte/hausakte/internal/metrics"
	"github.com/hausakte/hausakte/internal/models"
	"github.com/hausakte/hausakte/internal/state"
	"github.com/hausakte/hausakte/internal/storage"
)

// Loader fetches the raw object listing for a path prefix.
// *api.Client satisfies this; tests plug in fakes.
type Loader interface {
	ListObjects(ctx context.Context, prefix string) ([]models.StorageObject, error)
}

// Options control a single Navigate call.
type Options struct {
	// Force bypasses the in-flight short-circuit and always issues a
	// fresh fetch. Used by manual refresh.
	Force bool

	// SuppressHistory skips the history push after a successful
	// navigation. Set when replaying back/forward entries so they are
	// not pushed twice.
	SuppressHistory bool

	// Replace records the navigation via history replace instead of
	// push. Used for the initial load.
	Replace bool
}

// NavigationState is a snapshot of the controller-facing state.
type NavigationState struct {
	CurrentPath  string
	IsNavigating bool
	Error        string
	RetryCount   int
}

// load tracks one in-flight listing fetch. Waiters block on done and
// then read listing/err.
type load struct {
	done    chan struct{}
	cancel  context.CancelFunc
	listing models.Listing
	err     error
}

// Controller coordinates folder navigation.
//
// Ordering: navigations to the same path are coalesced; for different
// paths the controller enforces last-request-wins via a sequence
// number, so a stale response can never overwrite a newer one.
type Controller struct {
	loader   Loader
	store    *state.BrowserState
	history  *history.History
	eventBus *events.EventBus
	metrics  *metrics.Metrics
	logger   *logging.Logger
	retryCfg internalhttp.Config

	mu       sync.Mutex
	inflight map[string]*load
	seq      uint64 // newest navigation sequence number
	// localPath is the navigation target of the newest Navigate call.
	// It converges with the store's currentPath once that navigation
	// succeeds; divergence while a load is in flight is expected.
	localPath string
}

// NewController wires the navigation controller. All collaborators are
// injected; the controller holds no global state.
func NewController(loader Loader, store *state.BrowserState, hist *history.History, eventBus *events.EventBus, m *metrics.Metrics) *Controller {
	return &Controller{
		loader:   loader,
		store:    store,
		history:  hist,
		eventBus: eventBus,
		metrics:  m,
		logger:   logging.NewLogger("browser"),
		retryCfg: internalhttp.DefaultConfig(),
		inflight: make(map[string]*load),
	}
}

// SetRetryConfig overrides the retry policy (used by tests and the
// max_retries config key).
func (c *Controller) SetRetryConfig(cfg internalhttp.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryCfg = cfg
}

// Navigate loads the listing for path and, on success, applies it to
// the store and records it in the history (data first, then URL).
//
// A concurrent Navigate for the same path joins the in-flight load and
// receives the same result instead of issuing a second fetch.
func (c *Controller) Navigate(ctx context.Context, path string, opts Options) (models.Listing, error) {
	c.mu.Lock()

	if !opts.Force {
		if l, ok := c.inflight[path]; ok {
			c.mu.Unlock()
			if c.metrics != nil {
				c.metrics.CoalescedTotal.Inc()
			}
			select {
			case <-l.done:
				return l.listing, l.err
			case <-ctx.Done():
				return models.Listing{}, ctx.Err()
			}
		}
	}

	// The load gets its own context so it is not torn down when a
	// single coalesced waiter gives up. CancelAll aborts it.
	loadCtx, cancel := context.WithCancel(context.Background())
	l := &load{done: make(chan struct{}), cancel: cancel}
	c.inflight[path] = l

	c.seq++
	mySeq := c.seq
	c.localPath = path
	retryCfg := c.retryCfg
	c.mu.Unlock()

	c.store.SetLoading(true)
	c.store.SetRetryCount(0)
	userID := storage.PathUser(path)
	if c.eventBus != nil {
		c.eventBus.PublishNavigation(events.EventNavigationStarted, path, userID, 0, retryCfg.MaxRetries, nil)
	}

	retryCfg.OnRetry = func(attempt int, err error, errType internalhttp.ErrorType) {
		c.store.SetRetryCount(attempt)
		if c.metrics != nil && attempt < retryCfg.MaxRetries {
			c.metrics.RetriesTotal.Inc()
		}
		if c.eventBus != nil {
			c.eventBus.PublishNavigation(events.EventNavigationRetrying, path, userID, attempt, retryCfg.MaxRetries, err)
		}
		c.logger.Warn().
			Str("path", path).
			Int("attempt", attempt).
			Int("max", retryCfg.MaxRetries).
			Err(err).
			Msg("Folder load failed, retrying")
	}

	var objects []models.StorageObject
	err := internalhttp.ExecuteWithRetry(loadCtx, retryCfg, func() error {
		var opErr error
		objects, opErr = c.loader.ListObjects(loadCtx, path)
		return opErr
	})

	l.listing = storage.BuildListing(objects, path)
	l.err = err

	c.mu.Lock()
	if c.inflight[path] == l {
		delete(c.inflight, path)
	}
	isNewest := mySeq == c.seq
	c.mu.Unlock()

	cancel()
	close(l.done)

	if err != nil {
		return l.listing, c.failNavigation(path, userID, err, isNewest, loadCtx)
	}

	if !isNewest {
		// A newer navigation has started since; drop this result
		// instead of overwriting fresher state (last-request-wins).
		if c.metrics != nil {
			c.metrics.NavigationsTotal.WithLabelValues("superseded").Inc()
		}
		c.logger.Debug().Str("path", path).Msg("Dropping superseded navigation result")
		return l.listing, nil
	}

	// Data is applied before the history entry so the address bar
	// never points at content that was not loaded.
	c.store.ApplyListing(l.listing)
	if !opts.SuppressHistory {
		if opts.Replace {
			c.history.Replace(path)
		} else {
			c.history.Push(path)
		}
	}

	if c.metrics != nil {
		c.metrics.NavigationsTotal.WithLabelValues("success").Inc()
	}
	if c.eventBus != nil {
		c.eventBus.PublishNavigation(events.EventNavigationCompleted, path, userID, 0, retryCfg.MaxRetries, nil)
	}

	return l.listing, nil
}

// failNavigation translates a failed load into store state and events.
func (c *Controller) failNavigation(path, userID string, err error, isNewest bool, loadCtx context.Context) error {
	result := "error"
	if loadCtx.Err() != nil {
		result = "cancelled"
	}
	if c.metrics != nil {
		c.metrics.NavigationsTotal.WithLabelValues(result).Inc()
	}

	if isNewest && result != "cancelled" {
		c.store.SetLoading(false)
		c.store.SetError(userMessage(err))
	} else if isNewest {
		c.store.SetLoading(false)
	}

	if c.eventBus != nil {
		c.eventBus.PublishNavigation(events.EventNavigationFailed, path, userID, c.store.RetryCount(), c.retryCfg.MaxRetries, err)
	}
	c.logger.Error().Str("path", path).Str("result", result).Err(err).Msg("Navigation failed")
	return err
}

// userMessage maps an operation error to the German message shown in
// the browser. Errors never propagate raw into the frontend.
func userMessage(err error) string {
	if api.IsAuthError(err) {
		return err.Error()
	}
	return fmt.Sprintf("Dateien konnten nicht geladen werden: %v", err)
}

// Refresh reloads the current path, bypassing coalescing. It never
// touches the history: the URL already points at the current path.
func (c *Controller) Refresh(ctx context.Context) (models.Listing, error) {
	return c.Navigate(ctx, c.store.CurrentPath(), Options{Force: true, SuppressHistory: true})
}

// Back replays the previous history entry with pushing suppressed.
func (c *Controller) Back(ctx context.Context) (models.Listing, error) {
	entry, ok := c.history.Back()
	if !ok {
		return models.Listing{}, fmt.Errorf("no history entry to go back to")
	}
	return c.Navigate(ctx, entry.Path, Options{SuppressHistory: true})
}

// Forward replays the next history entry with pushing suppressed.
func (c *Controller) Forward(ctx context.Context) (models.Listing, error) {
	entry, ok := c.history.Forward()
	if !ok {
		return models.Listing{}, fmt.Errorf("no history entry to go forward to")
	}
	return c.Navigate(ctx, entry.Path, Options{SuppressHistory: true})
}

// NavigateURL handles direct URL entry and hard refreshes: it derives
// the storage path from the /dateien URL, seeds the history and loads
// the listing without pushing a second entry.
func (c *Controller) NavigateURL(ctx context.Context, url string, userID string) (models.Listing, error) {
	path, err := c.history.Resolve(url, userID)
	if err != nil {
		return models.Listing{}, err
	}
	return c.Navigate(ctx, path, Options{SuppressHistory: true})
}

// CancelAll aborts every in-flight load. Called on teardown of the
// browser view; no load survives it.
func (c *Controller) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path, l := range c.inflight {
		l.cancel()
		delete(c.inflight, path)
	}
}

// CancelAllForUser aborts the in-flight loads belonging to one user's
// session, leaving other users' loads untouched.
func (c *Controller) CancelAllForUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path, l := range c.inflight {
		if storage.PathUser(path) == userID {
			l.cancel()
			delete(c.inflight, path)
		}
	}
}

// ClearError dismisses the current error without retrying.
func (c *Controller) ClearError() {
	c.store.SetError("")
}

// State returns a snapshot of the navigation state.
func (c *Controller) State() NavigationState {
	c.mu.Lock()
	local := c.localPath
	c.mu.Unlock()

	return NavigationState{
		CurrentPath:  local,
		IsNavigating: c.store.IsLoading(),
		Error:        c.store.Error(),
		RetryCount:   c.store.RetryCount(),
	}
}

// InFlightCount returns the number of outstanding loads.
func (c *Controller) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
