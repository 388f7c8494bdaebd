package browser

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hausakte/hausakte/internal/api"
	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/history"
	internalhttp "github.com/hausakte/hausakte/internal/http"
	"github.com/hausakte/hausakte/internal/metrics"
	"github.com/hausakte/hausakte/internal/models"
	"github.com/hausakte/hausakte/internal/state"
)

// fakeLoader is a scriptable Loader. Each call counts; an optional
// block channel holds the call until released, and fail makes every
// call return the given error.
type fakeLoader struct {
	mu      sync.Mutex
	calls   atomic.Int64
	fail    error
	block   chan struct{}
	objects map[string][]models.StorageObject
}

func (f *fakeLoader) ListObjects(ctx context.Context, prefix string) ([]models.StorageObject, error) {
	f.calls.Add(1)

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return f.objects[prefix], nil
}

func fastRetry() internalhttp.Config {
	return internalhttp.Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
	}
}

func newTestController(loader Loader) (*Controller, *state.BrowserState, *history.History, *events.EventBus) {
	eventBus := events.NewEventBus(100)
	store := state.NewBrowserState(eventBus)
	hist := history.New()
	c := NewController(loader, store, hist, eventBus, metrics.New())
	c.SetRetryConfig(fastRetry())
	return c, store, hist, eventBus
}

func TestNavigateAppliesListingAndPushesHistory(t *testing.T) {
	loader := &fakeLoader{objects: map[string][]models.StorageObject{
		"user_1/docs": {
			{ID: "user_1/docs/a.pdf", Name: "a.pdf", Size: 10, ParentPath: "user_1/docs"},
		},
	}}
	c, store, hist, _ := newTestController(loader)

	listing, err := c.Navigate(context.Background(), "user_1/docs", Options{})
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if len(listing.Files) != 1 || listing.Files[0].Name != "a.pdf" {
		t.Fatalf("listing files = %+v", listing.Files)
	}

	if store.CurrentPath() != "user_1/docs" {
		t.Errorf("store path = %q", store.CurrentPath())
	}
	crumbs := store.Breadcrumbs()
	if len(crumbs) == 0 || crumbs[len(crumbs)-1].Path != store.CurrentPath() {
		t.Error("last breadcrumb must equal the current path")
	}
	if crumbs[0].Label != "Dateien" {
		t.Errorf("root crumb label = %q", crumbs[0].Label)
	}

	if hist.CurrentURL() != "/dateien/docs" {
		t.Errorf("CurrentURL = %q, want /dateien/docs", hist.CurrentURL())
	}
	if store.IsLoading() || store.Error() != "" {
		t.Error("loading and error must be clear after success")
	}
}

func TestNavigateCoalescesConcurrentRequests(t *testing.T) {
	loader := &fakeLoader{block: make(chan struct{})}
	c, _, _, _ := newTestController(loader)

	const waiters = 5
	var wg sync.WaitGroup
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Navigate(context.Background(), "user_1/docs", Options{})
		}(i)
	}

	// Let all goroutines reach the controller before releasing the load.
	deadline := time.Now().Add(2 * time.Second)
	for c.InFlightCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no load became in-flight")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(loader.block)
	wg.Wait()

	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1 (coalesced)", got)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("waiter %d: %v", i, err)
		}
	}
	if c.InFlightCount() != 0 {
		t.Error("in-flight map must be empty after completion")
	}
}

func TestNavigateRetriesThenFails(t *testing.T) {
	loader := &fakeLoader{fail: errors.New("connection reset by peer")}
	c, store, _, eventBus := newTestController(loader)

	retryCh := eventBus.Subscribe(events.EventNavigationRetrying)

	_, err := c.Navigate(context.Background(), "user_1/docs", Options{})
	if err == nil {
		t.Fatal("expected terminal error after exhausted retries")
	}

	if got := loader.calls.Load(); got != 3 {
		t.Errorf("loader calls = %d, want exactly 3 attempts", got)
	}
	if store.RetryCount() != 3 {
		t.Errorf("RetryCount = %d, want 3", store.RetryCount())
	}
	if store.Error() == "" || !strings.Contains(store.Error(), "Dateien konnten nicht geladen werden") {
		t.Errorf("store error = %q", store.Error())
	}
	if store.IsLoading() {
		t.Error("loading must be cleared on terminal failure")
	}

	// Three retry events with 1-based attempts.
	for want := 1; want <= 3; want++ {
		select {
		case ev := <-retryCh:
			nav := ev.(*events.NavigationEvent)
			if nav.Attempt != want || nav.MaxAttempts != 3 {
				t.Errorf("retry event = %d/%d, want %d/3", nav.Attempt, nav.MaxAttempts, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing retry event %d", want)
		}
	}
}

func TestNavigateAuthErrorNotRetried(t *testing.T) {
	loader := &fakeLoader{fail: api.ErrSessionExpired}
	c, store, _, _ := newTestController(loader)

	_, err := c.Navigate(context.Background(), "user_1/docs", Options{})
	if !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, auth errors must not be retried", got)
	}
	if store.Error() != api.ErrSessionExpired.Error() {
		t.Errorf("store error = %q, want the session message verbatim", store.Error())
	}
}

func TestLastRequestWins(t *testing.T) {
	blockA := make(chan struct{})
	loader := &blockingLoader{
		blocks: map[string]chan struct{}{"user_1/a": blockA},
		objects: map[string][]models.StorageObject{
			"user_1/a": {{ID: "user_1/a/x.pdf", Name: "x.pdf", ParentPath: "user_1/a"}},
			"user_1/b": {{ID: "user_1/b/y.pdf", Name: "y.pdf", ParentPath: "user_1/b"}},
		},
	}
	c, store, _, _ := newTestController(loader)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Navigate(context.Background(), "user_1/a", Options{})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.InFlightCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("navigation to user_1/a never started")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := c.Navigate(context.Background(), "user_1/b", Options{}); err != nil {
		t.Fatalf("Navigate b: %v", err)
	}

	close(blockA)
	<-done

	if store.CurrentPath() != "user_1/b" {
		t.Errorf("store path = %q, the stale result for user_1/a must not be applied", store.CurrentPath())
	}
	if got := len(store.Files()); got != 1 || store.Files()[0].Name != "y.pdf" {
		t.Errorf("store files = %v, want only y.pdf", store.Files())
	}
}

// blockingLoader blocks calls per path until the matching channel closes.
type blockingLoader struct {
	blocks  map[string]chan struct{}
	objects map[string][]models.StorageObject
}

func (b *blockingLoader) ListObjects(ctx context.Context, prefix string) ([]models.StorageObject, error) {
	if ch, ok := b.blocks[prefix]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return b.objects[prefix], nil
}

func TestCancelAll(t *testing.T) {
	loader := &fakeLoader{block: make(chan struct{})}
	c, _, _, _ := newTestController(loader)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Navigate(context.Background(), "user_1/docs", Options{})
		errCh <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.InFlightCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("load never became in-flight")
		}
		time.Sleep(time.Millisecond)
	}

	c.CancelAll()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("cancelled navigation must return an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("navigation did not unblock after CancelAll")
	}
	if c.InFlightCount() != 0 {
		t.Error("CancelAll must empty the in-flight map")
	}
}

func TestCancelAllForUser(t *testing.T) {
	loader := &fakeLoader{block: make(chan struct{})}
	c, _, _, _ := newTestController(loader)

	var wg sync.WaitGroup
	for _, path := range []string{"user_1/docs", "user_2/docs"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			c.Navigate(context.Background(), p, Options{})
		}(path)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.InFlightCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("loads never became in-flight")
		}
		time.Sleep(time.Millisecond)
	}

	c.CancelAllForUser("1")

	deadline = time.Now().Add(2 * time.Second)
	for c.InFlightCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("InFlightCount = %d, want 1 (only user_2 remains)", c.InFlightCount())
		}
		time.Sleep(time.Millisecond)
	}

	close(loader.block)
	wg.Wait()
}

func TestRefreshBypassesCoalescingAndHistory(t *testing.T) {
	loader := &fakeLoader{objects: map[string][]models.StorageObject{
		"user_1/docs": {{ID: "user_1/docs/a.pdf", Name: "a.pdf", ParentPath: "user_1/docs"}},
	}}
	c, _, hist, _ := newTestController(loader)

	if _, err := c.Navigate(context.Background(), "user_1/docs", Options{}); err != nil {
		t.Fatal(err)
	}
	lenBefore := hist.Len()

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := loader.calls.Load(); got != 2 {
		t.Errorf("loader calls = %d, refresh must fetch again", got)
	}
	if hist.Len() != lenBefore {
		t.Errorf("history grew from %d to %d on refresh", lenBefore, hist.Len())
	}
}

func TestBackForwardReplaysWithoutPushing(t *testing.T) {
	loader := &fakeLoader{objects: map[string][]models.StorageObject{}}
	c, store, hist, _ := newTestController(loader)

	ctx := context.Background()
	for _, p := range []string{"user_1", "user_1/docs", "user_1/docs/2024"} {
		if _, err := c.Navigate(ctx, p, Options{}); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := c.Back(ctx); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if store.CurrentPath() != "user_1/docs" {
		t.Errorf("path after back = %q", store.CurrentPath())
	}
	if hist.Len() != 3 {
		t.Errorf("history len = %d, back must not push", hist.Len())
	}

	if _, err := c.Forward(ctx); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if store.CurrentPath() != "user_1/docs/2024" {
		t.Errorf("path after forward = %q", store.CurrentPath())
	}
	if hist.CurrentURL() != "/dateien/docs/2024" {
		t.Errorf("CurrentURL = %q", hist.CurrentURL())
	}
}

func TestNavigateURLSeedsHistory(t *testing.T) {
	loader := &fakeLoader{objects: map[string][]models.StorageObject{}}
	c, store, hist, _ := newTestController(loader)

	if _, err := c.NavigateURL(context.Background(), "/dateien/invoices", "7"); err != nil {
		t.Fatalf("NavigateURL: %v", err)
	}
	if store.CurrentPath() != "user_7/invoices" {
		t.Errorf("path = %q", store.CurrentPath())
	}
	if hist.Len() != 1 {
		t.Errorf("history len = %d, want 1", hist.Len())
	}

	if _, err := c.NavigateURL(context.Background(), "/einstellungen", "7"); err == nil {
		t.Error("URLs outside the browser prefix must be rejected")
	}
}

func TestClearError(t *testing.T) {
	loader := &fakeLoader{fail: errors.New("503 service unavailable")}
	c, store, _, _ := newTestController(loader)

	c.Navigate(context.Background(), "user_1", Options{})
	if store.Error() == "" {
		t.Fatal("expected an error to be set")
	}

	c.ClearError()
	if store.Error() != "" || store.RetryCount() != 0 {
		t.Error("ClearError must reset error and retry counter")
	}
}
