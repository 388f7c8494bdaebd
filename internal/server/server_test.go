package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hausakte/hausakte/internal/api"
	"github.com/hausakte/hausakte/internal/browser"
	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/history"
	internalhttp "github.com/hausakte/hausakte/internal/http"
	"github.com/hausakte/hausakte/internal/metrics"
	"github.com/hausakte/hausakte/internal/models"
	"github.com/hausakte/hausakte/internal/state"
)

type stubLoader struct {
	objects []models.StorageObject
	err     error
}

func (s *stubLoader) ListObjects(ctx context.Context, prefix string) ([]models.StorageObject, error) {
	return s.objects, s.err
}

func newTestServer(loader browser.Loader) *Server {
	eventBus := events.NewEventBus(100)
	store := state.NewBrowserState(eventBus)
	m := metrics.New()
	controller := browser.NewController(loader, store, history.New(), eventBus, m)
	controller.SetRetryConfig(internalhttp.Config{MaxRetries: 1})
	return New(":0", controller, m)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubLoader{})
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListingEndpoint(t *testing.T) {
	srv := newTestServer(&stubLoader{objects: []models.StorageObject{
		{ID: "user_1/docs/a.pdf", Name: "a.pdf", Size: 42, ParentPath: "user_1/docs"},
	}})
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listing?path=user_1/docs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp listingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Path != "user_1/docs" || resp.URL != "/dateien/docs" {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Files) != 1 || resp.TotalSize != 42 {
		t.Errorf("files = %v, total = %d", resp.Files, resp.TotalSize)
	}
	if resp.Breadcrumbs[len(resp.Breadcrumbs)-1].Path != resp.Path {
		t.Error("last breadcrumb must equal the listing path")
	}
}

func TestListingEndpointValidation(t *testing.T) {
	srv := newTestServer(&stubLoader{})

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listing", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing path: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listing?path=etc/passwd", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-namespaced path: status = %d", rec.Code)
	}
}

func TestListingEndpointAuthError(t *testing.T) {
	srv := newTestServer(&stubLoader{err: api.ErrSessionExpired})
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listing?path=user_1", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&stubLoader{})
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
