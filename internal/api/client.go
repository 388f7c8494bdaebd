package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/hausakte/hausakte/internal/config"
	"github.com/hausakte/hausakte/internal/constants"
	internalhttp "github.com/hausakte/hausakte/internal/http"
	"github.com/hausakte/hausakte/internal/logging"
	"github.com/hausakte/hausakte/internal/models"
	"github.com/hausakte/hausakte/internal/ratelimit"
)

// retryLogger adapts our logger to the retryablehttp.LeveledLogger interface.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Request-level chatter stays at debug.
	l.logger.Debug().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func fieldMap(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			fields[k] = keysAndValues[i+1]
		}
	}
	return fields
}

// Client talks to the hosted backend: the storage API for documents and
// the REST surface for relational bulk operations.
//
// The client performs no automatic retries. The navigation controller
// owns the retry policy so the retry counter it exposes matches the
// requests actually sent.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	bucket     string
	serviceKey string
	limiter    *ratelimit.Limiter
	logger     *logging.Logger
}

// NewClient creates a backend client from the configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger("api")

	rc := retryablehttp.NewClient()
	rc.HTTPClient = internalhttp.NewPooledClient()
	rc.RetryMax = 0
	rc.Logger = &retryLogger{logger: logger}

	return &Client{
		httpClient: rc,
		baseURL:    strings.TrimRight(cfg.BackendURL, "/"),
		bucket:     cfg.Bucket,
		serviceKey: cfg.ServiceKey,
		limiter:    ratelimit.NewLimiter(constants.BackendRatePerSec, constants.BackendBurstCapacity),
		logger:     logger,
	}, nil
}

// throttle waits for request capacity. Every outgoing request passes
// through here so bulk fan-out cannot exceed the backend limits.
func (c *Client) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// listedObject is the wire shape of one storage listing entry.
type listedObject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // full object key relative to the bucket
	UpdatedAt time.Time `json:"updated_at"`
	Metadata  struct {
		Size int64 `json:"size"`
	} `json:"metadata"`
}

// ListObjects returns every object below the given prefix.
// Virtual folders are derived client-side from the returned keys.
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]models.StorageObject, error) {
	body := map[string]interface{}{
		"prefix":    prefix,
		"recursive": true,
		"sortBy":    map[string]string{"column": "name", "order": "asc"},
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/list/%s", c.baseURL, c.bucket)
	var listed []listedObject
	if err := c.doJSON(ctx, nethttp.MethodPost, endpoint, body, &listed); err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}

	objects := make([]models.StorageObject, 0, len(listed))
	for _, item := range listed {
		parent, name := splitKey(item.Name)
		objects = append(objects, models.StorageObject{
			ID:         item.ID,
			Name:       name,
			Size:       item.Metadata.Size,
			UpdatedAt:  item.UpdatedAt,
			ParentPath: parent,
		})
	}
	return objects, nil
}

// DownloadObject streams a single object. The caller must close the reader.
func (c *Client) DownloadObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, escapeKey(key))

	if err := c.throttle(ctx); err != nil {
		return nil, 0, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("download %q: %w", key, err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		defer resp.Body.Close()
		return nil, 0, c.statusError(resp)
	}

	return resp.Body, resp.ContentLength, nil
}

// DeleteObjects removes the given object keys. The backend treats the
// call per key; a missing key fails the whole call with 404.
func (c *Client) DeleteObjects(ctx context.Context, keys []string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s", c.baseURL, c.bucket)
	body := map[string][]string{"prefixes": keys}

	if err := c.doJSON(ctx, nethttp.MethodDelete, endpoint, body, nil); err != nil {
		return fmt.Errorf("failed to delete %d object(s): %w", len(keys), err)
	}
	return nil
}

// MoveObject renames an object within the bucket.
func (c *Client) MoveObject(ctx context.Context, fromKey, toKey string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/move", c.baseURL)
	body := map[string]string{
		"bucketId":       c.bucket,
		"sourceKey":      fromKey,
		"destinationKey": toKey,
	}

	if err := c.doJSON(ctx, nethttp.MethodPost, endpoint, body, nil); err != nil {
		return fmt.Errorf("failed to move %q to %q: %w", fromKey, toKey, err)
	}
	return nil
}

// UploadObject stores a new object under key.
func (c *Client) UploadObject(ctx context.Context, key string, r io.Reader) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, escapeKey(key))

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read upload body: %w", err)
	}

	if err := c.throttle(ctx); err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodPost, endpoint, data)
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusCreated {
		return c.statusError(resp)
	}
	return nil
}

// DeleteApartments removes apartments by ID through the REST surface.
func (c *Client) DeleteApartments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("%s/rest/v1/apartments?id=in.(%s)",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	if err := c.doJSON(ctx, nethttp.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %d apartment(s): %w", len(ids), err)
	}
	return nil
}

// InsertMeterReadings inserts validated meter readings.
func (c *Client) InsertMeterReadings(ctx context.Context, readings []models.MeterReading) error {
	if len(readings) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("%s/rest/v1/meter_readings", c.baseURL)

	data, err := json.Marshal(readings)
	if err != nil {
		return fmt.Errorf("failed to encode readings: %w", err)
	}

	if err := c.throttle(ctx); err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodPost, endpoint, data)
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insert readings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusCreated && resp.StatusCode != nethttp.StatusOK {
		return c.statusError(resp)
	}
	return nil
}

// doJSON issues a request with an optional JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	if err := c.throttle(ctx); err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	c.authorize(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// authorize sets the backend auth headers on a request.
func (c *Client) authorize(req *retryablehttp.Request) {
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
}

// statusError maps an error response to the error taxonomy.
func (c *Client) statusError(resp *nethttp.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))

	switch resp.StatusCode {
	case nethttp.StatusUnauthorized:
		return fmt.Errorf("%w (HTTP 401)", ErrSessionExpired)
	case nethttp.StatusForbidden:
		if strings.Contains(strings.ToLower(msg), "subscription") {
			return fmt.Errorf("%w (HTTP 403)", ErrNoSubscription)
		}
		return fmt.Errorf("%w (HTTP 403)", ErrSessionExpired)
	case nethttp.StatusNotFound:
		return fmt.Errorf("%w (HTTP 404)", ErrObjectNotFound)
	}

	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("backend returned HTTP %d: %s", resp.StatusCode, msg)
}

// splitKey splits a full object key into parent path and file name.
func splitKey(key string) (parent, name string) {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return "", key
	}
	return key[:idx], key[idx+1:]
}

// escapeKey escapes each path segment of an object key for use in a URL.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
