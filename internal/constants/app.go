package constants

import (
	"time"
)

// Application identity
const (
	// AppName is the binary and service name.
	AppName = "hausakte"

	// DefaultBucket is the storage bucket holding all tenant documents.
	DefaultBucket = "documents"

	// URLPrefix is the public URL prefix for the file browser.
	// Storage path user_<id>/a/b maps to /dateien/a/b.
	URLPrefix = "/dateien"
)

// Navigation retry configuration
const (
	// NavigationMaxRetries - automatic retries for a failed folder load.
	// After the ceiling the navigation settles into a terminal error state
	// that requires an explicit user retry.
	NavigationMaxRetries = 3

	// NavigationRetryInitialDelay - base delay before the first retry.
	NavigationRetryInitialDelay = 250 * time.Millisecond

	// NavigationRetryMaxDelay - cap for exponential backoff between retries.
	NavigationRetryMaxDelay = 5 * time.Second
)

// Backend request configuration
const (
	// RequestTimeout - per-request timeout for listing and metadata calls.
	// Downloads set their own timeout.
	RequestTimeout = 30 * time.Second

	// DownloadTimeout - per-file download timeout.
	DownloadTimeout = 10 * time.Minute

	// BulkConcurrency - parallel requests during a bulk operation.
	// One request per selected item is fired; this bounds the fan-out.
	BulkConcurrency = 8

	// BackendRatePerSec - steady request rate against the hosted backend.
	// Stays under the per-project throttle with headroom for other clients.
	BackendRatePerSec = 10.0

	// BackendBurstCapacity - tokens available for request bursts, sized so
	// a full bulk batch at BulkConcurrency never waits on the first round.
	BackendBurstCapacity = 20.0
)

// HTTP transport configuration
const (
	// HTTPIdleConnTimeout - how long idle connections are kept for reuse.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - TLS handshake deadline.
	HTTPTLSHandshakeTimeout = 15 * time.Second

	// HTTPExpectContinueTimeout - wait for HTTP 100-continue.
	HTTPExpectContinueTimeout = 2 * time.Second
)

// Event bus configuration
const (
	// EventBusDefaultBuffer - default per-subscriber channel buffer.
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - upper bound for per-subscriber channel buffers.
	EventBusMaxBuffer = 10000
)

// Import configuration
const (
	// ImportMaxRows - hard cap on rows accepted from a single CSV/XLSX file.
	ImportMaxRows = 10000
)
