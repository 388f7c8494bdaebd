package http

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/hausakte/hausakte/internal/constants"
)

// ErrorType represents different classes of errors for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates the operation succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeAuth indicates session/authorization failure (401, 403,
	// expired JWT, missing subscription). Never retried automatically.
	ErrorTypeAuth
	// ErrorTypeNetwork indicates connection issues (timeouts, resets)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates server errors worth retrying (5xx, 429)
	ErrorTypeRetryable
	// ErrorTypeFatal indicates client errors that should not be retried
	ErrorTypeFatal
)

// Config holds retry parameters for ExecuteWithRetry
type Config struct {
	// MaxRetries is the total number of attempts (default: 3).
	// After the final failed attempt the error is terminal.
	MaxRetries int
	// InitialDelay is the base delay for exponential backoff
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts
	MaxDelay time.Duration
	// OnRetry is invoked after each failed attempt with the 1-based
	// attempt number. Drives the observable retry counter.
	OnRetry func(attempt int, err error, errorType ErrorType)
}

// DefaultConfig returns a Config with the navigation defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   constants.NavigationMaxRetries,
		InitialDelay: constants.NavigationRetryInitialDelay,
		MaxDelay:     constants.NavigationRetryMaxDelay,
	}
}

// ClassifyError determines the error type for retry strategy.
// The string matching covers the error shapes produced by the hosted
// backend (Supabase storage + PostgREST) and net/http.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	errStr := strings.ToLower(err.Error())

	// Session / authorization errors - surface immediately, never retry
	if strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "jwt expired") ||
		strings.Contains(errStr, "invalid token") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "session expired") ||
		strings.Contains(errStr, "no active subscription") {
		return ErrorTypeAuth
	}

	// Network errors - retryable with backoff
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "tls handshake timeout") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	// Server-side errors and throttling - retryable
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "service unavailable") {
		return ErrorTypeRetryable
	}

	// Client errors - don't retry (bad request, not found, conflicts)
	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "409") ||
		strings.Contains(errStr, "invalid") {
		return ErrorTypeFatal
	}

	// Unknown errors - treat as fatal to avoid retry loops on surprises
	return ErrorTypeFatal
}

// CalculateBackoff returns exponential backoff duration with full jitter.
//
// Formula: random(0, min(maxDelay, initialDelay * 2^attempt))
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := time.Duration(1<<uint(attempt)) * initialDelay

	if base > maxDelay {
		base = maxDelay
	}
	if base <= 0 {
		return 0
	}

	return time.Duration(rand.Int63n(int64(base)))
}

// ExecuteWithRetry runs an operation with up to MaxRetries attempts.
//
// Retry strategy:
//   - Network/server errors: exponential backoff with full jitter
//   - Auth errors: return immediately (the user must re-authenticate)
//   - Fatal errors: return immediately
//   - Context cancellation: return immediately, also during backoff
func ExecuteWithRetry(ctx context.Context, config Config, operation func() error) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err
		errType := ClassifyError(err)

		switch errType {
		case ErrorTypeAuth, ErrorTypeFatal:
			return err

		case ErrorTypeNetwork, ErrorTypeRetryable:
			if config.OnRetry != nil {
				config.OnRetry(attempt, err, errType)
			}
			if attempt == config.MaxRetries {
				break
			}

			backoff := CalculateBackoff(attempt, config.InitialDelay, config.MaxDelay)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries, lastErr)
}

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
