// Package api provides the client for the hosted backend
// (object storage plus the relational REST surface).
package api

import (
	"errors"
	"strings"
)

// ErrSessionExpired indicates the service key or session token was
// rejected. Surfaced immediately; never retried.
var ErrSessionExpired = errors.New("Sitzung abgelaufen, bitte erneut anmelden")

// ErrNoSubscription indicates the account has no active subscription.
// Actions are disabled instead of retried.
var ErrNoSubscription = errors.New("kein aktives Abonnement")

// ErrObjectNotFound indicates the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// IsAuthError reports whether an error is a session/authorization
// failure that must not be retried.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNoSubscription) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"401",
		"403",
		"unauthorized",
		"jwt expired",
		"invalid token",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether an error indicates a missing object.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "404") || strings.Contains(errStr, "not found")
}
