package storage

import (
	"fmt"
	"strings"

	"github.com/hausakte/hausakte/internal/constants"
)

// userPrefix namespaces every storage path with its owner.
const userPrefix = "user_"

// UserRoot returns the storage root path for a user, e.g. "user_42".
func UserRoot(userID string) string {
	return userPrefix + userID
}

// PathUser extracts the owning user ID from a storage path.
// Returns "" when the path is not user-namespaced.
func PathUser(path string) string {
	first := path
	if i := strings.Index(path, "/"); i >= 0 {
		first = path[:i]
	}
	if !strings.HasPrefix(first, userPrefix) {
		return ""
	}
	return strings.TrimPrefix(first, userPrefix)
}

// PathToURL maps a storage path to its public URL.
// "user_42/invoices" becomes "/dateien/invoices"; the bare root maps
// to "/dateien".
func PathToURL(path string) string {
	segments := strings.SplitN(path, "/", 2)
	if len(segments) < 2 || segments[1] == "" {
		return constants.URLPrefix
	}
	return constants.URLPrefix + "/" + segments[1]
}

// URLToPath maps a /dateien URL back to the storage path for a user.
// Inverse of PathToURL: URLToPath(PathToURL(p), PathUser(p)) == p.
func URLToPath(url string, userID string) (string, error) {
	if url != constants.URLPrefix && !strings.HasPrefix(url, constants.URLPrefix+"/") {
		return "", fmt.Errorf("url %q is outside the file browser", url)
	}

	rel := strings.TrimPrefix(url, constants.URLPrefix)
	rel = strings.Trim(rel, "/")

	if rel == "" {
		return UserRoot(userID), nil
	}
	return UserRoot(userID) + "/" + rel, nil
}
