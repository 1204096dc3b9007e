// Package shared provides common utility functions used across multiple
// packages in the cargo-add codebase.
package shared

import (
	"fmt"
	"strings"
)

// NormalizeCrateName lowercases a crate name and folds underscores into
// hyphens. The registry treats both spellings as the same crate.
func NormalizeCrateName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(lower, "_", "-")
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// HTTPStatusErrorWithBody creates a formatted error that includes the
// response body for non-2xx HTTP responses.
func HTTPStatusErrorWithBody(status int, url string, body string) error {
	return fmt.Errorf("status=%d url=%s response=%s", status, url, body)
}
