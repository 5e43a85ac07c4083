// Package storage holds what the blob store implementations share: the
// not-found sentinel and object key validation.
package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by GetObject when no object exists at the path.
var ErrNotFound = errors.New("object not found")

// CleanKey validates an object key and returns it in slash-separated clean
// form. Keys must be relative and must not escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("path %q must be relative", key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("path traversal detected in %q", key)
	}
	return cleaned, nil
}
