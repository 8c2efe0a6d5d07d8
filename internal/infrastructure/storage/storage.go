// Package storage implements blob storage for generated invoice PDFs and
// uploaded logos. Objects are addressed by key on write and by their public
// URL afterwards, which is what the database stores.
package storage

import (
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrObjectNotFound is returned by Get when no object exists at the URL
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrForeignURL is returned when a URL does not belong to the store
	ErrForeignURL = errors.New("storage: url does not belong to this store")
	// ErrEmptyKey is returned when a write has no key
	ErrEmptyKey = errors.New("storage: key is required")
)

// objectURL joins base and key, escaping each key segment
func objectURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// keyFromURL is the inverse of objectURL
func keyFromURL(base, raw string) (string, error) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(raw, prefix) {
		return "", ErrForeignURL
	}
	escaped := strings.TrimPrefix(raw, prefix)
	if i := strings.IndexAny(escaped, "?#"); i >= 0 {
		escaped = escaped[:i]
	}
	key, err := url.PathUnescape(escaped)
	if err != nil || key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}
