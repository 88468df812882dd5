package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("storage: object not found")

// Store persists rendered exports under slash-separated keys.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	CleanupOlderThan(ctx context.Context, ttl time.Duration) ([]string, error)
}

// CleanKey normalises a key and rejects keys escaping the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", errors.New("storage: empty key")
	}
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", errors.New("storage: empty key")
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", errors.New("storage: key escapes root")
		}
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}
