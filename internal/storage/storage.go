package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored snapshot object. Metadata keys are lower case.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	Metadata     map[string]string
}

type PutOptions struct {
	ContentType string
	// Metadata is stored alongside the object and returned by Stat.
	Metadata map[string]string
}

// ObjectStore is the blob layer that holds parquet snapshots.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete is a no-op for keys that do not exist.
	Delete(ctx context.Context, key string) error
	// List returns the objects whose keys start with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// NormalizeMetadata lower-cases keys and drops blank ones so values written
// through one backend read back identically from another.
func NormalizeMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for key, value := range metadata {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}
