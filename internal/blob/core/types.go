// Package core defines the object storage contract the report archive is
// written against.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver identifies a concrete object storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible bucket
	DriverMemory     Driver = "memory" // process memory (tests)
)

// PutOptions carries optional attributes stored alongside an object.
type PutOptions struct {
	ContentType string
	Labels      map[string]string
}

// Object describes a stored object.
type Object struct {
	Key         string            `json:"key"`
	Size        int64             `json:"size_bytes"`
	ContentType string            `json:"content_type,omitempty"`
	Checksum    string            `json:"checksum,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	ModifiedAt  time.Time         `json:"modified_at"`
}

// Store is a write-once object store keyed by slash separated paths.
type Store interface {
	// Put writes a new object. It fails with ErrExists when the key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error)
	// Open returns the object and a reader over its content.
	Open(ctx context.Context, key string) (Object, io.ReadCloser, error)
	// Stat returns the object without its content.
	Stat(ctx context.Context, key string) (Object, error)
	// Remove deletes an object and reports whether it existed.
	Remove(ctx context.Context, key string) (bool, error)
	// List returns the objects under prefix ordered by key.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Link returns a URL that reads the object for at least ttl.
	Link(ctx context.Context, key string, ttl time.Duration) (string, error)
	Driver() Driver
}

var (
	// ErrNotFound reports a missing object.
	ErrNotFound = errors.New("blob: object not found")
	// ErrExists reports a Put on a taken key.
	ErrExists = errors.New("blob: object already exists")
	// ErrUnsupported reports a capability the backend does not offer.
	ErrUnsupported = errors.New("blob: unsupported operation")
)

// CleanKey normalises a key and rejects empty, absolute and escaping keys.
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("blob: empty key")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("blob: absolute key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("blob: key %q escapes the store", key)
		}
	}
	return path.Clean(key), nil
}

// CloneLabels copies a label map, keeping nil as nil.
func CloneLabels(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
