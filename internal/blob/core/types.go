// Package core defines the document store abstraction shared by the blob
// backends. Catalogue imports are read from it and order exports written to it.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs" // local filesystem (default)
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3" // S3 / MinIO compatible
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory" // in-memory (tests)
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // small flat key-value pairs, e.g. order id
}

// SignedURLOptions holds options for generating a download URL.
type SignedURLOptions struct {
	Expiry time.Duration // default 15m; ignored by drivers without signing
}

// Info describes a stored document.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is a create-only document store keyed by slash separated paths.
type Store interface {
	// Put stores a new document at key and fails with ErrExists when the key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get returns the document and its metadata, or ErrNotFound.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes a document. Returns (false, nil) if it was absent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns documents whose key has prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// PresignURL returns a download URL for key or ErrUnsupported.
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

var (
	// ErrUnsupported is returned when an optional capability is not available.
	ErrUnsupported = errors.New("blobstore: unsupported operation")
	// ErrExists is returned by Put when the key is already taken.
	ErrExists = errors.New("blobstore: key already exists")
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("blobstore: key not found")
)
