package backend

import (
	"context"

	"oro/internal/blob"
	"oro/internal/ports"
)

// Store is a record store that also holds the app settings.
type Store interface {
	ports.RecordStore
	ports.SettingsStore
}

// BlobBackend is a blob store whose objects can be served back through
// signed links.
type BlobBackend interface {
	ports.BlobStore
	blob.Opener
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult holds the stores built for one process.
type BackendResult struct {
	Store   Store
	Blobs   BlobBackend
	Signer  *blob.Signer
	Cleanup CleanupFunc
}

// Ping checks the record store when it supports readiness checks.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r.Cleanup != nil {
		return r.Cleanup()
	}
	return nil
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Blob store
	BlobType       BlobType
	BlobDirectory  string
	BlobSigningKey []byte
	BlobBaseURL    string
}

// BackendType selects the record store.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// BlobType selects the blob store.
type BlobType string

const (
	FSBlobs     BlobType = "fs"
	MemoryBlobs BlobType = "memory"
)

func (bt BlobType) IsValid() bool {
	return bt == FSBlobs || bt == MemoryBlobs
}
