package ports

import (
	"context"
	"io"
	"time"

	"oro/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordStore persists investment records.
	RecordStore interface {
		// Insert stores a validated record and returns it with ID and CreatedAt set.
		Insert(ctx context.Context, r core.NewRecord) (core.Investment, error)
		// ListAll returns every record ordered by CreatedAt descending.
		ListAll(ctx context.Context) ([]core.Investment, error)
		// Get returns a single record or core.ErrNotFound.
		Get(ctx context.Context, id int64) (core.Investment, error)
		// Delete removes a record; core.ErrNotFound when absent.
		Delete(ctx context.Context, id int64) error
	}

	// SettingsStore reads and writes application settings.
	SettingsStore interface {
		// SecurityCode returns the stored access code (plain digits or a bcrypt hash).
		SecurityCode(ctx context.Context) (string, error)
		SetSecurityCode(ctx context.Context, value string) error
	}

	// BlobStore keeps receipt screenshots.
	BlobStore interface {
		Upload(ctx context.Context, path, contentType string, r io.Reader) error
		// SignedURL returns a URL granting read access to path for ttl.
		SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
		Remove(ctx context.Context, paths ...string) error
	}
)
