package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"oro/internal/blob"
	"oro/internal/storage"
	"oro/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	signer := blob.NewSigner(config.BlobSigningKey, config.BlobBaseURL)
	result := &BackendResult{Signer: signer}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		result.Store = repo
		result.Cleanup = repo.Close
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		result.Store = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	switch config.BlobType {
	case FSBlobs:
		fsStore, err := blob.NewFSStore(config.BlobDirectory, signer)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize blob directory: %w", err), result.Close())
		}
		result.Blobs = fsStore
		f.logger.InfoContext(ctx, "Initialized filesystem blob store", "directory", config.BlobDirectory)
	case MemoryBlobs:
		result.Blobs = blob.NewMemoryStore(signer)
		f.logger.InfoContext(ctx, "Initialized memory blob store")
	}

	return result, nil
}
