package backend

import (
	"fmt"

	"oro/internal/config"
)

// DefaultBlobBaseURL is where signed blob links are served.
const DefaultBlobBaseURL = "/blobs"

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	blobType := BlobType(appConfig.BlobBackend)
	if !blobType.IsValid() {
		return Config{}, fmt.Errorf("invalid blob backend in config: %s", appConfig.BlobBackend)
	}

	return Config{
		Type:           backendType,
		SQLiteDBPath:   appConfig.SQLiteDBPath,
		BlobType:       blobType,
		BlobDirectory:  appConfig.BlobDir,
		BlobSigningKey: []byte(appConfig.BlobSigningKey),
		BlobBaseURL:    DefaultBlobBaseURL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.BlobType.IsValid() {
		return fmt.Errorf("invalid blob type: %s", c.BlobType)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.BlobType == FSBlobs && c.BlobDirectory == "" {
		return fmt.Errorf("blob directory is required for fs blobs")
	}
	if len(c.BlobSigningKey) == 0 {
		return fmt.Errorf("blob signing key is required")
	}
	return nil
}
