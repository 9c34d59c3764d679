package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"oro/internal/config"
	"oro/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:    "sqlite",
		SQLiteDBPath:   "./data/oro.db",
		BlobBackend:    "fs",
		BlobDir:        "./data/blobs",
		BlobSigningKey: "0123456789abcdef",
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != SQLiteBackend || got.BlobType != FSBlobs || got.BlobBaseURL != DefaultBlobBaseURL {
		t.Errorf("unexpected config %+v", got)
	}

	cfg.BlobBackend = "s3"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Error("expected error for unknown blob backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory ok", Config{Type: MemoryBackend, BlobType: MemoryBlobs, BlobSigningKey: []byte("k")}, ""},
		{"bad type", Config{Type: "sheets", BlobType: MemoryBlobs, BlobSigningKey: []byte("k")}, "invalid backend type"},
		{"sqlite without path", Config{Type: SQLiteBackend, BlobType: MemoryBlobs, BlobSigningKey: []byte("k")}, "SQLite database path"},
		{"fs without dir", Config{Type: MemoryBackend, BlobType: FSBlobs, BlobSigningKey: []byte("k")}, "blob directory"},
		{"no key", Config{Type: MemoryBackend, BlobType: MemoryBlobs}, "signing key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, tt := range []Config{
		{Type: MemoryBackend, BlobType: MemoryBlobs, BlobSigningKey: []byte("0123456789abcdef"), BlobBaseURL: "/blobs"},
		{
			Type:           SQLiteBackend,
			SQLiteDBPath:   filepath.Join(dir, "oro.db"),
			BlobType:       FSBlobs,
			BlobDirectory:  filepath.Join(dir, "blobs"),
			BlobSigningKey: []byte("0123456789abcdef"),
			BlobBaseURL:    "/blobs",
		},
	} {
		t.Run(string(tt.Type), func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(ctx, tt)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Close()

			if err := res.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
			inv, err := res.Store.Insert(ctx, core.NewRecord{Amount: decimal.NewFromInt(100), Category: core.CategoryGold})
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if _, err := res.Store.Get(ctx, inv.ID); err != nil {
				t.Fatalf("Get: %v", err)
			}
			if code, err := res.Store.SecurityCode(ctx); err != nil || code != "1234" {
				t.Fatalf("SecurityCode = %q, %v", code, err)
			}

			if err := res.Blobs.Upload(ctx, "screenshots/a.png", "image/png", strings.NewReader("png")); err != nil {
				t.Fatalf("Upload: %v", err)
			}
			u, err := res.Blobs.SignedURL(ctx, "screenshots/a.png", 0)
			if err != nil || !strings.HasPrefix(u, "/blobs/screenshots/a.png?") {
				t.Fatalf("SignedURL = %q, %v", u, err)
			}
		})
	}
}
