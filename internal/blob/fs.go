package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"oro/internal/core"
	"oro/internal/ports"
)

// FSStore keeps blobs as files below a root directory.
type FSStore struct {
	root   string
	signer *Signer
}

var _ ports.BlobStore = (*FSStore)(nil)

func NewFSStore(root string, signer *Signer) (*FSStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &FSStore{root: root, signer: signer}, nil
}

func (s *FSStore) file(p string) (string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Upload writes r to path. Existing blobs are never overwritten.
func (s *FSStore) Upload(ctx context.Context, p, contentType string, r io.Reader) error {
	name, err := s.file(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("create blob folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close blob %s: %w", p, err)
	}
	// Link fails if the target exists, giving no-overwrite semantics.
	if err := os.Link(tmp.Name(), name); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, p)
		}
		return fmt.Errorf("store blob %s: %w", p, err)
	}

	slog.DebugContext(ctx, "Blob stored", "path", p, "content_type", contentType)
	return nil
}

// SignedURL returns a signed link; core.ErrNotFound if the blob is missing.
func (s *FSStore) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	name, err := s.file(p)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("blob %s: %w", p, core.ErrNotFound)
		}
		return "", fmt.Errorf("stat blob %s: %w", p, err)
	}
	return s.signer.URL(p, ttl), nil
}

// Remove deletes the given blobs. Missing blobs are ignored.
func (s *FSStore) Remove(ctx context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		name, err := s.file(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove blob %s: %w", p, err))
			continue
		}
		slog.DebugContext(ctx, "Blob removed", "path", p)
	}
	return errors.Join(errs...)
}

// Open implements Opener.
func (s *FSStore) Open(p string) (*Object, error) {
	name, err := s.file(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", p, core.ErrNotFound)
		}
		return nil, fmt.Errorf("open blob %s: %w", p, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat blob %s: %w", p, err)
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("detect blob type %s: %w", p, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewind blob %s: %w", p, err)
	}
	return &Object{ReadSeekCloser: f, ContentType: mt.String(), ModTime: info.ModTime()}, nil
}
