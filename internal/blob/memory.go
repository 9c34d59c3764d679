package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"oro/internal/core"
	"oro/internal/ports"
)

type memBlob struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// MemoryStore keeps blobs in process.
type MemoryStore struct {
	mu     sync.Mutex
	blobs  map[string]memBlob
	signer *Signer
}

var _ ports.BlobStore = (*MemoryStore)(nil)

func NewMemoryStore(signer *Signer) *MemoryStore {
	return &MemoryStore{blobs: make(map[string]memBlob), signer: signer}
}

func (s *MemoryStore) Upload(_ context.Context, p, contentType string, r io.Reader) error {
	cleaned, err := CleanPath(p)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read blob %s: %w", p, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[cleaned]; ok {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	s.blobs[cleaned] = memBlob{data: data, contentType: contentType, modTime: time.Now()}
	return nil
}

func (s *MemoryStore) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	_, ok := s.blobs[p]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("blob %s: %w", p, core.ErrNotFound)
	}
	return s.signer.URL(p, ttl), nil
}

func (s *MemoryStore) Remove(_ context.Context, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.blobs, p)
	}
	return nil
}

func (s *MemoryStore) Open(p string) (*Object, error) {
	s.mu.Lock()
	b, ok := s.blobs[p]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", p, core.ErrNotFound)
	}
	return &Object{
		ReadSeekCloser: nopCloser{bytes.NewReader(b.data)},
		ContentType:    b.contentType,
		ModTime:        b.modTime,
	}, nil
}

// Has reports whether p is stored.
func (s *MemoryStore) Has(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[p]
	return ok
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }
