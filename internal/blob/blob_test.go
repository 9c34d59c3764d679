package blob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"oro/internal/core"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNewPath(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	re := regexp.MustCompile(`^screenshots/1700000000123_[0-9a-f]{7}\.(png|jpg|bin)$`)

	cases := []struct {
		filename, fallback, ext string
	}{
		{"receipt.PNG", ".jpg", "png"},
		{"noext", ".jpg", "jpg"},
		{"weird.ex$e", ".png", "png"},
		{"", "", "bin"},
	}
	for _, tc := range cases {
		got := NewPath(now, tc.filename, tc.fallback)
		if !re.MatchString(got) || !strings.HasSuffix(got, "."+tc.ext) {
			t.Errorf("NewPath(%q, %q) = %q", tc.filename, tc.fallback, got)
		}
	}
	if NewPath(now, "a.png", "") == NewPath(now, "a.png", "") {
		t.Error("expected random suffix to differ")
	}
}

func TestCleanPath(t *testing.T) {
	valid := []string{"screenshots/1_abc.png", "a/b/c.jpg"}
	invalid := []string{"", "/etc/passwd", "../x", "a/../../x", "a//b", "a\\b", "."}
	for _, p := range valid {
		if _, err := CleanPath(p); err != nil {
			t.Errorf("CleanPath(%q) = %v", p, err)
		}
	}
	for _, p := range invalid {
		if _, err := CleanPath(p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("CleanPath(%q) = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("0123456789abcdef"), "/blobs")
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	link := s.URL("screenshots/1_a.png", time.Hour)
	if !strings.HasPrefix(link, "/blobs/screenshots/1_a.png?exp=4600&sig=") {
		t.Fatalf("URL = %q", link)
	}
	sig := link[strings.Index(link, "sig=")+4:]

	if err := s.Verify("screenshots/1_a.png", "4600", sig); err != nil {
		t.Fatalf("Verify valid = %v", err)
	}
	if err := s.Verify("screenshots/2_a.png", "4600", sig); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("Verify other path = %v", err)
	}
	if err := s.Verify("screenshots/1_a.png", "9999", sig); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("Verify tampered exp = %v", err)
	}

	now = time.Unix(5000, 0)
	if err := s.Verify("screenshots/1_a.png", "4600", sig); !errors.Is(err, ErrExpired) {
		t.Fatalf("Verify expired = %v", err)
	}
}

func TestFSStore_RoundTrip(t *testing.T) {
	signer := NewSigner([]byte("0123456789abcdef"), "/blobs")
	store, err := NewFSStore(t.TempDir(), signer)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()
	p := "screenshots/1_abc.png"

	if err := store.Upload(ctx, p, "image/png", strings.NewReader(string(pngHeader))); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.Upload(ctx, p, "image/png", strings.NewReader("x")); !errors.Is(err, ErrExists) {
		t.Fatalf("second Upload = %v, want ErrExists", err)
	}

	link, err := store.SignedURL(ctx, p, time.Hour)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /blobs/{path...}", Handler(store, signer))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, link, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET signed link status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.HasPrefix(csp, "sandbox") {
		t.Fatalf("Content-Security-Policy = %q, want a sandbox policy", csp)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/blobs/"+p+"?exp=1&sig=00", nil))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("GET unsigned status = %d, want 403", rr.Code)
	}

	if err := store.Remove(ctx, p, "screenshots/missing.png"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.SignedURL(ctx, p, time.Hour); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("SignedURL after remove = %v, want ErrNotFound", err)
	}
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	store, _ := NewFSStore(t.TempDir(), NewSigner([]byte("k"), "/blobs"))
	err := store.Upload(context.Background(), "../escape.png", "image/png", strings.NewReader("x"))
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("Upload traversal = %v, want ErrInvalidPath", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(NewSigner([]byte("k"), "/blobs"))
	ctx := context.Background()
	p := "screenshots/2_def.jpg"

	if _, err := store.SignedURL(ctx, p, time.Hour); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("SignedURL missing = %v", err)
	}
	if err := store.Upload(ctx, p, "image/jpeg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !store.Has(p) {
		t.Fatal("expected blob stored")
	}
	obj, err := store.Open(p)
	if err != nil || obj.ContentType != "image/jpeg" {
		t.Fatalf("Open = %+v, %v", obj, err)
	}
	obj.Close()
	store.Remove(ctx, p)
	if store.Has(p) {
		t.Fatal("expected blob removed")
	}
}
