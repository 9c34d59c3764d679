package blob

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"oro/internal/core"
)

// Opener gives read access to stored blobs.
type Opener interface {
	Open(path string) (*Object, error)
}

// Handler serves signed blob links. It must be mounted so that the blob
// path is available as the "path" wildcard, e.g. "GET /blobs/{path...}".
func Handler(store Opener, signer *Signer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.PathValue("path")
		if _, err := CleanPath(p); err != nil {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		q := r.URL.Query()
		if err := signer.Verify(p, q.Get("exp"), q.Get("sig")); err != nil {
			slog.WarnContext(r.Context(), "Rejected blob request", "path", p, "error", err)
			status := http.StatusForbidden
			if errors.Is(err, ErrExpired) {
				status = http.StatusGone
			}
			http.Error(w, err.Error(), status)
			return
		}

		obj, err := store.Open(p)
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to open blob", "path", p, "error", err)
			http.Error(w, "unable to load blob", http.StatusInternalServerError)
			return
		}
		defer obj.Close()

		if obj.ContentType != "" {
			w.Header().Set("Content-Type", obj.ContentType)
		}
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.Header().Set("Content-Security-Policy", "sandbox; default-src 'none'; img-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		name := p[strings.LastIndex(p, "/")+1:]
		http.ServeContent(w, r, name, obj.ModTime, obj)
	})
}
