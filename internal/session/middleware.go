package session

import (
	"log/slog"
	"net/http"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// RequireSession rejects requests without a valid session. Page loads are
// redirected to the login page; HTMX requests get an HX-Redirect so the
// whole page navigates. A stale cookie is cleared on the way out.
func RequireSession(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc.IsValid(r) {
				next.ServeHTTP(w, r)
				return
			}

			if hasCookie(r) {
				slog.InfoContext(r.Context(), "Session expired or invalid, clearing cookie",
					"component", "session",
					"path", r.URL.Path)
				svc.Clear(w)
			}

			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", LoginPath)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		})
	}
}
