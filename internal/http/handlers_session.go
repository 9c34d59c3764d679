package http

import (
	"errors"
	"net/http"

	"oro/internal/log"
	"oro/internal/session"
)

type loginView struct {
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions.IsValid(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.writeHTML(w, r, http.StatusOK, "login.html", loginView{})
}

// handleLogin checks the submitted code and starts a session. Failures
// re-render the form fragment with the error inline.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeLoginError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	logger := requestLogger(r)
	if err := s.deps.Gate.Check(ctx, r.PostForm.Get("code")); err != nil {
		if errors.Is(err, session.ErrInvalidCode) {
			s.appMetrics.loginFailures.Add(1)
			logger.WarnContext(ctx, "Invalid security code",
				log.FieldOperation, log.OpLogin,
				log.FieldClientIP, s.securityDetector.ExtractClientIP(r))
			s.writeLoginError(w, r, http.StatusUnauthorized, "Invalid security code")
			return
		}
		logger.ErrorContext(ctx, "Failed to verify security code",
			log.FieldOperation, log.OpLogin,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase)
		s.writeLoginError(w, r, http.StatusInternalServerError, "Failed to verify security code")
		return
	}

	if err := s.deps.Sessions.Start(w); err != nil {
		logger.ErrorContext(ctx, "Failed to start session",
			log.FieldOperation, log.OpLogin,
			log.FieldError, err)
		s.writeLoginError(w, r, http.StatusInternalServerError, "Failed to start session")
		return
	}

	logger.InfoContext(ctx, "Session started", log.FieldOperation, log.OpLogin)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLoginLimited(w http.ResponseWriter, r *http.Request) {
	s.writeLoginError(w, r, http.StatusTooManyRequests, "Too many attempts, please wait a minute")
}

// writeLoginError answers HTMX with the form fragment and plain posts with
// the full page.
func (s *Server) writeLoginError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	name := "login.html"
	if isHTMX(r) {
		name = "login_form"
	}
	s.writeHTML(w, r, status, name, loginView{Error: msg})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Sessions.Clear(w)
	requestLogger(r).InfoContext(r.Context(), "Session cleared", log.FieldOperation, log.OpLogout)
	if isHTMX(r) {
		NewHTMXResponse().Redirect(session.LoginPath).Write(w)
		return
	}
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
}
