package http

import (
	"net/http"

	"oro/internal/core"
	"oro/internal/log"
)

type dashboardView struct {
	Summary core.Summary
	Error   string
}

// handleDashboard renders the aggregate cards. It reloads after every
// records:changed event on the page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	snap, err := s.deps.Records.Load(ctx)
	if err != nil {
		status, msg := statusFor(err)
		requestLogger(r).ErrorContext(ctx, "Dashboard load failed",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
		s.writeHTML(w, r, status, "dashboard", dashboardView{Error: msg})
		return
	}

	s.writeHTML(w, r, http.StatusOK, "dashboard", dashboardView{Summary: core.Summarize(snap.Records)})
}
