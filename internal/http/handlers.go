package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"oro/internal/core"
	"oro/internal/log"
	"oro/internal/query"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.deps.Ready != nil {
		if err := s.deps.Ready.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not_configured"
	}

	if s.deps.URLCache != nil {
		checks["cache"] = map[string]any{
			"signed_url_entries": s.deps.URLCache.Size(),
			"status":             "ok",
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP investments_created_total Investments recorded through the form\n")
	fmt.Fprintf(w, "# TYPE investments_created_total counter\n")
	fmt.Fprintf(w, "investments_created_total %d\n\n", s.appMetrics.created.Load())

	fmt.Fprintf(w, "# HELP investments_deleted_total Investments deleted after confirmation\n")
	fmt.Fprintf(w, "# TYPE investments_deleted_total counter\n")
	fmt.Fprintf(w, "investments_deleted_total %d\n\n", s.appMetrics.deleted.Load())

	fmt.Fprintf(w, "# HELP csv_exports_total CSV exports served\n")
	fmt.Fprintf(w, "# TYPE csv_exports_total counter\n")
	fmt.Fprintf(w, "csv_exports_total %d\n\n", s.appMetrics.exports.Load())

	fmt.Fprintf(w, "# HELP login_failures_total Rejected security codes\n")
	fmt.Fprintf(w, "# TYPE login_failures_total counter\n")
	fmt.Fprintf(w, "login_failures_total %d\n\n", s.appMetrics.loginFailures.Load())

	if s.deps.Records != nil {
		fmt.Fprintf(w, "# HELP record_set_version Current record set version\n")
		fmt.Fprintf(w, "# TYPE record_set_version gauge\n")
		fmt.Fprintf(w, "record_set_version %d\n\n", s.deps.Records.Version())
	}

	if s.deps.URLCache != nil {
		hits, misses := s.deps.URLCache.Stats()
		fmt.Fprintf(w, "# HELP cache_hits_total Total signed URL cache hits\n")
		fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
		fmt.Fprintf(w, "cache_hits_total %d\n\n", hits)

		fmt.Fprintf(w, "# HELP cache_misses_total Total signed URL cache misses\n")
		fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
		fmt.Fprintf(w, "cache_misses_total %d\n\n", misses)

		fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
		fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
		fmt.Fprintf(w, "cache_entries{type=\"signed_url\"} %d\n\n", s.deps.URLCache.Size())
	}

	fmt.Fprintf(w, "# HELP rate_limit_rejections_total Login attempts rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejections_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejections_total %d\n\n", rateLimitMetrics.Rejected)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

type indexView struct {
	Dashboard dashboardView
	Entries   entriesView
	Form      formView
}

// handleIndex renders the whole tracker page. The dashboard and the list are
// rendered from one load of the record set so they agree.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		requestLogger(r).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	data := indexView{Form: s.newFormView()}
	snap, err := s.deps.Records.Load(ctx)
	if err != nil {
		_, msg := statusFor(err)
		data.Dashboard = dashboardView{Error: msg}
		data.Entries = s.newEntriesView(query.Result{State: query.NewState()}, msg)
	} else {
		st := s.stateFrom(r, snap.Version)
		data.Dashboard = dashboardView{Summary: core.Summarize(snap.Records)}
		data.Entries = s.newEntriesView(st.Apply(snap.Records), "")
	}

	s.writeHTML(w, r, http.StatusOK, "index.html", data)
}
