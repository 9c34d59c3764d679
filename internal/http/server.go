// Package http serves the investment tracker: full pages, the HTMX partials
// they load, the CSV export and signed screenshot links.
package http

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"oro/internal/blob"
	"oro/internal/cache"
	"oro/internal/log"
	"oro/internal/middleware/ratelimit"
	"oro/internal/middleware/security"
	"oro/internal/middleware/trace"
	"oro/internal/query"
	"oro/internal/services"
	"oro/internal/session"
	appweb "oro/web"
)

// Pinger is checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the routes call into.
type Deps struct {
	Records     *services.RecordSet
	Investments *services.InvestmentService
	Gate        *session.Gate
	Sessions    session.Service

	// Blobs and Signer serve /blobs links. Both nil disables the route,
	// for blob backends that hand out their own URLs.
	Blobs  blob.Opener
	Signer *blob.Signer

	Ready    Pinger
	URLCache *cache.LRUCache[string]
	Caches   *cache.Manager
}

// Options tunes the server.
type Options struct {
	Location       *time.Location
	PageSize       int
	MaxUploadBytes int64
	// LoginPerMinute caps login attempts per client address.
	LoginPerMinute int
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	opts      Options
	logger    *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	created       atomic.Int64
	deleted       atomic.Int64
	loginFailures atomic.Int64
	exports       atomic.Int64
	uptime        time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PageSize <= 0 {
		opts.PageSize = query.PageSize
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = services.DefaultMaxUploadBytes
	}
	if opts.LoginPerMinute <= 0 {
		opts.LoginPerMinute = 10
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Component: log.ComponentHTTP, Handler: slog.Default().Handler()})
	}

	mux := http.NewServeMux()
	s := &Server{
		deps:             deps,
		opts:             opts,
		logger:           opts.Logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.LoginPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, opts.Logger)

	t, err := template.New("").Funcs(templateFuncs(opts.Location)).ParseFS(appweb.TemplatesFS, appweb.TemplatePattern)
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := appweb.Static(); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	if deps.Blobs != nil && deps.Signer != nil {
		mux.Handle("GET /blobs/{path...}", blob.Handler(deps.Blobs, deps.Signer))
	}

	limitLogin := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleLoginLimited)
	mux.Handle("GET /login", security.NoStore(http.HandlerFunc(s.handleLoginPage)))
	mux.Handle("POST /login", limitLogin(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("POST /logout", s.handleLogout)

	protected := session.RequireSession(deps.Sessions)
	page := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protected(security.NoStore(h)))
	}
	page("GET /{$}", s.handleIndex)
	page("GET /ui/dashboard", s.handleDashboard)
	page("GET /ui/entries", s.handleEntries)
	page("GET /ui/entry-form", s.handleEntryForm)
	page("POST /entries", s.handleCreateEntry)
	page("GET /entries/{id}/delete", s.handleConfirmDelete)
	page("GET /entries/{id}/row", s.handleEntryRow)
	page("POST /entries/{id}/delete", s.handleDeleteEntry)
	page("DELETE /entries/{id}", s.handleDeleteEntry)
	page("GET /entries/{id}/screenshot", s.handleScreenshot)
	page("GET /export.csv", s.handleExport)

	var handler http.Handler = mux
	handler = s.securityDetector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the background cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.deps.Caches != nil {
			s.deps.Caches.Stop()
		}
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes the named template into a buffer so a failure can still
// produce a clean error response.
func (s *Server) render(ctx context.Context, name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(ctx, "Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
		return nil, err
	}
	return buf.Bytes(), nil
}

// requestLogger is the request-scoped logger set by the trace middleware,
// tagged for handler code.
func requestLogger(r *http.Request) *log.Logger {
	return log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
}

// writeHTML renders name and writes it with status.
func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := s.render(r.Context(), name, data)
	if err != nil {
		InternalServerError("Unable to render page").Write(w)
		return
	}
	NewHTMXResponse().Status(status).HTML(body).Write(w)
}
