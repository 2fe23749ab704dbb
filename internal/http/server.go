// Package http serves the household ledger UI: a server-rendered page
// with HTMX fragments for receipt scanning, manual entry, monthly
// reports, budget editing and CSV exchange.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
	"kakeibo/internal/services"
	"kakeibo/internal/session"
	"kakeibo/web"
)

const sessionCookieName = "kakeibo_session"

const (
	defaultMaxSessions = 256
	defaultSessionTTL  = 12 * time.Hour

	// generalRateLimit bounds all POST traffic per client IP and
	// minute. scanRateLimit is stricter because each scan calls a
	// metered model API.
	generalRateLimit = 60
	scanRateLimit    = 5
)

// ReceiptExtractor turns an uploaded receipt image into a draft entry.
// A nil extractor disables the scan surface; everything else keeps
// working.
type ReceiptExtractor interface {
	Extract(ctx context.Context, imageData []byte, mimeType string) (core.Draft, error)
}

// Options configures a Server. Store is required; the zero value of
// everything else gets a sensible default.
type Options struct {
	Addr      string
	Store     ledger.Store
	Extractor ReceiptExtractor
	Sessions  *session.Store
	Logger    *log.Logger
	Now       func() time.Time
}

// Server wires the HTTP surface together: routing, templates,
// middleware, per-session draft state and the domain services.
type Server struct {
	http.Server

	templates *template.Template
	logger    *log.Logger
	now       func() time.Time

	sessions   *session.Store
	expenses   *services.ExpenseService
	reports    *services.ReportService
	fixedCosts *services.FixedCostService
	csv        *services.CSVService
	extractor  ReceiptExtractor

	limiter     *rateLimiter
	scanLimiter *rateLimiter
	secMetrics  *securityMetrics
	metrics     *appMetrics

	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// appMetrics tracks request-level counters exposed on /metrics.
type appMetrics struct {
	startTime       time.Time
	expensesCreated atomic.Int64
	expensesDeleted atomic.Int64
	scansTotal      atomic.Int64
	scanFailures    atomic.Int64
	rowsImported    atomic.Int64
}

// NewServer builds the full HTTP stack. It parses the embedded
// templates, constructs the domain services on top of the store and
// registers all routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore(defaultMaxSessions, defaultSessionTTL)
	}

	templates, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to mount static assets: %w", err)
	}

	manager := cache.NewManager()
	manager.Register(sessions)
	manager.StartCleanup(10 * time.Minute)

	s := &Server{
		templates:    templates,
		logger:       logger,
		now:          now,
		sessions:     sessions,
		expenses:     services.NewExpenseService(opts.Store, logger),
		reports:      services.NewReportService(opts.Store, logger),
		fixedCosts:   services.NewFixedCostService(opts.Store, logger),
		csv:          services.NewCSVService(opts.Store, logger),
		extractor:    opts.Extractor,
		limiter:      newRateLimiter(generalRateLimit, time.Minute),
		scanLimiter:  newRateLimiter(scanRateLimit, time.Minute),
		secMetrics:   &securityMetrics{},
		metrics:      &appMetrics{startTime: now()},
		cacheManager: manager,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/", s.withSecurityHeaders(s.withSession(s.handleIndex)))
	mux.HandleFunc("/scan", s.withSecurityHeaders(s.withSession(s.handleScan)))
	mux.HandleFunc("/expenses", s.withSecurityHeaders(s.withSession(s.handleCreateExpense)))
	mux.HandleFunc("/draft/discard", s.withSecurityHeaders(s.withSession(s.handleDiscardDraft)))

	mux.HandleFunc("/report", s.withSecurityHeaders(s.withSession(s.handleReportPage)))
	mux.HandleFunc("/ui/report", s.withSecurityHeaders(s.withSession(s.handleReportFragment)))
	mux.HandleFunc("/ui/budget-form", s.withSecurityHeaders(s.withSession(s.handleBudgetForm)))
	mux.HandleFunc("/budgets", s.withSecurityHeaders(s.withSession(s.handleSaveBudgets)))
	mux.HandleFunc("/ui/history", s.withSecurityHeaders(s.withSession(s.handleHistory)))
	mux.HandleFunc("/expenses/delete", s.withSecurityHeaders(s.withSession(s.handleDeleteExpenses)))
	mux.HandleFunc("/fixed-costs", s.withSecurityHeaders(s.withSession(s.handleFixedCosts)))

	mux.HandleFunc("/export.csv", s.withSecurityHeaders(s.handleExportCSV))
	mux.HandleFunc("/import", s.withSecurityHeaders(s.handleImportCSV))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.Handle("/static/", http.StripPrefix("/static/", cacheStatic(http.FileServer(http.FS(staticFS)))))

	s.Server = http.Server{
		Addr:         opts.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// ScanEnabled reports whether receipt scanning is wired up.
func (s *Server) ScanEnabled() bool {
	return s.extractor != nil
}

// Shutdown stops background workers and drains in-flight requests.
// Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		s.cacheManager.Stop()
		s.limiter.stop()
		s.scanLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// sessionHandler is a handler that has the caller's session resolved.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the session cookie, creating a fresh session
// (and setting the cookie) when the browser has none or its old one
// expired.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookieName); err == nil {
			id = c.Value
		}
		sess, created := s.sessions.GetOrCreate(id, s.now())
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sess.ID(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next(w, r, sess)
	}
}

// withSecurityHeaders is the outer middleware: request logging with a
// correlation ID, suspicious-request detection, POST rate limiting and
// the standard security headers.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With(
			log.FieldRequestID, requestID,
			log.FieldClientIP, clientIP,
		)
		r = r.WithContext(log.IntoContext(r.Context(), reqLogger))

		reqLogger.Info("Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldUserAgent, r.UserAgent(),
		)

		if suspicious, reason := detectSuspiciousRequest(r); suspicious {
			s.secMetrics.recordSuspiciousRequest()
			reqLogger.Warn("Suspicious request detected",
				"reason", reason,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
			)
		}

		if r.Method == http.MethodPost {
			if !s.limiter.allow(clientIP, s.secMetrics) {
				reqLogger.Warn("Rate limit exceeded", log.FieldPath, r.URL.Path)
				if err := TooManyRequestsError(w, "60"); err != nil {
					reqLogger.Error("Failed to write rate limit response", log.FieldError, err)
				}
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; "+
				"style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(wrapped, r)

		reqLogger.Info("Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, wrapped.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
		)
	}
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func cacheStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

// renderTemplate executes a named template, falling back to a plain
// 500 when rendering fails mid-stream.
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).Error("Failed to render template",
			log.FieldComponent, log.ComponentTemplate,
			"template", name,
			log.FieldError, err,
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
