package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/session"
)

// handleIndex renders the entry page: scan card, manual form, fixed
// costs and CSV exchange.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.URL.Path != "/" {
		if err := NotFoundError(w); err != nil {
			log.FromContext(r.Context()).Error("Failed to write response", log.FieldError, err)
		}
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		if err := MethodNotAllowedError(w, "GET"); err != nil {
			log.FromContext(r.Context()).Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	data := indexPage{
		Draft:       newDraftView(sess.Draft(), "", ""),
		ScanEnabled: s.ScanEnabled(),
		FixedCosts:  newFixedCostViews(s.fixedCosts.Items()),
		FixedTotal:  formatYen(s.fixedCosts.Total()),
		Today:       core.DateOf(s.now()).String(),
	}
	s.renderTemplate(w, r, "index.html", data)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	response := map[string]any{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int(time.Since(s.metrics.startTime).Seconds()),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode health response", log.FieldError, err)
	}
}

// handleReady reports readiness: templates parsed and the store
// answering a cheap read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	ready := true

	if s.templates.Lookup("index.html") != nil {
		checks["templates"] = "ok"
	} else {
		checks["templates"] = "missing index template"
		ready = false
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.reports.MonthReport(ctx, core.CurrentPeriod(s.now())); err != nil {
		checks["store"] = fmt.Sprintf("error: %v", err)
		ready = false
	} else {
		checks["store"] = "ok"
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode readiness response", log.FieldError, err)
	}
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	uptime := int(time.Since(s.metrics.startTime).Seconds())
	suspicious, rateLimited := s.secMetrics.snapshot()

	fmt.Fprintf(w, "# HELP kakeibo_uptime_seconds Time since the server started.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_uptime_seconds gauge\n")
	fmt.Fprintf(w, "kakeibo_uptime_seconds %d\n", uptime)

	fmt.Fprintf(w, "# HELP kakeibo_expenses_created_total Expenses committed through the UI.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_expenses_created_total counter\n")
	fmt.Fprintf(w, "kakeibo_expenses_created_total %d\n", s.metrics.expensesCreated.Load())

	fmt.Fprintf(w, "# HELP kakeibo_expenses_deleted_total Expenses deleted through the UI.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_expenses_deleted_total counter\n")
	fmt.Fprintf(w, "kakeibo_expenses_deleted_total %d\n", s.metrics.expensesDeleted.Load())

	fmt.Fprintf(w, "# HELP kakeibo_scans_total Receipt scans attempted.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_scans_total counter\n")
	fmt.Fprintf(w, "kakeibo_scans_total %d\n", s.metrics.scansTotal.Load())

	fmt.Fprintf(w, "# HELP kakeibo_scan_failures_total Receipt scans that failed extraction.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_scan_failures_total counter\n")
	fmt.Fprintf(w, "kakeibo_scan_failures_total %d\n", s.metrics.scanFailures.Load())

	fmt.Fprintf(w, "# HELP kakeibo_csv_rows_imported_total Rows accepted by CSV import.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_csv_rows_imported_total counter\n")
	fmt.Fprintf(w, "kakeibo_csv_rows_imported_total %d\n", s.metrics.rowsImported.Load())

	fmt.Fprintf(w, "# HELP kakeibo_active_sessions Sessions currently held in memory.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_active_sessions gauge\n")
	fmt.Fprintf(w, "kakeibo_active_sessions %d\n", s.sessions.Len())

	fmt.Fprintf(w, "# HELP kakeibo_rate_limited_clients Client IPs with tracked POST activity.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_rate_limited_clients gauge\n")
	fmt.Fprintf(w, "kakeibo_rate_limited_clients %d\n", s.limiter.activeClients())

	fmt.Fprintf(w, "# HELP kakeibo_suspicious_requests_total Requests flagged by heuristics.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_suspicious_requests_total counter\n")
	fmt.Fprintf(w, "kakeibo_suspicious_requests_total %d\n", suspicious)

	fmt.Fprintf(w, "# HELP kakeibo_rate_limit_hits_total Requests rejected by the rate limiter.\n")
	fmt.Fprintf(w, "# TYPE kakeibo_rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "kakeibo_rate_limit_hits_total %d\n", rateLimited)
}
