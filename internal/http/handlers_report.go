package http

import (
	"errors"
	"fmt"
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/session"
)

// handleReportPage renders the analysis page shell: month selector
// plus lazily loaded report, budget and history fragments.
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		if err := MethodNotAllowedError(w, "GET"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	selected := resolvePeriod(r, sess, s.now())
	months, err := s.reports.Months(r.Context(), s.now())
	if err != nil {
		logger.Error("Failed to list months", log.FieldError, err)
		if err := InternalServerError(w, "月の一覧を読み込めませんでした"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	s.renderTemplate(w, r, "report.html", reportPage{Months: months, Selected: selected})
}

// handleReportFragment renders budget-versus-actual totals and the
// per-category breakdown for the selected month.
func (s *Server) handleReportFragment(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodGet {
		if err := MethodNotAllowedError(w, "GET"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	period := resolvePeriod(r, sess, s.now())
	report, err := s.reports.MonthReport(r.Context(), period)
	if err != nil {
		logger.Error("Failed to build month report",
			log.FieldPeriod, string(period),
			log.FieldError, err,
		)
		if err := InternalServerError(w, "レポートの作成に失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	s.renderTemplate(w, r, "report_summary.html", newReportView(report))
}

// handleBudgetForm renders the budget editor for the selected month:
// one row per category plus a free row for ad-hoc entries.
func (s *Server) handleBudgetForm(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodGet {
		if err := MethodNotAllowedError(w, "GET"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	period := resolvePeriod(r, sess, s.now())
	rows, err := s.reports.BudgetRows(r.Context(), period)
	if err != nil {
		logger.Error("Failed to load budget rows",
			log.FieldPeriod, string(period),
			log.FieldError, err,
		)
		if err := InternalServerError(w, "予算の読み込みに失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	s.renderTemplate(w, r, "budget_form.html", newBudgetFormView(period, rows))
}

// handleSaveBudgets upserts the posted budget rows for one month.
// Rows with an empty category are skipped so the free row can stay
// blank.
func (s *Server) handleSaveBudgets(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodPost {
		if err := MethodNotAllowedError(w, "POST"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}
	if err := r.ParseForm(); err != nil {
		if err := BadRequestError(w, "フォームの読み込みに失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	period, err := core.ParsePeriod(sanitizeInput(r.FormValue("period")))
	if err != nil {
		if err := UnprocessableEntityError(w, "対象月が不正です"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	categories := r.Form["categories"]
	amounts := r.Form["amounts"]
	if len(categories) != len(amounts) {
		if err := BadRequestError(w, "フォームの内容が不正です"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	entries := make([]core.BudgetEntry, 0, len(categories))
	for i, rawCategory := range categories {
		category := sanitizeInput(rawCategory)
		if category == "" {
			continue
		}
		amount, err := core.ParseYen(sanitizeInput(amounts[i]))
		if err != nil {
			msg := fmt.Sprintf("「%s」の予算額が不正です", category)
			if err := UnprocessableEntityError(w, msg); err != nil {
				logger.Error("Failed to write response", log.FieldError, err)
			}
			return
		}
		entries = append(entries, core.BudgetEntry{
			Period:   period,
			Category: category,
			Amount:   amount,
		})
	}

	if err := s.reports.SaveBudgets(r.Context(), entries); err != nil {
		if errors.Is(err, core.ErrInvalidPeriod) || errors.Is(err, core.ErrNegativeAmount) {
			if err := UnprocessableEntityError(w, "予算の内容が不正です"); err != nil {
				logger.Error("Failed to write response", log.FieldError, err)
			}
			return
		}
		logger.Error("Failed to save budgets",
			log.FieldPeriod, string(period),
			log.FieldError, err,
		)
		if err := InternalServerError(w, "予算の保存に失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	sess.SelectPeriod(period)
	setTrigger(w, eventBudgetSaved, map[string]string{"period": string(period)})
	if err := SuccessResponse(w, "保存しました！"); err != nil {
		logger.Error("Failed to write response", log.FieldError, err)
	}
}
