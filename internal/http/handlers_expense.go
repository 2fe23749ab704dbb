package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/session"
)

// handleCreateExpense commits the manual-entry form as an expense and
// resets the session draft for the next one.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
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

	draft, err := parseDraftForm(r)
	if err != nil {
		s.renderDraftForm(w, r, sess.Draft(), err.Error(), "error", http.StatusUnprocessableEntity)
		return
	}

	expense, err := s.expenses.Commit(r.Context(), draft)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			s.renderDraftForm(w, r, sess.Draft(), msg, "error", http.StatusUnprocessableEntity)
			return
		}
		logger.Error("Failed to commit expense", log.FieldError, err)
		s.renderDraftForm(w, r, sess.Draft(), "保存に失敗しました。もう一度お試しください。", "error", http.StatusInternalServerError)
		return
	}

	sess.Commit(draft)
	s.metrics.expensesCreated.Add(1)

	setTrigger(w, eventExpenseCreated, map[string]string{"period": string(expense.Date.Period())})
	flash := fmt.Sprintf("登録しました！（%s / %s）", formatYen(expense.Amount), expense.Category)
	s.renderDraftForm(w, r, sess.Draft(), flash, "success", http.StatusOK)
}

// validationMessage translates domain validation failures into
// user-facing Japanese. Store failures are not validation failures and
// return false.
func validationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "日付が不正です", true
	case errors.Is(err, core.ErrNegativeAmount):
		return "金額は0以上で入力してください", true
	case errors.Is(err, core.ErrInvalidAmount):
		return "金額が不正です", true
	case errors.Is(err, core.ErrUnknownCategory):
		return "カテゴリが不正です", true
	}
	return "", false
}

// setTrigger writes an HX-Trigger header with a single event and
// detail payload.
func setTrigger(w http.ResponseWriter, event string, detail any) {
	payload, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}

// handleHistory renders the expense list for the selected month with
// delete checkboxes.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodGet {
		if err := MethodNotAllowedError(w, "GET"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	period := resolvePeriod(r, sess, s.now())
	expenses, err := s.expenses.History(r.Context(), period)
	if err != nil {
		logger.Error("Failed to load history", log.FieldPeriod, string(period), log.FieldError, err)
		if err := InternalServerError(w, "履歴の読み込みに失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	s.renderTemplate(w, r, "history.html", newHistoryView(period, expenses))
}

// handleDeleteExpenses removes the checked rows and responds with the
// refreshed history fragment.
func (s *Server) handleDeleteExpenses(w http.ResponseWriter, r *http.Request, sess *session.Session) {
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

	period := resolvePeriod(r, sess, s.now())

	ids := parseIDList(r.Form["ids"])
	if len(ids) == 0 {
		if err := UnprocessableEntityError(w, "削除する項目を選択してください"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	processed, err := s.expenses.DeleteBatch(r.Context(), ids)
	s.metrics.expensesDeleted.Add(int64(processed))
	if err != nil {
		logger.Error("Failed to delete expenses",
			log.FieldRowCount, processed,
			log.FieldError, err,
		)
		if err := InternalServerError(w, "削除に失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	setTrigger(w, eventExpenseDeleted, map[string]any{"period": string(period), "count": processed})

	expenses, err := s.expenses.History(r.Context(), period)
	if err != nil {
		logger.Error("Failed to reload history", log.FieldError, err)
		if err := InternalServerError(w, "履歴の再読み込みに失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	view := newHistoryView(period, expenses)
	view.Flash = fmt.Sprintf("削除しました（%d件）", processed)
	view.FlashKind = "success"
	s.renderTemplate(w, r, "history.html", view)
}

// handleFixedCosts books the whole fixed-cost set on the chosen date.
func (s *Server) handleFixedCosts(w http.ResponseWriter, r *http.Request, sess *session.Session) {
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

	date, err := core.ParseDate(sanitizeInput(r.FormValue("date")))
	if err != nil {
		if err := UnprocessableEntityError(w, "日付が不正です"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	inserted, err := s.fixedCosts.Register(r.Context(), date)
	s.metrics.expensesCreated.Add(int64(len(inserted)))
	if err != nil {
		logger.Error("Fixed cost registration failed",
			log.FieldRowCount, len(inserted),
			log.FieldError, err,
		)
		if len(inserted) > 0 {
			msg := fmt.Sprintf("一部のみ登録されました（%d件）。履歴を確認してください。", len(inserted))
			if err := InternalServerError(w, msg); err != nil {
				logger.Error("Failed to write response", log.FieldError, err)
			}
			return
		}
		if err := InternalServerError(w, "固定費の登録に失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	setTrigger(w, eventExpenseCreated, map[string]string{"period": string(date.Period())})
	msg := fmt.Sprintf("固定費%d件を登録しました（合計 %s）", len(inserted), formatYen(s.fixedCosts.Total()))
	if err := SuccessResponse(w, msg); err != nil {
		logger.Error("Failed to write response", log.FieldError, err)
	}
}
