package http

import (
	"errors"
	"io"
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/extractor"
	"kakeibo/internal/log"
	"kakeibo/internal/session"
)

// maxUploadBytes caps the multipart body: the image limit plus some
// headroom for form encoding.
const maxUploadBytes = extractor.MaxImageSize + 512*1024

// renderDraftForm re-renders the manual-entry fragment, optionally
// with a flash message. Every draft mutation responds with this so the
// form always reflects the session's staged draft.
func (s *Server) renderDraftForm(w http.ResponseWriter, r *http.Request, d core.Draft, flash, kind string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	data := newDraftView(d, flash, kind)
	if err := s.templates.ExecuteTemplate(w, "draft_form.html", data); err != nil {
		log.FromContext(r.Context()).Error("Failed to render draft form",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldError, err,
		)
	}
}

// handleScan accepts a receipt image, runs extraction and stages the
// result as the session's draft.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodPost {
		if err := MethodNotAllowedError(w, "POST"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	if !s.ScanEnabled() {
		if err := ErrorResponse(w, http.StatusServiceUnavailable,
			"レシートスキャンは無効です。GEMINI_API_KEY を設定してください。"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	clientIP := extractClientIP(r)
	if !s.scanLimiter.allow(clientIP, s.secMetrics) {
		logger.Warn("Scan rate limit exceeded", log.FieldClientIP, clientIP)
		if err := TooManyRequestsError(w, "60"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if err := BadRequestError(w, "画像の読み込みに失敗しました（最大5MB）"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		if err := BadRequestError(w, "レシート画像を選択してください"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		if err := BadRequestError(w, "画像の読み込みに失敗しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	s.metrics.scansTotal.Add(1)

	draft, err := s.extractor.Extract(r.Context(), imageData, header.Header.Get("Content-Type"))
	if err != nil {
		s.metrics.scanFailures.Add(1)
		logger.Warn("Receipt extraction failed",
			log.FieldSessionID, sess.ID(),
			log.FieldError, err,
		)
		s.renderDraftForm(w, r, sess.Draft(), scanErrorMessage(err), "error", http.StatusUnprocessableEntity)
		return
	}

	sess.Stage(draft)
	logger.Info("Receipt extracted",
		log.FieldOperation, log.OpExtract,
		log.FieldSessionID, sess.ID(),
		log.FieldCategory, draft.Category,
		log.FieldAmountYen, draft.Amount.Yen,
	)

	setTrigger(w, eventScanCompleted, map[string]string{"category": draft.Category})
	s.renderDraftForm(w, r, draft, "解析完了！内容を確認して登録してください。", "success", http.StatusOK)
}

// scanErrorMessage maps extraction failures to user-facing text.
func scanErrorMessage(err error) string {
	switch {
	case errors.Is(err, extractor.ErrImageTooLarge):
		return "画像サイズが大きすぎます（最大5MB）"
	case errors.Is(err, extractor.ErrUnsupportedFormat):
		return "対応していない画像形式です（JPEG または PNG を使用してください）"
	case errors.Is(err, extractor.ErrInvalidImageData):
		return "画像データが壊れています"
	default:
		return "解析に失敗しました。画像を確認してもう一度お試しください。"
	}
}

// handleDiscardDraft resets the session's draft to defaults.
func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodPost {
		if err := MethodNotAllowedError(w, "POST"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	sess.Discard(s.now())
	logger.Info("Draft discarded", log.FieldSessionID, sess.ID())

	setTrigger(w, eventDraftDiscarded, struct{}{})
	s.renderDraftForm(w, r, sess.Draft(), "入力内容をリセットしました", "info", http.StatusOK)
}
