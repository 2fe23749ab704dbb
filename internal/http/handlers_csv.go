package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"kakeibo/internal/log"
	"kakeibo/internal/services"
)

// maxCSVBytes caps import uploads. A year of daily entries is a few
// kilobytes, so this is generous.
const maxCSVBytes = 10 * 1024 * 1024

// handleExportCSV streams the whole ledger as a UTF-8 CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodGet {
		if err := MethodNotAllowedError(w, "GET"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	filename := fmt.Sprintf("kakeibo_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	rows, err := s.csv.Export(r.Context(), w)
	if err != nil {
		// Headers are already out; all we can do is log.
		logger.Error("CSV export failed",
			log.FieldOperation, log.OpExport,
			log.FieldRowCount, rows,
			log.FieldError, err,
		)
		return
	}
	logger.Info("CSV exported", log.FieldRowCount, rows)
}

// handleImportCSV ingests an uploaded CSV. A malformed file is
// rejected as a whole; nothing is written.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodPost {
		if err := MethodNotAllowedError(w, "POST"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCSVBytes)
	if err := r.ParseMultipartForm(maxCSVBytes); err != nil {
		if err := BadRequestError(w, "ファイルの読み込みに失敗しました（最大10MB）"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		if err := BadRequestError(w, "CSVファイルを選択してください"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}
	defer file.Close()

	rows, err := s.csv.Import(r.Context(), file)
	s.metrics.rowsImported.Add(int64(rows))
	if err != nil {
		if errors.Is(err, services.ErrMalformedCSV) {
			logger.Warn("CSV import rejected", log.FieldError, err)
			if err := UnprocessableEntityError(w,
				"CSVの形式が不正です。エクスポートしたファイルと同じ形式を使用してください。"); err != nil {
				logger.Error("Failed to write response", log.FieldError, err)
			}
			return
		}
		logger.Error("CSV import failed",
			log.FieldOperation, log.OpImport,
			log.FieldRowCount, rows,
			log.FieldError, err,
		)
		if err := InternalServerError(w, "インポート中にエラーが発生しました"); err != nil {
			logger.Error("Failed to write response", log.FieldError, err)
		}
		return
	}

	setTrigger(w, eventCSVImported, map[string]int{"rows": rows})
	if err := SuccessResponse(w, fmt.Sprintf("%d件インポートしました", rows)); err != nil {
		logger.Error("Failed to write response", log.FieldError, err)
	}
}
