package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
)

// ErrMalformedCSV reports an import file that could not be read as a
// whole. Row-level detail goes to the log, not to the user.
var ErrMalformedCSV = errors.New("malformed CSV file")

// csvHeader is the exported column set; imports expect the same.
var csvHeader = []string{"id", "date", "category", "item", "amount"}

// utf8BOM lets spreadsheet tools detect the encoding; without it Excel
// mangles the Japanese category names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVService moves expenses in and out as CSV.
type CSVService struct {
	store  ledger.Store
	logger *log.Logger
}

func NewCSVService(store ledger.Store, logger *log.Logger) *CSVService {
	return &CSVService{
		store:  store,
		logger: logger.WithComponent(log.ComponentCSV),
	}
}

// Export writes every expense to w, BOM and header first, and returns
// the number of data rows written.
func (s *CSVService) Export(ctx context.Context, w io.Writer) (int, error) {
	expenses, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return 0, fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for _, e := range expenses {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			e.Category,
			e.Item,
			strconv.FormatInt(e.Amount.Yen, 10),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}

	s.logger.InfoContext(ctx, "Expenses exported",
		log.FieldOperation, log.OpExport,
		log.FieldRowCount, len(expenses))
	return len(expenses), nil
}

// Import appends every row of r as a new expense. The whole file is
// parsed and validated before the first insert, so a malformed file
// changes nothing; ids in the file are ignored and reassigned, and
// duplicates are deliberately not detected. A store failure mid-append
// leaves the earlier rows committed.
func (s *CSVService) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read upload: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	records, err := cr.ReadAll()
	if err != nil {
		s.logger.WarnContext(ctx, "CSV unreadable",
			log.FieldOperation, log.OpImport,
			log.FieldError, err)
		return 0, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: empty file", ErrMalformedCSV)
	}
	if !matchesHeader(records[0]) {
		s.logger.WarnContext(ctx, "CSV header mismatch",
			log.FieldOperation, log.OpImport,
			log.FieldError, fmt.Errorf("got %v", records[0]))
		return 0, fmt.Errorf("%w: unexpected header", ErrMalformedCSV)
	}

	expenses := make([]core.Expense, 0, len(records)-1)
	for i, record := range records[1:] {
		e, err := parseCSVRow(record)
		if err != nil {
			s.logger.WarnContext(ctx, "CSV row invalid",
				log.FieldOperation, log.OpImport,
				log.FieldRowCount, i+2,
				log.FieldError, err)
			return 0, ErrMalformedCSV
		}
		expenses = append(expenses, e)
	}

	imported := 0
	for _, e := range expenses {
		if _, err := s.store.Append(ctx, e); err != nil {
			return imported, fmt.Errorf("import expense: %w", err)
		}
		imported++
	}

	s.logger.InfoContext(ctx, "Expenses imported",
		log.FieldOperation, log.OpImport,
		log.FieldRowCount, imported)
	return imported, nil
}

func matchesHeader(record []string) bool {
	if len(record) != len(csvHeader) {
		return false
	}
	for i, col := range csvHeader {
		if record[i] != col {
			return false
		}
	}
	return true
}

// parseCSVRow maps one record to an expense. The id column is read
// past, never trusted; unknown categories coerce to the fallback.
func parseCSVRow(record []string) (core.Expense, error) {
	if len(record) != len(csvHeader) {
		return core.Expense{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}

	date, err := core.ParseDate(record[1])
	if err != nil {
		return core.Expense{}, fmt.Errorf("date %q: %w", record[1], err)
	}

	amount, err := core.ParseYen(record[4])
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount %q: %w", record[4], err)
	}

	return core.Expense{
		Date:     date,
		Category: core.NormalizeCategory(record[2]),
		Item:     record[3],
		Amount:   amount,
	}, nil
}
