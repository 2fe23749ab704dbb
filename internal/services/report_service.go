package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
)

// BudgetRow is one line of the budget editor: a taxonomy category with
// its current ceiling and actual spend.
type BudgetRow struct {
	Category string
	Budget   core.Money
	Actual   core.Money
}

// ReportService builds the month summaries. Identical concurrent
// builds collapse into one store read: a page load fires several HTMX
// fragments that all want the same period.
type ReportService struct {
	store  ledger.Store
	logger *log.Logger
	flight singleflight.Group
}

func NewReportService(store ledger.Store, logger *log.Logger) *ReportService {
	return &ReportService{
		store:  store,
		logger: logger.WithComponent(log.ComponentReport),
	}
}

// MonthReport aggregates budget versus actual for one period.
func (s *ReportService) MonthReport(ctx context.Context, p core.Period) (core.MonthReport, error) {
	v, err, _ := s.flight.Do(string(p), func() (interface{}, error) {
		return s.buildReport(ctx, p)
	})
	if err != nil {
		return core.MonthReport{}, err
	}
	return v.(core.MonthReport), nil
}

func (s *ReportService) buildReport(ctx context.Context, p core.Period) (core.MonthReport, error) {
	expenses, budgets, err := s.read(ctx, p)
	if err != nil {
		return core.MonthReport{}, err
	}

	actual := make(map[string]core.Money)
	for _, e := range expenses {
		if e.Date.Period() != p {
			continue
		}
		actual[e.Category] = actual[e.Category].Add(e.Amount)
	}

	report := core.MonthReport{
		Period: p,
		Actual: actual,
		Budget: budgets,
	}

	// Totals sum the stored maps as-is. A budget row outside the
	// taxonomy still counts here even though it never gets a detail
	// line below.
	for _, m := range budgets {
		report.TotalBudget = report.TotalBudget.Add(m)
	}
	for _, m := range actual {
		report.TotalActual = report.TotalActual.Add(m)
	}
	report.Remaining = report.TotalBudget.Sub(report.TotalActual)

	if report.TotalBudget.Yen > 0 {
		ratio := float64(report.TotalActual.Yen) / float64(report.TotalBudget.Yen)
		if ratio > 1.0 {
			ratio = 1.0
		}
		report.Ratio = ratio
		report.HasRatio = true
	}

	for _, cat := range core.Categories() {
		b := budgets[cat]
		a := actual[cat]
		if b.IsZero() && a.IsZero() {
			continue
		}
		report.Lines = append(report.Lines, core.CategoryLine{
			Category: cat,
			Budget:   b,
			Actual:   a,
			Balance:  b.Sub(a),
		})
	}

	return report, nil
}

// read fetches expenses and budgets in parallel; both are needed for
// every report shape.
func (s *ReportService) read(ctx context.Context, p core.Period) ([]core.Expense, map[string]core.Money, error) {
	var (
		expenses []core.Expense
		budgets  map[string]core.Money
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.BudgetsByPeriod(gctx, p)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return expenses, budgets, nil
}

// Months lists the periods that have expenses, newest first, with the
// current month prepended when it has none yet so the picker always
// offers it.
func (s *ReportService) Months(ctx context.Context, now time.Time) ([]core.Period, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	seen := make(map[core.Period]bool)
	var months []core.Period
	for _, e := range all {
		p := e.Date.Period()
		if !seen[p] {
			seen[p] = true
			months = append(months, p)
		}
	}

	// The zero-padded token sorts lexicographically in date order.
	sort.Slice(months, func(i, j int) bool { return months[i] > months[j] })

	current := core.CurrentPeriod(now)
	if !seen[current] {
		months = append([]core.Period{current}, months...)
	}
	return months, nil
}

// BudgetRows returns the full taxonomy with each category's ceiling
// and actual spend; the budget editor always shows every category.
func (s *ReportService) BudgetRows(ctx context.Context, p core.Period) ([]BudgetRow, error) {
	report, err := s.MonthReport(ctx, p)
	if err != nil {
		return nil, err
	}

	rows := make([]BudgetRow, 0, len(core.Categories()))
	for _, cat := range core.Categories() {
		rows = append(rows, BudgetRow{
			Category: cat,
			Budget:   report.Budget[cat],
			Actual:   report.Actual[cat],
		})
	}
	return rows, nil
}

// SaveBudgets upserts every entry, last write wins per (period,
// category). Entries outside the taxonomy are stored as given; the
// report's totals count them, its detail lines do not.
func (s *ReportService) SaveBudgets(ctx context.Context, entries []core.BudgetEntry) error {
	for _, b := range entries {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("validate budget %s/%s: %w", b.Period, b.Category, err)
		}
		if err := s.store.UpsertBudget(ctx, b); err != nil {
			return fmt.Errorf("save budget %s/%s: %w", b.Period, b.Category, err)
		}
	}

	s.logger.InfoContext(ctx, "Budgets saved",
		log.FieldOperation, log.OpUpsert,
		log.FieldRowCount, len(entries))
	return nil
}
