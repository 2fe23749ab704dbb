package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
)

func TestReportService_EmptyPeriod(t *testing.T) {
	svc := NewReportService(newMemory(), newTestLogger())

	report, err := svc.MonthReport(context.Background(), core.Period("2025年07月"))
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}

	if len(report.Actual) != 0 {
		t.Errorf("Actual = %v, want empty", report.Actual)
	}
	if report.TotalActual.Yen != 0 {
		t.Errorf("TotalActual = %d, want 0", report.TotalActual.Yen)
	}
	if report.HasRatio {
		t.Error("HasRatio = true with no budget")
	}
	if len(report.Lines) != 0 {
		t.Errorf("Lines = %v, want none", report.Lines)
	}
}

func TestReportService_RemainingMayGoNegative(t *testing.T) {
	store := newMemory()
	period := core.Period("2025年07月")
	seedBudget(t, store, period, "食費", 1000)
	seedExpense(t, store, "2025-07-10", "食費", "買いすぎ", 1500)

	svc := NewReportService(store, newTestLogger())
	report, err := svc.MonthReport(context.Background(), period)
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}

	if report.Remaining.Yen != -500 {
		t.Errorf("Remaining = %d, want -500", report.Remaining.Yen)
	}
	if !report.HasRatio || report.Ratio != 1.0 {
		t.Errorf("Ratio = %v (has=%v), want capped 1.0", report.Ratio, report.HasRatio)
	}
}

func TestReportService_RatioBelowBudget(t *testing.T) {
	store := newMemory()
	period := core.Period("2025年07月")
	seedBudget(t, store, period, "食費", 2000)
	seedExpense(t, store, "2025-07-10", "食費", "", 500)

	svc := NewReportService(store, newTestLogger())
	report, err := svc.MonthReport(context.Background(), period)
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}

	if !report.HasRatio || report.Ratio != 0.25 {
		t.Errorf("Ratio = %v (has=%v), want 0.25", report.Ratio, report.HasRatio)
	}
}

func TestReportService_NoRatioWithoutBudget(t *testing.T) {
	store := newMemory()
	seedExpense(t, store, "2025-07-10", "食費", "", 500)

	svc := NewReportService(store, newTestLogger())
	report, err := svc.MonthReport(context.Background(), core.Period("2025年07月"))
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}

	if report.HasRatio {
		t.Errorf("HasRatio = true, Ratio = %v; want no ratio with zero budget", report.Ratio)
	}
	if report.Remaining.Yen != -500 {
		t.Errorf("Remaining = %d, want -500", report.Remaining.Yen)
	}
}

func TestReportService_LinesSkipZeroRowsInTaxonomyOrder(t *testing.T) {
	store := newMemory()
	period := core.Period("2025年07月")
	// 家賃 sits after 食費 in the taxonomy; seed in reverse to prove
	// ordering comes from the taxonomy, not insertion.
	seedBudget(t, store, period, "家賃", 85000)
	seedExpense(t, store, "2025-07-10", "食費", "", 1200)

	svc := NewReportService(store, newTestLogger())
	report, err := svc.MonthReport(context.Background(), period)
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}

	if len(report.Lines) != 2 {
		t.Fatalf("Lines = %d rows, want 2", len(report.Lines))
	}
	if report.Lines[0].Category != "食費" || report.Lines[1].Category != "家賃" {
		t.Errorf("line order = [%s, %s], want [食費, 家賃]",
			report.Lines[0].Category, report.Lines[1].Category)
	}
	if report.Lines[0].Balance.Yen != -1200 {
		t.Errorf("食費 balance = %d, want -1200", report.Lines[0].Balance.Yen)
	}
	if report.Lines[1].Balance.Yen != 85000 {
		t.Errorf("家賃 balance = %d, want 85000", report.Lines[1].Balance.Yen)
	}
}

func TestReportService_TotalsCountNonTaxonomyBudgets(t *testing.T) {
	store := newMemory()
	period := core.Period("2025年07月")
	seedBudget(t, store, period, "食費", 1000)
	// The budget editor accepts free-form rows; they count in totals
	// but never earn a detail line.
	seedBudget(t, store, period, "旅行積立", 5000)

	svc := NewReportService(store, newTestLogger())
	report, err := svc.MonthReport(context.Background(), period)
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}

	if report.TotalBudget.Yen != 6000 {
		t.Errorf("TotalBudget = %d, want 6000", report.TotalBudget.Yen)
	}
	for _, line := range report.Lines {
		if line.Category == "旅行積立" {
			t.Error("non-taxonomy budget must not appear in Lines")
		}
	}
}

func TestReportService_ActualOnlyCountsMatchingPeriod(t *testing.T) {
	store := newMemory()
	seedExpense(t, store, "2025-07-10", "食費", "", 100)
	seedExpense(t, store, "2025-06-10", "食費", "", 900)

	svc := NewReportService(store, newTestLogger())
	report, err := svc.MonthReport(context.Background(), core.Period("2025年07月"))
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}

	if report.TotalActual.Yen != 100 {
		t.Errorf("TotalActual = %d, want 100", report.TotalActual.Yen)
	}
}

func TestReportService_Months(t *testing.T) {
	store := newMemory()
	seedExpense(t, store, "2024-03-09", "食費", "", 100)
	seedExpense(t, store, "2024-03-20", "食費", "", 100)
	seedExpense(t, store, "2024-01-05", "食費", "", 100)
	seedExpense(t, store, "2025-07-01", "食費", "", 100)

	svc := NewReportService(store, newTestLogger())
	now := time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)

	months, err := svc.Months(context.Background(), now)
	if err != nil {
		t.Fatalf("Months() error = %v", err)
	}

	want := []core.Period{"2025年08月", "2025年07月", "2024年03月", "2024年01月"}
	if len(months) != len(want) {
		t.Fatalf("Months() = %v, want %v", months, want)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Errorf("Months()[%d] = %s, want %s", i, months[i], want[i])
		}
	}
}

func TestReportService_MonthsCurrentNotDuplicated(t *testing.T) {
	store := newMemory()
	seedExpense(t, store, "2025-08-01", "食費", "", 100)

	svc := NewReportService(store, newTestLogger())
	now := time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)

	months, err := svc.Months(context.Background(), now)
	if err != nil {
		t.Fatalf("Months() error = %v", err)
	}
	if len(months) != 1 || months[0] != core.Period("2025年08月") {
		t.Errorf("Months() = %v, want just [2025年08月]", months)
	}
}

func TestReportService_BudgetRowsCoverFullTaxonomy(t *testing.T) {
	store := newMemory()
	period := core.Period("2025年07月")
	seedBudget(t, store, period, "食費", 30000)
	seedExpense(t, store, "2025-07-10", "食費", "", 1200)

	svc := NewReportService(store, newTestLogger())
	rows, err := svc.BudgetRows(context.Background(), period)
	if err != nil {
		t.Fatalf("BudgetRows() error = %v", err)
	}

	cats := core.Categories()
	if len(rows) != len(cats) {
		t.Fatalf("BudgetRows() = %d rows, want %d", len(rows), len(cats))
	}
	for i, row := range rows {
		if row.Category != cats[i] {
			t.Errorf("row %d category = %s, want %s", i, row.Category, cats[i])
		}
	}
	if rows[0].Budget.Yen != 30000 || rows[0].Actual.Yen != 1200 {
		t.Errorf("食費 row = %+v, want budget 30000 actual 1200", rows[0])
	}
	if rows[1].Budget.Yen != 0 || rows[1].Actual.Yen != 0 {
		t.Errorf("unbudgeted row = %+v, want zeros", rows[1])
	}
}

func TestReportService_SaveBudgetsUpserts(t *testing.T) {
	store := newMemory()
	period := core.Period("2025年07月")
	svc := NewReportService(store, newTestLogger())

	entries := []core.BudgetEntry{
		{Period: period, Category: "食費", Amount: core.Money{Yen: 30000}},
		{Period: period, Category: "家賃", Amount: core.Money{Yen: 85000}},
	}
	if err := svc.SaveBudgets(context.Background(), entries); err != nil {
		t.Fatalf("SaveBudgets() error = %v", err)
	}

	// Second save overwrites, last write wins.
	entries[0].Amount = core.Money{Yen: 25000}
	if err := svc.SaveBudgets(context.Background(), entries[:1]); err != nil {
		t.Fatalf("SaveBudgets() error = %v", err)
	}

	budgets, err := store.BudgetsByPeriod(context.Background(), period)
	if err != nil {
		t.Fatalf("BudgetsByPeriod() error = %v", err)
	}
	if budgets["食費"].Yen != 25000 {
		t.Errorf("食費 budget = %d, want 25000", budgets["食費"].Yen)
	}
	if budgets["家賃"].Yen != 85000 {
		t.Errorf("家賃 budget = %d, want 85000", budgets["家賃"].Yen)
	}
}

func TestReportService_SaveBudgetsRejectsBadPeriod(t *testing.T) {
	svc := NewReportService(newMemory(), newTestLogger())

	err := svc.SaveBudgets(context.Background(), []core.BudgetEntry{
		{Period: "july", Category: "食費", Amount: core.Money{Yen: 1}},
	})
	if !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("error = %v, want core.ErrInvalidPeriod", err)
	}
}

func TestReportService_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("db locked")
	store := &failingStore{Store: newMemory(), listErr: boom}
	svc := NewReportService(store, newTestLogger())

	if _, err := svc.MonthReport(context.Background(), core.Period("2025年07月")); !errors.Is(err, boom) {
		t.Errorf("MonthReport() error = %v, want wrapped %v", err, boom)
	}
	if _, err := svc.Months(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Errorf("Months() error = %v, want wrapped %v", err, boom)
	}
}

// slowCountingStore delays reads so concurrent report builds overlap.
type slowCountingStore struct {
	ledger.Store
	mu    sync.Mutex
	lists int
}

func (s *slowCountingStore) ListAll(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	return s.Store.ListAll(ctx)
}

func TestReportService_ConcurrentBuildsCollapse(t *testing.T) {
	inner := newMemory()
	seedExpense(t, inner, "2025-07-10", "食費", "", 100)
	store := &slowCountingStore{Store: inner}
	svc := NewReportService(store, newTestLogger())

	const builders = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, builders)

	for i := 0; i < builders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.MonthReport(context.Background(), core.Period("2025年07月"))
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("MonthReport() error = %v", err)
		}
	}

	store.mu.Lock()
	lists := store.lists
	store.mu.Unlock()
	if lists >= builders {
		t.Errorf("store saw %d list reads for %d concurrent builds, want collapsed flights", lists, builders)
	}
}
