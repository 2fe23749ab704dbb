package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/ledger/memory"
	"kakeibo/internal/log"
)

func newTestLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

// failingStore delegates to an inner store but fails selected calls.
type failingStore struct {
	ledger.Store

	appendErr      error
	appendErrAfter int // appends to allow before failing
	appends        int

	listErr    error
	deleteErr  error
	budgetsErr error
}

func (f *failingStore) Append(ctx context.Context, e core.Expense) (int64, error) {
	if f.appendErr != nil && f.appends >= f.appendErrAfter {
		return 0, f.appendErr
	}
	f.appends++
	return f.Store.Append(ctx, e)
}

func (f *failingStore) ListAll(ctx context.Context) ([]core.Expense, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListAll(ctx)
}

func (f *failingStore) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, id)
}

func (f *failingStore) BudgetsByPeriod(ctx context.Context, p core.Period) (map[string]core.Money, error) {
	if f.budgetsErr != nil {
		return nil, f.budgetsErr
	}
	return f.Store.BudgetsByPeriod(ctx, p)
}

func seedExpense(t *testing.T, store ledger.Store, date, category, item string, yen int64) int64 {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	id, err := store.Append(context.Background(), core.Expense{
		Date:     d,
		Category: category,
		Item:     item,
		Amount:   core.Money{Yen: yen},
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	return id
}

func seedBudget(t *testing.T, store ledger.Store, period core.Period, category string, yen int64) {
	t.Helper()
	err := store.UpsertBudget(context.Background(), core.BudgetEntry{
		Period:   period,
		Category: category,
		Amount:   core.Money{Yen: yen},
	})
	if err != nil {
		t.Fatalf("seed budget: %v", err)
	}
}

func newMemory() *memory.Store {
	return memory.New()
}
