// Package services orchestrates the use cases between the HTTP layer
// and the ledger store: committing drafts, building month reports,
// bulk fixed costs and CSV exchange.
package services

import (
	"context"
	"fmt"
	"sort"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
)

// ExpenseService covers the expense lifecycle: commit, history, delete.
type ExpenseService struct {
	store  ledger.Store
	logger *log.Logger
}

func NewExpenseService(store ledger.Store, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:  store,
		logger: logger.WithComponent(log.ComponentExpense),
	}
}

// Commit turns a draft into a persisted expense and returns it with
// the store-assigned id. The category is coerced; zero amounts and
// empty items are allowed.
func (s *ExpenseService) Commit(ctx context.Context, d core.Draft) (core.Expense, error) {
	e := d.Expense()
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}

	id, err := s.store.Append(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	s.logger.InfoContext(ctx, "Expense committed",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, id,
		log.FieldCategory, e.Category,
		log.FieldAmountYen, e.Amount.Yen)
	return e, nil
}

// History returns the period's expenses newest-first. Insertion order
// is kept within a date, so same-day records stay in entry order.
func (s *ExpenseService) History(ctx context.Context, p core.Period) ([]core.Expense, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	var out []core.Expense
	for _, e := range all {
		if e.Date.Period() == p {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

// DeleteBatch removes the given ids one by one. Unknown ids are
// no-ops; a store failure stops the batch and reports how many deletes
// went through before it.
func (s *ExpenseService) DeleteBatch(ctx context.Context, ids []int64) (int, error) {
	deleted := 0
	for _, id := range ids {
		if err := s.store.Delete(ctx, id); err != nil {
			return deleted, fmt.Errorf("delete expense %d: %w", id, err)
		}
		deleted++
	}

	s.logger.InfoContext(ctx, "Expenses deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldRowCount, deleted)
	return deleted, nil
}
