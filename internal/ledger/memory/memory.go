// Package memory is a mutex-guarded in-memory ledger used by tests and
// the ephemeral demo backend. Semantics mirror the SQLite adapter:
// monotonic ids that are never reused, no-op deletes for unknown ids,
// last-write-wins budget upserts.
package memory

import (
	"context"
	"sync"

	"kakeibo/internal/core"
)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	items   []core.Expense
	budgets map[string]map[string]core.Money // period -> category -> amount
}

func New() *Store {
	return &Store{
		nextID:  1,
		budgets: make(map[string]map[string]core.Money),
	}
}

// Append stores the expense and returns its assigned id.
func (s *Store) Append(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.items = append(s.items, e)
	return e.ID, nil
}

// ListAll returns a copy of every stored expense.
func (s *Store) ListAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Delete removes the record with the given id if present.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// UpsertBudget writes the ceiling for (period, category).
func (s *Store) UpsertBudget(_ context.Context, b core.BudgetEntry) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byCat, ok := s.budgets[string(b.Period)]
	if !ok {
		byCat = make(map[string]core.Money)
		s.budgets[string(b.Period)] = byCat
	}
	byCat[b.Category] = b.Amount
	return nil
}

// BudgetsByPeriod returns the period's category ceilings.
func (s *Store) BudgetsByPeriod(_ context.Context, p core.Period) (map[string]core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]core.Money, len(s.budgets[string(p)]))
	for cat, amt := range s.budgets[string(p)] {
		out[cat] = amt
	}
	return out, nil
}
