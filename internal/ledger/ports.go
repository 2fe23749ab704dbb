// Package ledger defines the ports the record store must satisfy: the
// two-table contract (expenses, monthly budgets) the rest of the
// application is written against.
package ledger

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for outbound storage adapters.
type (
	ExpenseWriter interface {
		// Append inserts a record and returns the store-assigned id.
		Append(ctx context.Context, e core.Expense) (int64, error)
	}

	ExpenseReader interface {
		// ListAll returns every committed expense. Period filtering is
		// the aggregator's job, not the store's.
		ListAll(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseDeleter interface {
		// Delete removes a record by id. Deleting a nonexistent id is a
		// no-op, not an error, so deletes are safe to repeat.
		Delete(ctx context.Context, id int64) error
	}

	BudgetWriter interface {
		// UpsertBudget writes the (period, category) ceiling,
		// last write wins.
		UpsertBudget(ctx context.Context, b core.BudgetEntry) error
	}

	BudgetReader interface {
		// BudgetsByPeriod returns category -> budgeted amount for one
		// period. Absent categories are simply missing from the map.
		BudgetsByPeriod(ctx context.Context, p core.Period) (map[string]core.Money, error)
	}
)

// Store composes every port; both adapters (sqlite, memory) satisfy it.
type Store interface {
	ExpenseWriter
	ExpenseReader
	ExpenseDeleter
	BudgetWriter
	BudgetReader
}
