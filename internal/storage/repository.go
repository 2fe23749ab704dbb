package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"kakeibo/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the two-table ledger. database/sql hands a
// pooled connection to each operation and returns it afterwards, so no
// lock is held between operations; the design assumes a single
// concurrent user and promises no multi-writer consistency.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.ExpenseWriter.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validate expense: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, category, item, amount) VALUES (?, ?, ?, ?)`,
		e.Date.String(), e.Category, e.Item, e.Amount.Yen)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"date", e.Date.String(),
		"category", e.Category,
		"amount_yen", e.Amount.Yen)

	return id, nil
}

// ListAll implements ledger.ExpenseReader.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, category, item, amount FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			dateStr string
		)
		if err := rows.Scan(&e.ID, &dateStr, &e.Category, &e.Item, &e.Amount.Yen); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("expense %d has malformed date %q: %w", e.ID, dateStr, err)
		}
		e.Date = d
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Delete implements ledger.ExpenseDeleter. Unknown ids delete zero rows
// and that is fine; repeating a delete is a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.InfoContext(ctx, "Expense deleted", "id", id)
	}
	return nil
}

// UpsertBudget implements ledger.BudgetWriter with last-write-wins
// semantics on the (month, category) primary key.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.BudgetEntry) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("validate budget entry: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_budgets (month, category, amount) VALUES (?, ?, ?)
		 ON CONFLICT(month, category) DO UPDATE SET amount = excluded.amount`,
		string(b.Period), b.Category, b.Amount.Yen)
	if err != nil {
		return fmt.Errorf("upsert budget %s/%s: %w", b.Period, b.Category, err)
	}
	return nil
}

// BudgetsByPeriod implements ledger.BudgetReader.
func (r *SQLiteRepository) BudgetsByPeriod(ctx context.Context, p core.Period) (map[string]core.Money, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, amount FROM monthly_budgets WHERE month = ?`, string(p))
	if err != nil {
		return nil, fmt.Errorf("query budgets for %s: %w", p, err)
	}
	defer rows.Close()

	out := make(map[string]core.Money)
	for rows.Next() {
		var (
			cat string
			yen int64
		)
		if err := rows.Scan(&cat, &yen); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out[cat] = core.Money{Yen: yen}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}
