// Package ledger defines the store interfaces the rest of the application
// programs against. Implementations live in internal/storage (SQLite) and
// internal/storage/memory.
package ledger

import (
	"context"

	"tally/internal/core"
)

// CategoryStore is the category half of the ledger.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	AddCategory(ctx context.Context, c core.Category) (int64, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	// DeleteCategory is an idempotent no-op for unknown ids. No cascade
	// check is performed; expenses left pointing at a deleted category
	// simply drop out of the projected views.
	DeleteCategory(ctx context.Context, id int64) error
}

// ExpenseStore is the expense half of the ledger.
type ExpenseStore interface {
	ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error)
	GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error)
	AddExpense(ctx context.Context, e core.ExpenseRecord) (int64, error)
	// UpdateExpense fails with core.ErrNotFound for unknown ids and
	// core.ErrInvalidCategory when the new category id matches no
	// category; either way the stored record is left untouched.
	UpdateExpense(ctx context.Context, e core.ExpenseRecord) error
	// DeleteExpense is an idempotent no-op for unknown ids.
	DeleteExpense(ctx context.Context, id int64) error
}

// Store is the full ledger surface.
type Store interface {
	CategoryStore
	ExpenseStore
	Close() error
}
