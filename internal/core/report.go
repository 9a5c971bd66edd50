package core

import "github.com/shopspring/decimal"

// PivotTotalsKey labels the trailing grand-totals record of a pivot.
const PivotTotalsKey = "TOTALS"

type (
	// BudgetItem is an expense joined with its category's display name plus
	// a running balance. Derived per query, never persisted.
	BudgetItem struct {
		ExpenseID    int64
		Date         Date
		CategoryID   int64
		CategoryName string
		Description  string
		Amount       decimal.Decimal
		Balance      decimal.Decimal
	}

	// MonthGroup holds the items of one calendar month in date order.
	// Key is the month token produced by Date.MonthKey ("2020/02").
	MonthGroup struct {
		Key   string
		Items []BudgetItem
		Total decimal.Decimal
	}

	// CategoryGroup holds the items of one category, keyed by display name.
	CategoryGroup struct {
		Name  string
		Items []BudgetItem
		Total decimal.Decimal
	}

	// PivotCell is one month×category intersection. Items is nil in the
	// trailing totals row.
	PivotCell struct {
		Category string
		Subtotal decimal.Decimal
		Items    []BudgetItem
	}

	// PivotRow is one month of the cross-tabulation, or the trailing
	// grand-totals row when Month == PivotTotalsKey. Cells are ordered
	// lexicographically by category name.
	PivotRow struct {
		Month      string
		MonthTotal decimal.Decimal
		Cells      []PivotCell
	}
)

// Cell returns the cell for the named category, if present.
func (r PivotRow) Cell(category string) (PivotCell, bool) {
	for _, c := range r.Cells {
		if c.Category == category {
			return c, true
		}
	}
	return PivotCell{}, false
}
