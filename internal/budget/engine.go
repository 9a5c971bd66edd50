// Package budget derives the reporting views of the ledger: a flat
// balance-annotated item list, month and category summaries, and a
// month×category pivot. All views are recomputed from the store on every
// call; nothing is cached.
package budget

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Store is the read surface the engine needs from the ledger.
type Store interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error)
}

// Filter selects the expenses a view is computed over. Zero Start/End mean
// an unbounded range. Both bounds are exclusive: an expense dated exactly
// on Start or End is left out. CategoryID is consulted only when
// ByCategory is true.
type Filter struct {
	Start      core.Date
	End        core.Date
	ByCategory bool
	CategoryID int64
}

// Range sentinels used when a bound is absent, far outside realistic data.
var (
	minDate = core.NewDate(1, 1, 1)
	maxDate = core.NewDate(9999, 12, 31)
)

func (f Filter) bounds() (start, end core.Date) {
	start, end = f.Start, f.End
	if start.IsEmpty() {
		start = minDate
	}
	if end.IsEmpty() {
		end = maxDate
	}
	return start, end
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Items projects the filtered ledger into budget items: expenses are inner
// joined with their category, date-filtered, sorted by date ascending
// (stable, ties keep join order) and annotated with a running balance.
// Expenses whose category id matches no category are silently excluded.
func (e *Engine) Items(ctx context.Context, f Filter) ([]core.BudgetItem, error) {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	expenses, err := e.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Description
	}

	start, end := f.bounds()
	items := make([]core.BudgetItem, 0, len(expenses))
	for _, exp := range expenses {
		name, ok := names[exp.CategoryID]
		if !ok {
			continue
		}
		if !exp.Date.After(start.Time) || !exp.Date.Before(end.Time) {
			continue
		}
		if f.ByCategory && exp.CategoryID != f.CategoryID {
			continue
		}
		items = append(items, core.BudgetItem{
			ExpenseID:    exp.ID,
			Date:         exp.Date,
			CategoryID:   exp.CategoryID,
			CategoryName: name,
			Description:  exp.Description,
			Amount:       exp.Amount,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.Before(items[j].Date.Time)
	})

	balance := decimal.Zero
	for i := range items {
		balance = balance.Add(items[i].Amount)
		items[i].Balance = balance
	}
	return items, nil
}

// ItemsByMonth groups the projected items by calendar month. Groups come
// out in chronological order with a fresh sum per group; months with no
// items produce no group.
func (e *Engine) ItemsByMonth(ctx context.Context, f Filter) ([]core.MonthGroup, error) {
	items, err := e.Items(ctx, f)
	if err != nil {
		return nil, err
	}

	var groups []core.MonthGroup
	index := make(map[string]int)
	for _, it := range items {
		key := it.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, core.MonthGroup{Key: key, Total: decimal.Zero})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Total = groups[i].Total.Add(it.Amount)
	}
	return groups, nil
}

// ItemsByCategory groups the projected items by category display name,
// lexicographically ordered. Two categories sharing a description would
// merge into one group; see CheckIntegrity for surfacing that.
func (e *Engine) ItemsByCategory(ctx context.Context, f Filter) ([]core.CategoryGroup, error) {
	items, err := e.Items(ctx, f)
	if err != nil {
		return nil, err
	}

	var groups []core.CategoryGroup
	index := make(map[string]int)
	for _, it := range items {
		i, ok := index[it.CategoryName]
		if !ok {
			i = len(groups)
			index[it.CategoryName] = i
			groups = append(groups, core.CategoryGroup{Name: it.CategoryName, Total: decimal.Zero})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Total = groups[i].Total.Add(it.Amount)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}

// Pivot cross-tabulates the filtered ledger by month and category: one row
// per month in chronological order, each holding per-category subtotals and
// item details, followed by a single trailing row keyed core.PivotTotalsKey
// with the grand total of every category seen in any month.
func (e *Engine) Pivot(ctx context.Context, f Filter) ([]core.PivotRow, error) {
	months, err := e.ItemsByMonth(ctx, f)
	if err != nil {
		return nil, err
	}
	grand := make(map[string]decimal.Decimal)
	rows := make([]core.PivotRow, 0, len(months)+1)
	for _, m := range months {
		row := core.PivotRow{Month: m.Key, MonthTotal: m.Total}
		cells := make(map[string]*core.PivotCell)
		for _, it := range m.Items {
			cell, ok := cells[it.CategoryName]
			if !ok {
				cell = &core.PivotCell{Category: it.CategoryName, Subtotal: decimal.Zero}
				cells[it.CategoryName] = cell
			}
			cell.Subtotal = cell.Subtotal.Add(it.Amount)
			cell.Items = append(cell.Items, it)
		}
		for name, cell := range cells {
			row.Cells = append(row.Cells, *cell)
			grand[name] = grand[name].Add(cell.Subtotal)
		}
		sort.Slice(row.Cells, func(i, j int) bool {
			return row.Cells[i].Category < row.Cells[j].Category
		})
		rows = append(rows, row)
	}

	totals := core.PivotRow{Month: core.PivotTotalsKey, MonthTotal: decimal.Zero}
	for name, sum := range grand {
		totals.Cells = append(totals.Cells, core.PivotCell{Category: name, Subtotal: sum})
		totals.MonthTotal = totals.MonthTotal.Add(sum)
	}
	sort.Slice(totals.Cells, func(i, j int) bool {
		return totals.Cells[i].Category < totals.Cells[j].Category
	})
	return append(rows, totals), nil
}
