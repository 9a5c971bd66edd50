package budget

import (
	"context"
	"fmt"
	"sort"

	"tally/internal/core"
)

// IntegrityReport lists ledger inconsistencies that the read path hides:
// expenses excluded from projection because their category id matches no
// category, and category descriptions shared by more than one category
// (whose totals merge in the by-name groupings).
type IntegrityReport struct {
	OrphanedExpenses []core.ExpenseRecord
	DuplicateNames   []string
}

func (r IntegrityReport) Clean() bool {
	return len(r.OrphanedExpenses) == 0 && len(r.DuplicateNames) == 0
}

// CheckIntegrity scans the ledger for cross-reference problems. It is a
// read-only pass and never fails on the inconsistencies it reports.
func (e *Engine) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	var report IntegrityReport

	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return report, fmt.Errorf("list categories: %w", err)
	}
	expenses, err := e.store.ListExpenses(ctx)
	if err != nil {
		return report, fmt.Errorf("list expenses: %w", err)
	}

	known := make(map[int64]struct{}, len(categories))
	byName := make(map[string]int, len(categories))
	for _, c := range categories {
		known[c.ID] = struct{}{}
		byName[c.Description]++
	}
	for name, n := range byName {
		if n > 1 {
			report.DuplicateNames = append(report.DuplicateNames, name)
		}
	}
	sort.Strings(report.DuplicateNames)
	for _, exp := range expenses {
		if _, ok := known[exp.CategoryID]; !ok {
			report.OrphanedExpenses = append(report.OrphanedExpenses, exp)
		}
	}
	return report, nil
}
