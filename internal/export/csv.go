// Package export renders the derived budget views as CSV and XLSX files
// for the report consumer.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"tally/internal/core"
)

func ItemsCSV(w io.Writer, items []core.BudgetItem) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"ExpenseID", "Date", "Category", "Description", "Amount", "Balance"})
	for _, it := range items {
		cw.Write([]string{
			fmt.Sprintf("%d", it.ExpenseID),
			it.Date.String(),
			it.CategoryName,
			it.Description,
			it.Amount.String(),
			it.Balance.String(),
		})
	}
	cw.Flush()
	return cw.Error()
}

func MonthsCSV(w io.Writer, groups []core.MonthGroup) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"Month", "Items", "Total"})
	for _, g := range groups {
		cw.Write([]string{g.Key, fmt.Sprintf("%d", len(g.Items)), g.Total.String()})
	}
	cw.Flush()
	return cw.Error()
}

func CategoriesCSV(w io.Writer, groups []core.CategoryGroup) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"Category", "Items", "Total"})
	for _, g := range groups {
		cw.Write([]string{g.Name, fmt.Sprintf("%d", len(g.Items)), g.Total.String()})
	}
	cw.Flush()
	return cw.Error()
}

// PivotCSV writes one row per month with one column per category plus a
// month total, ending with the grand-totals row. Empty cells mean the
// category had no items that month.
func PivotCSV(w io.Writer, rows []core.PivotRow) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Month"}, pivotCategories(rows)...)
	header = append(header, "Total")
	cw.Write(header)

	for _, row := range rows {
		record := []string{row.Month}
		for _, name := range pivotCategories(rows) {
			if cell, ok := row.Cell(name); ok {
				record = append(record, cell.Subtotal.String())
			} else {
				record = append(record, "")
			}
		}
		record = append(record, row.MonthTotal.String())
		cw.Write(record)
	}
	cw.Flush()
	return cw.Error()
}

// pivotCategories returns the column set: every category in the trailing
// totals row, already lexicographically ordered by the engine.
func pivotCategories(rows []core.PivotRow) []string {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]
	if last.Month != core.PivotTotalsKey {
		return nil
	}
	names := make([]string, 0, len(last.Cells))
	for _, c := range last.Cells {
		names = append(names, c.Category)
	}
	return names
}
