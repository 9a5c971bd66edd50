package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tally/internal/core"
)

// Report bundles the four derived views for a single filter.
type Report struct {
	Items      []core.BudgetItem
	Months     []core.MonthGroup
	Categories []core.CategoryGroup
	Pivot      []core.PivotRow
}

// ReportXLSX renders the report as a workbook with one sheet per view.
func ReportXLSX(report Report) ([]byte, error) {
	xlsx := excelize.NewFile()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "tally",
		DocSecurity: 2,
	})

	first := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	_ = xlsx.SetSheetName(first, "Items")

	if err := writeItemsSheet(xlsx, "Items", report.Items); err != nil {
		return nil, err
	}
	if err := writeMonthsSheet(xlsx, report.Months); err != nil {
		return nil, err
	}
	if err := writeCategoriesSheet(xlsx, report.Categories); err != nil {
		return nil, err
	}
	if err := writePivotSheet(xlsx, report.Pivot); err != nil {
		return nil, err
	}

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeItemsSheet(xlsx *excelize.File, sheet string, items []core.BudgetItem) error {
	_ = xlsx.SetColWidth(sheet, "A", "A", 10)
	_ = xlsx.SetColWidth(sheet, "B", "D", 20)
	_ = xlsx.SetColWidth(sheet, "E", "F", 12)

	if err := setHeader(xlsx, sheet,
		[]string{"ExpenseID", "Date", "Category", "Description", "Amount", "Balance"}); err != nil {
		return err
	}
	for i, it := range items {
		row := i + 2
		_ = xlsx.SetCellValue(sheet, cell('A', row), it.ExpenseID)
		_ = xlsx.SetCellValue(sheet, cell('B', row), it.Date.String())
		_ = xlsx.SetCellValue(sheet, cell('C', row), it.CategoryName)
		_ = xlsx.SetCellValue(sheet, cell('D', row), it.Description)
		_ = xlsx.SetCellValue(sheet, cell('E', row), it.Amount.InexactFloat64())
		_ = xlsx.SetCellValue(sheet, cell('F', row), it.Balance.InexactFloat64())
	}
	return nil
}

func writeMonthsSheet(xlsx *excelize.File, groups []core.MonthGroup) error {
	const sheet = "Months"
	if _, err := xlsx.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := setHeader(xlsx, sheet, []string{"Month", "Items", "Total"}); err != nil {
		return err
	}
	for i, g := range groups {
		row := i + 2
		_ = xlsx.SetCellValue(sheet, cell('A', row), g.Key)
		_ = xlsx.SetCellValue(sheet, cell('B', row), len(g.Items))
		_ = xlsx.SetCellValue(sheet, cell('C', row), g.Total.InexactFloat64())
	}
	return nil
}

func writeCategoriesSheet(xlsx *excelize.File, groups []core.CategoryGroup) error {
	const sheet = "Categories"
	if _, err := xlsx.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := setHeader(xlsx, sheet, []string{"Category", "Items", "Total"}); err != nil {
		return err
	}
	for i, g := range groups {
		row := i + 2
		_ = xlsx.SetCellValue(sheet, cell('A', row), g.Name)
		_ = xlsx.SetCellValue(sheet, cell('B', row), len(g.Items))
		_ = xlsx.SetCellValue(sheet, cell('C', row), g.Total.InexactFloat64())
	}
	return nil
}

func writePivotSheet(xlsx *excelize.File, rows []core.PivotRow) error {
	const sheet = "Pivot"
	if _, err := xlsx.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	names := pivotCategories(rows)
	header := append([]string{"Month"}, names...)
	header = append(header, "Total")
	if err := setHeader(xlsx, sheet, header); err != nil {
		return err
	}

	for i, row := range rows {
		r := i + 2
		_ = xlsx.SetCellValue(sheet, cell('A', r), row.Month)
		for j, name := range names {
			if c, ok := row.Cell(name); ok {
				_ = xlsx.SetCellValue(sheet, coord(j+2, r), c.Subtotal.InexactFloat64())
			}
		}
		_ = xlsx.SetCellValue(sheet, coord(len(names)+2, r), row.MonthTotal.InexactFloat64())
	}
	return nil
}

func setHeader(xlsx *excelize.File, sheet string, columns []string) error {
	for i, col := range columns {
		_ = xlsx.SetCellValue(sheet, coord(i+1, 1), col)
	}
	style, err := xlsx.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	return xlsx.SetCellStyle(sheet, coord(1, 1), coord(len(columns), 1), style)
}

// coord is cell() for column positions past Z.
func coord(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func cell(col rune, row int) string {
	return fmt.Sprintf("%c%d", col, row)
}
