// tally-report renders the ledger's derived views to CSV files or a
// single XLSX workbook. With no -db flag it falls back to the database
// recorded by the last server run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"tally/internal/budget"
	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/session"
	"tally/internal/storage"
)

func main() {
	dbPath := flag.String("db", "", "ledger database (default: last opened)")
	start := flag.String("start", "", "exclusive start date YYYY-MM-DD")
	end := flag.String("end", "", "exclusive end date YYYY-MM-DD")
	category := flag.Int64("category", 0, "restrict to a single category id")
	format := flag.String("format", "csv", "output format: csv or xlsx")
	outDir := flag.String("o", ".", "output directory")
	flag.Parse()

	filter, err := parseFilter(*start, *end, *category)
	if err != nil {
		log.Fatal(err)
	}

	path := *dbPath
	if path == "" {
		path = lastDatabase()
	}
	if path == "" {
		log.Fatal("no database: pass -db or run the server once")
	}

	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	engine := budget.NewEngine(repo)

	report, err := buildReport(ctx, engine, filter)
	if err != nil {
		log.Fatal(err)
	}

	switch *format {
	case "csv":
		err = writeCSVs(*outDir, report)
	case "xlsx":
		err = writeXLSX(*outDir, report)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func parseFilter(start, end string, category int64) (budget.Filter, error) {
	var f budget.Filter
	if start != "" {
		d, err := core.ParseDate(start)
		if err != nil {
			return f, fmt.Errorf("-start: %w", err)
		}
		f.Start = d
	}
	if end != "" {
		d, err := core.ParseDate(end)
		if err != nil {
			return f, fmt.Errorf("-end: %w", err)
		}
		f.End = d
	}
	if category != 0 {
		f.ByCategory = true
		f.CategoryID = category
	}
	return f, nil
}

func lastDatabase() string {
	dir, err := session.DefaultDir()
	if err != nil {
		return ""
	}
	st, err := session.Open(dir)
	if err != nil {
		return ""
	}
	defer st.Close()
	path, _ := st.Get(session.KeyLastDatabase)
	return path
}

func buildReport(ctx context.Context, engine *budget.Engine, f budget.Filter) (export.Report, error) {
	var report export.Report

	// The four views are independent reads over the same filter.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.Items, err = engine.Items(ctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		report.Months, err = engine.ItemsByMonth(ctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		report.Categories, err = engine.ItemsByCategory(ctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		report.Pivot, err = engine.Pivot(ctx, f)
		return err
	})
	return report, g.Wait()
}

func writeCSVs(dir string, report export.Report) error {
	g := new(errgroup.Group)
	g.Go(func() error {
		return writeFile(filepath.Join(dir, "items.csv"), func(f *os.File) error {
			return export.ItemsCSV(f, report.Items)
		})
	})
	g.Go(func() error {
		return writeFile(filepath.Join(dir, "months.csv"), func(f *os.File) error {
			return export.MonthsCSV(f, report.Months)
		})
	})
	g.Go(func() error {
		return writeFile(filepath.Join(dir, "categories.csv"), func(f *os.File) error {
			return export.CategoriesCSV(f, report.Categories)
		})
	})
	g.Go(func() error {
		return writeFile(filepath.Join(dir, "pivot.csv"), func(f *os.File) error {
			return export.PivotCSV(f, report.Pivot)
		})
	})
	return g.Wait()
}

func writeXLSX(dir string, report export.Report) error {
	data, err := export.ReportXLSX(report)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "report.xlsx"), data, 0644)
}

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
