package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"tally/internal/budget"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
	mem "tally/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, *mem.Store) {
	t.Helper()
	store := mem.New()
	engine := budget.NewEngine(store)
	service := services.NewExpenseService(store, nil)
	logger := applog.New(applog.ComponentApp, applog.Config{
		Handler: slog.NewTextHandler(discard{}, nil),
	})
	return NewServer(":0", store, engine, service, logger), store
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func seedLedger(t *testing.T, store *mem.Store) (creditCard, eatingOut int64) {
	t.Helper()
	ctx := context.Background()

	creditCard, err := store.AddCategory(ctx, core.Category{Description: "Credit Card", Type: core.Credit})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	eatingOut, err = store.AddCategory(ctx, core.Category{Description: "Eating Out", Type: core.Expense})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	add := func(date core.Date, cat int64, amount string) {
		if _, err := store.AddExpense(ctx, core.ExpenseRecord{
			Date: date, CategoryID: cat, Amount: decimal.RequireFromString(amount),
		}); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}
	add(core.NewDate(2020, 1, 10), creditCard, "-10")
	add(core.NewDate(2020, 1, 11), creditCard, "10")
	add(core.NewDate(2020, 2, 1), eatingOut, "-33.33")
	return creditCard, eatingOut
}

func do(srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, rd)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(srv, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestItemsEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedLedger(t, store)

	rr := do(srv, http.MethodGet, "/api/items", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var items []itemView
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[2].Balance != "-33.33" {
		t.Fatalf("final balance = %s", items[2].Balance)
	}

	// Category filter via query parameter.
	rr = do(srv, http.MethodGet, "/api/items?category=1", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("filtered: expected 2 items, got %d", len(items))
	}

	// Exclusive start bound drops the expense dated exactly on it.
	rr = do(srv, http.MethodGet, "/api/items?start=2020-01-10", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("bounded: expected 2 items, got %d", len(items))
	}

	if rr := do(srv, http.MethodGet, "/api/items?start=bogus", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad start: status = %d", rr.Code)
	}
	if rr := do(srv, http.MethodPost, "/api/items", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("post: status = %d", rr.Code)
	}
}

func TestMonthReportEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedLedger(t, store)

	rr := do(srv, http.MethodGet, "/api/reports/months", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var groups []monthGroupView
	if err := json.Unmarshal(rr.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 2 || groups[0].Month != "2020/01" || groups[0].Total != "0" {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestPivotEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedLedger(t, store)

	rr := do(srv, http.MethodGet, "/api/reports/pivot", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var rows []pivotRowView
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	last := rows[len(rows)-1]
	if last.Month != core.PivotTotalsKey || len(last.Cells) != 2 {
		t.Fatalf("totals row = %+v", last)
	}
}

func TestExpenseCRUD(t *testing.T) {
	srv, store := newTestServer(t)
	creditCard, _ := seedLedger(t, store)

	// Create.
	rr := do(srv, http.MethodPost, "/api/expenses", expenseRequest{
		Date: "2020-03-01", CategoryID: creditCard, Amount: "-5.00", Description: "coffee",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rr.Code, rr.Body)
	}
	var created expenseView
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Update with an invalid category: 422, record unchanged.
	rr = do(srv, http.MethodPut, "/api/expenses/1", expenseRequest{
		Date: "2020-01-10", CategoryID: 999, Amount: "-10", Description: "x",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid category: status = %d", rr.Code)
	}

	// Update a missing id: 404.
	rr = do(srv, http.MethodPut, "/api/expenses/999", expenseRequest{
		Date: "2020-01-10", CategoryID: creditCard, Amount: "-10",
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing id: status = %d", rr.Code)
	}

	// Idempotent delete: 204 both times.
	for i := 0; i < 2; i++ {
		rr = do(srv, http.MethodDelete, "/api/expenses/888", nil)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("delete pass %d: status = %d", i, rr.Code)
		}
	}

	// Malformed amount: 400.
	rr = do(srv, http.MethodPost, "/api/expenses", expenseRequest{
		Date: "2020-03-01", CategoryID: creditCard, Amount: "ten",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad amount: status = %d", rr.Code)
	}
}

func TestCategoryCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodPost, "/api/categories", categoryRequest{
		Description: "Savings", Type: "savings",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rr.Code)
	}
	var created categoryView
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rr = do(srv, http.MethodPut, "/api/categories/999", categoryRequest{
		Description: "X", Type: "expense",
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing id: status = %d", rr.Code)
	}

	rr = do(srv, http.MethodGet, "/api/categories", nil)
	var list []categoryView
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Description != "Savings" {
		t.Fatalf("list = %+v", list)
	}
}

func TestIntegrityEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	creditCard, _ := seedLedger(t, store)

	ctx := context.Background()
	if err := store.DeleteCategory(ctx, creditCard); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	rr := do(srv, http.MethodGet, "/api/integrity", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var report struct {
		Clean            bool    `json:"clean"`
		OrphanedExpenses []int64 `json:"orphaned_expenses"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Clean || len(report.OrphanedExpenses) != 2 {
		t.Fatalf("report = %+v", report)
	}
}
