package http

import (
	"context"
	"net/http"
	"time"

	"tally/internal/core"
)

const reportTimeout = 7 * time.Second

type itemView struct {
	ExpenseID   int64  `json:"expense_id"`
	Date        string `json:"date"`
	CategoryID  int64  `json:"category_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Balance     string `json:"balance"`
}

type monthGroupView struct {
	Month string     `json:"month"`
	Items []itemView `json:"items"`
	Total string     `json:"total"`
}

type categoryGroupView struct {
	Category string     `json:"category"`
	Items    []itemView `json:"items"`
	Total    string     `json:"total"`
}

type pivotCellView struct {
	Category string     `json:"category"`
	Subtotal string     `json:"subtotal"`
	Items    []itemView `json:"items,omitempty"`
}

type pivotRowView struct {
	Month string          `json:"month"`
	Total string          `json:"total"`
	Cells []pivotCellView `json:"cells"`
}

func itemViews(items []core.BudgetItem) []itemView {
	out := make([]itemView, len(items))
	for i, it := range items {
		out[i] = itemView{
			ExpenseID:   it.ExpenseID,
			Date:        it.Date.String(),
			CategoryID:  it.CategoryID,
			Category:    it.CategoryName,
			Description: it.Description,
			Amount:      it.Amount.String(),
			Balance:     it.Balance.String(),
		}
	}
	return out
}

// handleItems serves the flat filtered, balance-annotated item list.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	items, err := s.engine.Items(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "Items report failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemViews(items))
}

// handleMonths serves the by-month summary.
func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	groups, err := s.engine.ItemsByMonth(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "Month report failed", "error", err)
		writeError(w, err)
		return
	}

	views := make([]monthGroupView, len(groups))
	for i, g := range groups {
		views[i] = monthGroupView{Month: g.Key, Items: itemViews(g.Items), Total: g.Total.String()}
	}
	writeJSON(w, http.StatusOK, views)
}

// handleCategoryReport serves the by-category summary.
func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	groups, err := s.engine.ItemsByCategory(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "Category report failed", "error", err)
		writeError(w, err)
		return
	}

	views := make([]categoryGroupView, len(groups))
	for i, g := range groups {
		views[i] = categoryGroupView{Category: g.Name, Items: itemViews(g.Items), Total: g.Total.String()}
	}
	writeJSON(w, http.StatusOK, views)
}

// handlePivot serves the month×category cross-tabulation.
func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	rows, err := s.engine.Pivot(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "Pivot report failed", "error", err)
		writeError(w, err)
		return
	}

	views := make([]pivotRowView, len(rows))
	for i, row := range rows {
		view := pivotRowView{Month: row.Month, Total: row.MonthTotal.String()}
		for _, c := range row.Cells {
			view.Cells = append(view.Cells, pivotCellView{
				Category: c.Category,
				Subtotal: c.Subtotal.String(),
				Items:    itemViews(c.Items),
			})
		}
		views[i] = view
	}
	writeJSON(w, http.StatusOK, views)
}

// handleIntegrity serves the cross-reference validation pass.
func (s *Server) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	report, err := s.engine.CheckIntegrity(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Integrity check failed", "error", err)
		writeError(w, err)
		return
	}

	orphans := make([]int64, len(report.OrphanedExpenses))
	for i, e := range report.OrphanedExpenses {
		orphans[i] = e.ID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"clean":             report.Clean(),
		"orphaned_expenses": orphans,
		"duplicate_names":   report.DuplicateNames,
	})
}
