package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tally/internal/core"
)

const mutationTimeout = 10 * time.Second

type expenseRequest struct {
	Date        string `json:"date"`
	CategoryID  int64  `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type expenseView struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	CategoryID  int64  `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (req expenseRequest) toRecord(id int64) (core.ExpenseRecord, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	return core.ExpenseRecord{
		ID:          id,
		Date:        date,
		CategoryID:  req.CategoryID,
		Amount:      amount,
		Description: req.Description,
	}, nil
}

func expenseViews(records []core.ExpenseRecord) []expenseView {
	out := make([]expenseView, len(records))
	for i, e := range records {
		out[i] = expenseView{
			ID:          e.ID,
			Date:        e.Date.String(),
			CategoryID:  e.CategoryID,
			Amount:      e.Amount.String(),
			Description: e.Description,
		}
	}
	return out
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	records, err := s.store.ListExpenses(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "List expenses failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseViews(records))
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	record, err := req.toRecord(0)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	id, err := s.service.CreateExpense(ctx, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Create expense failed", "error", err)
		writeError(w, err)
		return
	}
	record.ID = id
	writeJSON(w, http.StatusCreated, expenseViews([]core.ExpenseRecord{record})[0])
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/expenses/")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		record, err := s.store.GetExpense(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expenseViews([]core.ExpenseRecord{record})[0])

	case http.MethodPut:
		var req expenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, err)
			return
		}
		record, err := req.toRecord(id)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		if err := s.service.UpdateExpense(ctx, record); err != nil {
			s.logger.ErrorContext(ctx, "Update expense failed",
				"expense_id", id, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expenseViews([]core.ExpenseRecord{record})[0])

	case http.MethodDelete:
		// Idempotent: deleting an unknown id still answers 204.
		if err := s.service.DeleteExpense(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "Delete expense failed",
				"expense_id", id, "error", err)
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}
