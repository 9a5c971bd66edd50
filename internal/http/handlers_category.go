package http

import (
	"context"
	"encoding/json"
	"net/http"

	"tally/internal/core"
)

type categoryRequest struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

type categoryView struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func categoryViews(categories []core.Category) []categoryView {
	out := make([]categoryView, len(categories))
	for i, c := range categories {
		out[i] = categoryView{ID: c.ID, Description: c.Description, Type: string(c.Type)}
	}
	return out
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		categories, err := s.store.ListCategories(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "List categories failed", "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categoryViews(categories))

	case http.MethodPost:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, err)
			return
		}
		c := core.Category{Description: req.Description, Type: core.CategoryType(req.Type)}
		id, err := s.store.AddCategory(ctx, c)
		if err != nil {
			writeError(w, err)
			return
		}
		c.ID = id
		writeJSON(w, http.StatusCreated, categoryViews([]core.Category{c})[0])

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/categories/")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		c, err := s.store.GetCategory(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categoryViews([]core.Category{c})[0])

	case http.MethodPut:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, err)
			return
		}
		c := core.Category{ID: id, Description: req.Description, Type: core.CategoryType(req.Type)}
		if err := s.store.UpdateCategory(ctx, c); err != nil {
			s.logger.ErrorContext(ctx, "Update category failed",
				"category_id", id, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categoryViews([]core.Category{c})[0])

	case http.MethodDelete:
		if err := s.store.DeleteCategory(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "Delete category failed",
				"category_id", id, "error", err)
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}
