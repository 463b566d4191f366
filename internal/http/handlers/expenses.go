package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/student-life-be/internal/http/respond"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/service"
)

type ExpenseHandler struct {
	expenses *service.ExpenseService
	now      func() time.Time
}

func NewExpenseHandler(expenses *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, now: time.Now}
}

func (h *ExpenseHandler) Register(r chi.Router) {
	r.Route("/api/expenses", func(r chi.Router) {
		r.Post("/add", h.handleCreate)
		r.Put("/update/{id}", h.handleUpdate)
		r.Delete("/delete/{id}", h.handleDelete)
		r.Post("/search", h.handleSearch)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *ExpenseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.CreateExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := h.expenses.Create(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "expense created", expense)
}

func (h *ExpenseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.UpdateExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := h.expenses.Update(r.Context(), p, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "expense updated", expense)
}

func (h *ExpenseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.expenses.Delete(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "expense deleted", fmt.Sprintf("Deleted expense with id: %s", id))
}

func (h *ExpenseHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.SearchExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.expenses.Search(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.Page(w, http.StatusOK, "", page)
}

// handleSummary defaults to the current UTC month when year or month is omitted.
func (h *ExpenseHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	now := h.now().UTC()
	year, err := intQuery(r, "year", now.Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, err := intQuery(r, "month", int(now.Month()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.expenses.Summary(r.Context(), p, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", summary)
}

func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrValidation, key)
	}
	return v, nil
}
