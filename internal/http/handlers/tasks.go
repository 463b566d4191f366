package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/student-life-be/internal/http/respond"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/service"
)

type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) Register(r chi.Router) {
	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/add", h.handleCreate)
		r.Put("/update/{id}", h.handleUpdate)
		r.Delete("/delete/{id}", h.handleDelete)
		r.Post("/search", h.handleSearch)
	})
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.tasks.Create(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "task created", task)
}

func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.tasks.Update(r.Context(), p, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "task updated", task)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.tasks.Delete(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "task deleted", fmt.Sprintf("Deleted task with id: %s", id))
}

func (h *TaskHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.SearchTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.tasks.Search(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.Page(w, http.StatusOK, "", page)
}
