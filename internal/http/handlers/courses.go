package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/student-life-be/internal/http/respond"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/service"
)

// CourseHandler exposes the course endpoints. All routes require authentication.
type CourseHandler struct {
	courses *service.CourseService
}

func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

func (h *CourseHandler) Register(r chi.Router) {
	r.Route("/api/courses", func(r chi.Router) {
		r.Post("/add", h.handleCreate)
		r.Put("/update/{id}", h.handleUpdate)
		r.Delete("/delete/{id}", h.handleDelete)
		r.Post("/search", h.handleSearch)
		r.Get("/my-courses", h.handleMine)
	})
}

func (h *CourseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	course, err := h.courses.Create(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "course created", course)
}

func (h *CourseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	course, err := h.courses.Update(r.Context(), p, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "course updated", course)
}

func (h *CourseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.courses.Delete(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "course deleted", fmt.Sprintf("Deleted course with id: %s", id))
}

func (h *CourseHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.SearchCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.courses.Search(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.Page(w, http.StatusOK, "", page)
}

func (h *CourseHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	courses, err := h.courses.ListMine(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", courses)
}
