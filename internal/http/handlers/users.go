package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/student-life-be/internal/http/respond"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/service"
)

// UserHandler owns account and token endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs the handler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterPublic attaches the endpoints that need no token.
func (h *UserHandler) RegisterPublic(r chi.Router) {
	r.Post("/api/users/register", h.handleRegister)
	r.Post("/api/users/login", h.handleLogin)
	r.Post("/api/users/refresh", h.handleRefresh)
	r.Post("/api/users/logout", h.handleLogout)
}

// RegisterProtected attaches the endpoints behind the auth gate.
func (h *UserHandler) RegisterProtected(r chi.Router) {
	r.Get("/api/users/me", h.handleProfile)
	r.Get("/api/users/profile", h.handleProfile)
	r.Put("/api/users/profile", h.handleUpdateProfile)
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "User created successfully", user)
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.users.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", out)
}

func (h *UserHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pair, err := h.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "token refreshed", pair)
}

func (h *UserHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.users.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *UserHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := h.users.Me(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", user)
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", user)
}
