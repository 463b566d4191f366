package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/chat"
	"github.com/hongminglow/student-life-be/internal/config"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/http/handlers"
	"github.com/hongminglow/student-life-be/internal/http/respond"
	"github.com/hongminglow/student-life-be/internal/middleware"
	"github.com/hongminglow/student-life-be/internal/service"
	"github.com/hongminglow/student-life-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, publisher events.Publisher, logger *slog.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, store, publisher, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return &Server{inner: httpServer}
}

// NewRouter builds the full HTTP handler: services, middleware and routes.
func NewRouter(cfg config.Config, store storage.Store, publisher events.Publisher, logger *slog.Logger) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	opts := []service.Option{service.WithLogger(logger)}

	users := handlers.NewUserHandler(service.NewUserService(store, tokens, publisher, opts...))
	courses := handlers.NewCourseHandler(service.NewCourseService(store, publisher, opts...))
	tasks := handlers.NewTaskHandler(service.NewTaskService(store, publisher, opts...))
	expenses := handlers.NewExpenseHandler(service.NewExpenseService(store, publisher, opts...))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now()).Register(r)
	users.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))
		users.RegisterProtected(r)
		courses.Register(r)
		tasks.Register(r)
		expenses.Register(r)
		if cfg.ChatEnabled() {
			handlers.NewChatHandler(chat.NewClient(cfg.OllamaURL, cfg.OllamaModel, nil)).Register(r)
		}
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
