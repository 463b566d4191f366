package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/chat"
	"github.com/hongminglow/student-life-be/internal/http/respond"
	"github.com/hongminglow/student-life-be/internal/service"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("invalid JSON payload")

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadJSON)
		}
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// statusFor maps a domain error to its HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadJSON),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrMalformedToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrTokenRevoked):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrDuplicateUsername):
		return http.StatusConflict, err.Error()
	case errors.Is(err, chat.ErrUpstream):
		return http.StatusBadGateway, chat.ErrUpstream.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError responds with the mapped status. Unclassified errors are logged in full.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
	}
	respond.Error(w, status, message)
}

// principal returns the authenticated caller or writes a 401.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return p, ok
}
