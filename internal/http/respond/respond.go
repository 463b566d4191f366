package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hongminglow/student-life-be/internal/models"
)

// Envelope is the standard API response wrapper used across handlers.
// Paging fields are null on non-paged responses.
type Envelope struct {
	Status        string  `json:"status"`
	Message       *string `json:"message"`
	Data          any     `json:"data"`
	Page          *int    `json:"page"`
	Size          *int    `json:"size"`
	TotalPages    *int    `json:"totalPages"`
	TotalElements int64   `json:"totalElements"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Status: strconv.Itoa(status), Message: optional(message), Data: data})
}

// Page writes one page of results with its paging metadata.
func Page[T any](w http.ResponseWriter, status int, message string, page models.Page[T]) {
	index, size, pages := page.Index, page.Size, page.TotalPages()
	write(w, status, Envelope{
		Status:        strconv.Itoa(status),
		Message:       optional(message),
		Data:          page.Items,
		Page:          &index,
		Size:          &size,
		TotalPages:    &pages,
		TotalElements: page.TotalElements,
	})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Status: strconv.Itoa(status), Message: optional(message)})
}

func optional(message string) *string {
	if message == "" {
		return nil
	}
	return &message
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}
