package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/PaulBabatuyi/skillshub/internal/data"

	"github.com/go-chi/chi/v5/middleware"
)

// envelope is the body of every JSON response.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeOK writes a success envelope merged with fields.
func writeOK(w http.ResponseWriter, status int, fields envelope) {
	body := envelope{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return data.Invalid("", "Invalid request body")
	}
	return nil
}

// errorResponse maps domain errors to status codes. Unclassified errors are
// logged with the request id and reported as a generic 500.
func errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var ve *data.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, data.ErrUserExists):
		writeError(w, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, data.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMessage(err))
	case errors.Is(err, data.ErrUnavailable):
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		writeError(w, http.StatusServiceUnavailable, "Database connection error. Please try again later.")
	default:
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// notFoundMessage keeps the subject of wrapped not-found errors, e.g.
// "receiver not found", and falls back to a generic message.
func notFoundMessage(err error) string {
	if errors.Is(err, data.ErrNotFound) && err != data.ErrNotFound {
		return err.Error()
	}
	return "Resource not found"
}
