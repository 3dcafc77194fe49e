package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brianly1003/codexdesk/internal/domain"
)

// statusForError maps a domain error to an HTTP status code.
func statusForError(err error) int {
	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrGenerationActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoProject), errors.Is(err, domain.ErrCodexNotInstalled):
		return http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrInvalidProjectPath),
		errors.Is(err, domain.ErrInvalidPayload),
		errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrControllerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as an ErrorResponse with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	code := domain.ErrorCode(err)
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		code = domain.ErrCodeInvalidPayload
	}
	writeJSON(w, statusForError(err), ErrorResponse{Error: err.Error(), Code: code})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLoggingMiddleware logs every request with its status and duration.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			s.logger.Debug("websocket upgrade request", "remote_addr", r.RemoteAddr)
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// recoverMiddleware turns a handler panic into a 500 response.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{
					Error: "internal server error",
					Code:  domain.ErrCodeInternalError,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows browser clients served from another local origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
