package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/videocatalog/internal/logging"
	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound    = "https://videocatalog.dev/problems/not-found"
	ProblemTypeBadRequest  = "https://videocatalog.dev/problems/bad-request"
	ProblemTypeValidation  = "https://videocatalog.dev/problems/validation"
	ProblemTypeInternal    = "https://videocatalog.dev/problems/internal-error"
	ProblemTypeRateLimited = "https://videocatalog.dev/problems/rate-limited"
	ProblemTypeConflict    = "https://videocatalog.dev/problems/conflict"
)

// Problem represents an RFC 7807 Problem Details response. Errors carries
// per-field messages for validation failures.
type Problem struct {
	Type     string              `json:"type"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func newProblem(typ string, status int, detail, instance string) Problem {
	return Problem{
		Type:     typ,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, newProblem(ProblemTypeNotFound, http.StatusNotFound, detail, instance))
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, newProblem(ProblemTypeBadRequest, http.StatusBadRequest, detail, instance))
}

// Conflict writes a 409 problem response.
func Conflict(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, newProblem(ProblemTypeConflict, http.StatusConflict, detail, instance))
}

// Unprocessable writes a 422 problem response listing per-field errors.
func Unprocessable(w http.ResponseWriter, fields map[string][]string, instance string) {
	p := newProblem(ProblemTypeValidation, http.StatusUnprocessableEntity, "one or more fields are invalid", instance)
	p.Errors = fields
	WriteProblem(w, p)
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, newProblem(ProblemTypeInternal, http.StatusInternalServerError, detail, instance))
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	w.Header().Set("Retry-After", "1")
	WriteProblem(w, newProblem(ProblemTypeRateLimited, http.StatusTooManyRequests, detail, instance))
}

// WriteError maps a domain error onto its problem response. Unrecognized
// errors are logged and reported as 500 without leaking their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *zap.Logger) {
	instance := r.URL.Path

	var verr *seedwork.ValidationError
	switch {
	case errors.As(err, &verr):
		Unprocessable(w, verr.Errors, instance)
	case errors.Is(err, seedwork.ErrValidation):
		WriteProblem(w, newProblem(ProblemTypeValidation, http.StatusUnprocessableEntity, err.Error(), instance))
	case errors.Is(err, seedwork.ErrNotFound):
		NotFound(w, err.Error(), instance)
	case errors.Is(err, seedwork.ErrMissingParameter), errors.Is(err, seedwork.ErrInvalidIdentifier):
		BadRequest(w, err.Error(), instance)
	case errors.Is(err, seedwork.ErrAlreadyExists):
		Conflict(w, err.Error(), instance)
	default:
		if l := logging.From(r.Context(), fallback); l != nil {
			l.Error("request failed", zap.Error(err))
		}
		InternalError(w, "internal server error", instance)
	}
}
