package api

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// Error codes shared by every endpoint.
const (
	CodeInvalidJSON        = "INVALID_JSON"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeNotReady           = "NOT_READY"
	CodeInternal           = "INTERNAL"
)

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

type ctxKeyRequestID struct{}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, rid)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}

// WriteError writes the error envelope. r may be nil, in which case the
// response carries no request id.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	var rid string
	if r != nil {
		rid = RequestID(r.Context())
	}
	WriteJSON(w, status, ErrorResponse{Error: APIError{Code: code, Message: message, Details: details, RequestID: rid}})
}

func BadRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	WriteError(w, r, http.StatusBadRequest, code, message, nil)
}

// ValidationFailed reports per-field violations under details.fields.
func ValidationFailed(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	WriteError(w, r, http.StatusBadRequest, CodeValidationFailed, "Validation failed", map[string]any{"fields": details})
}

func Unauthorized(w http.ResponseWriter, r *http.Request, code, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	WriteError(w, r, http.StatusUnauthorized, code, message, nil)
}

func Forbidden(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusForbidden, CodeForbidden, message, nil)
}

func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusNotFound, CodeNotFound, message, nil)
}

func Conflict(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusConflict, CodeConflict, message, nil)
}

// RateLimited sets Retry-After in whole seconds, at least one.
func RateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	WriteError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Too many requests", nil)
}

func Unavailable(w http.ResponseWriter, r *http.Request, code, message string) {
	WriteError(w, r, http.StatusServiceUnavailable, code, message, nil)
}

func Internal(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
}
