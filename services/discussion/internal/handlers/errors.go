package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/api"
	"github.com/example/discussion-platform/services/discussion/internal/forum"
	"github.com/example/discussion-platform/services/discussion/internal/store"
)

// writeServiceError maps forum and store errors onto the API error envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var verr *forum.ValidationError
	switch {
	case errors.As(err, &verr):
		api.ValidationFailed(w, r, verr.Fields)
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, r, "Not found.")
	case errors.Is(err, forum.ErrForbidden):
		api.Forbidden(w, r, "You do not have permission to perform this action.")
	case errors.Is(err, forum.ErrUnauthenticated):
		api.Unauthorized(w, r, api.CodeUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, forum.ErrInvalidCredentials):
		api.Unauthorized(w, r, api.CodeInvalidCredentials, "Unable to log in with provided credentials.")
	case errors.Is(err, store.ErrConflict):
		api.Conflict(w, r, "Conflicts with an existing resource.")
	default:
		log.Error("request failed",
			zap.String("request_id", api.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		api.Internal(w, r)
	}
}
