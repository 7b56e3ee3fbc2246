package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/api"
	"github.com/example/discussion-platform/services/discussion/internal/forum"
)

// Register handles POST /v1/auth/register
func Register(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forum.RegisterInput
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Register(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, res)
	}
}

// Login handles POST /v1/auth/login
func Login(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forum.LoginInput
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Login(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	}
}
