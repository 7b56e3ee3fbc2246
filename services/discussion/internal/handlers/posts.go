package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/api"
	"github.com/example/discussion-platform/services/discussion/internal/forum"
)

// ListPosts handles GET /v1/posts?limit=&offset=
func ListPosts(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 50, 100)
		offset := queryInt(r, "offset", 0, 0)
		posts, err := svc.ListPosts(r.Context(), actorFrom(r), limit, offset)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, posts)
	}
}

// GetPost handles GET /v1/posts/{post_id}
func GetPost(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := svc.GetPost(r.Context(), actorFrom(r), pathID(r, "post_id"))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	}
}

// CreatePost handles POST /v1/posts
func CreatePost(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forum.PostInput
		if !decodeJSON(w, r, &req) {
			return
		}
		post, err := svc.CreatePost(r.Context(), actorFrom(r), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, post)
	}
}

// UpdatePost handles PATCH /v1/posts/{post_id}
func UpdatePost(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forum.PostPatch
		if !decodeJSON(w, r, &req) {
			return
		}
		post, err := svc.UpdatePost(r.Context(), actorFrom(r), pathID(r, "post_id"), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	}
}

// DeletePost handles DELETE /v1/posts/{post_id}
func DeletePost(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeletePost(r.Context(), actorFrom(r), pathID(r, "post_id")); err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
