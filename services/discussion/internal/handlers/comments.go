package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/api"
	"github.com/example/discussion-platform/services/discussion/internal/forum"
)

// ListComments handles GET /v1/posts/{post_id}/comments
func ListComments(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodes, err := svc.ListComments(r.Context(), actorFrom(r), pathID(r, "post_id"))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, nodes)
	}
}

// AddComment handles POST /v1/posts/{post_id}/comments
func AddComment(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forum.CommentInput
		if !decodeJSON(w, r, &req) {
			return
		}
		node, err := svc.AddComment(r.Context(), actorFrom(r), pathID(r, "post_id"), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, node)
	}
}

// GetComment handles GET /v1/comments/{comment_id}
func GetComment(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		node, err := svc.GetComment(r.Context(), actorFrom(r), pathID(r, "comment_id"))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, node)
	}
}

// AddReply handles POST /v1/comments/{comment_id}/replies. A "post" field in
// the body is ignored; the reply joins its parent's post.
func AddReply(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forum.CommentInput
		if !decodeJSON(w, r, &req) {
			return
		}
		node, err := svc.AddReply(r.Context(), actorFrom(r), pathID(r, "comment_id"), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, node)
	}
}

// UpdateComment handles PATCH /v1/comments/{comment_id}
func UpdateComment(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forum.CommentPatch
		if !decodeJSON(w, r, &req) {
			return
		}
		node, err := svc.UpdateComment(r.Context(), actorFrom(r), pathID(r, "comment_id"), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, node)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(svc *forum.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "comment_id")
		steps, err := svc.DeleteComment(r.Context(), actorFrom(r), id)
		// Once the requested comment's own step has committed the delete
		// happened; a failure further up the ancestor walk is only logged.
		if err != nil && !(len(steps) > 0 && steps[0].CommentID == id) {
			writeServiceError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
