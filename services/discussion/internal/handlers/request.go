package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/discussion-platform/internal/platform/api"
	"github.com/example/discussion-platform/internal/platform/auth"
	"github.com/example/discussion-platform/services/discussion/internal/forum"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads up to maxRequestBodyBytes from r.Body and decodes JSON into dst.
// On failure it writes a 400 response and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(dst); err != nil {
		api.BadRequest(w, r, api.CodeInvalidJSON, "Invalid JSON")
		return false
	}
	return true
}

func actorFrom(r *http.Request) forum.Actor {
	uid, _ := auth.UserIDFromContext(r.Context())
	return forum.Actor{UserID: strings.TrimSpace(uid), Admin: auth.IsAdmin(r.Context())}
}

func pathID(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

func queryInt(r *http.Request, key string, def, max int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || (max > 0 && n > max) {
		return def
	}
	return n
}
