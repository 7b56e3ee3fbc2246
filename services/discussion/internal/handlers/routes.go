package handlers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/auth"
	"github.com/example/discussion-platform/internal/platform/httpserver"
	"github.com/example/discussion-platform/services/discussion/internal/forum"
)

type RouteDeps struct {
	Service  *forum.Service
	Verifier auth.JWTVerifier
	Limiter  *httpserver.RateLimiter
	Log      *zap.Logger
}

// Mount registers the /v1 API on r. Every route except register and login
// requires a bearer token.
func Mount(r chi.Router, d RouteDeps) {
	svc, log := d.Service, d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(d.Limiter.Middleware)

		r.Post("/auth/register", Register(svc, log))
		r.Post("/auth/login", Login(svc, log))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(d.Verifier))

			r.Get("/posts", ListPosts(svc, log))
			r.Post("/posts", CreatePost(svc, log))
			r.Get("/posts/{post_id}", GetPost(svc, log))
			r.Patch("/posts/{post_id}", UpdatePost(svc, log))
			r.Delete("/posts/{post_id}", DeletePost(svc, log))
			r.Get("/posts/{post_id}/comments", ListComments(svc, log))
			r.Post("/posts/{post_id}/comments", AddComment(svc, log))

			r.Get("/comments/{comment_id}", GetComment(svc, log))
			r.Patch("/comments/{comment_id}", UpdateComment(svc, log))
			r.Delete("/comments/{comment_id}", DeleteComment(svc, log))
			r.Post("/comments/{comment_id}/replies", AddReply(svc, log))
		})
	})
}
