package store

import (
	"context"
	"time"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/thread"
)

var (
	ErrNotFound = domain.ErrNotFound
	ErrConflict = domain.ErrConflict
)

type CreateUserParams struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	Now          time.Time
}

type UserRow struct {
	User         domain.User
	PasswordHash string
}

type UserStore interface {
	CreateUser(ctx context.Context, p CreateUserParams) (domain.User, error)
	// FindUserByLogin matches username or email, case-insensitively.
	FindUserByLogin(ctx context.Context, login string) (UserRow, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
}

// PostPatch carries the fields to change; nil leaves a field as it is.
type PostPatch struct {
	Title *string
	Text  *string
}

type PostStore interface {
	CreatePost(ctx context.Context, p domain.Post) (domain.Post, error)
	GetPost(ctx context.Context, id string) (domain.Post, error)
	// ListPosts returns posts newest first.
	ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch, now time.Time) (domain.Post, error)
	// DeletePost removes the post together with all of its comments.
	DeletePost(ctx context.Context, id string) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error)
	GetComment(ctx context.Context, id string) (domain.Comment, error)
	// ListComments returns every comment, at any depth, of the given posts.
	ListComments(ctx context.Context, postIDs ...string) ([]domain.Comment, error)
	// Subtree returns the comment id and all of its descendants.
	Subtree(ctx context.Context, id string) ([]domain.Comment, error)
	UpdateCommentText(ctx context.Context, id, text string, now time.Time) (domain.Comment, error)
	thread.TxRunner
}

type Store interface {
	UserStore
	PostStore
	CommentStore
	Ping(ctx context.Context) error
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
