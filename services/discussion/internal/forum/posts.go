package forum

import (
	"context"

	"github.com/example/discussion-platform/internal/platform/events"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/store"
	"github.com/example/discussion-platform/services/discussion/internal/thread"
)

type PostInput struct {
	Title string `json:"title" validate:"required,notblank,max=128"`
	Text  string `json:"text" validate:"required,notblank"`
}

// PostPatch leaves nil fields unchanged.
type PostPatch struct {
	Title *string `json:"title" validate:"omitnil,notblank,max=128"`
	Text  *string `json:"text" validate:"omitnil,notblank"`
}

// ListPosts renders a page of posts, newest first, each with its full
// comment tree.
func (s *Service) ListPosts(ctx context.Context, actor Actor, limit, offset int) ([]thread.PostNode, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	posts, err := s.Store.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	comments, err := s.Store.ListComments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]thread.PostNode, 0, len(posts))
	for _, p := range posts {
		out = append(out, thread.RenderPost(p, comments))
	}
	return out, nil
}

func (s *Service) GetPost(ctx context.Context, actor Actor, id string) (thread.PostNode, error) {
	if err := requireActor(actor); err != nil {
		return thread.PostNode{}, err
	}
	p, err := s.Store.GetPost(ctx, id)
	if err != nil {
		return thread.PostNode{}, err
	}
	return s.renderPost(ctx, p)
}

func (s *Service) CreatePost(ctx context.Context, actor Actor, in PostInput) (thread.PostNode, error) {
	if err := requireActor(actor); err != nil {
		return thread.PostNode{}, err
	}
	if err := check(in); err != nil {
		return thread.PostNode{}, err
	}
	now := s.now()
	author := actor.UserID
	p, err := s.Store.CreatePost(ctx, domain.Post{
		Title:    in.Title,
		Text:     in.Text,
		Created:  now,
		Updated:  now,
		AuthorID: &author,
	})
	if err != nil {
		return thread.PostNode{}, err
	}
	s.publish(events.SubjectPostCreated, "post_created", actor.UserID, map[string]any{"post_id": p.ID})
	return thread.RenderPost(p, nil), nil
}

// UpdatePost is limited to the post's author.
func (s *Service) UpdatePost(ctx context.Context, actor Actor, id string, patch PostPatch) (thread.PostNode, error) {
	if err := requireActor(actor); err != nil {
		return thread.PostNode{}, err
	}
	p, err := s.Store.GetPost(ctx, id)
	if err != nil {
		return thread.PostNode{}, err
	}
	if !p.IsAuthor(actor.UserID) {
		return thread.PostNode{}, ErrForbidden
	}
	if err := check(patch); err != nil {
		return thread.PostNode{}, err
	}
	if patch.Title == nil && patch.Text == nil {
		return s.renderPost(ctx, p)
	}

	p, err = s.Store.UpdatePost(ctx, id, store.PostPatch{Title: patch.Title, Text: patch.Text}, s.now())
	if err != nil {
		return thread.PostNode{}, err
	}
	s.publish(events.SubjectPostUpdated, "post_updated", actor.UserID, map[string]any{"post_id": p.ID})
	return s.renderPost(ctx, p)
}

// DeletePost removes the post and every comment on it. Allowed for the
// author and for admins.
func (s *Service) DeletePost(ctx context.Context, actor Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	p, err := s.Store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsAuthor(actor.UserID) && !actor.Admin {
		return ErrForbidden
	}
	if err := s.Store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.publish(events.SubjectPostDeleted, "post_deleted", actor.UserID, map[string]any{"post_id": id})
	return nil
}

func (s *Service) renderPost(ctx context.Context, p domain.Post) (thread.PostNode, error) {
	comments, err := s.Store.ListComments(ctx, p.ID)
	if err != nil {
		return thread.PostNode{}, err
	}
	return thread.RenderPost(p, comments), nil
}
