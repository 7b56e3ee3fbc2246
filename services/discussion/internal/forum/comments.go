package forum

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/events"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/thread"
)

type CommentInput struct {
	Text string `json:"text" validate:"required,notblank"`
}

// CommentPatch leaves nil fields unchanged; text is the only mutable field.
type CommentPatch struct {
	Text *string `json:"text" validate:"omitnil,notblank"`
}

// ListComments renders the top-level comments of a post as trees.
func (s *Service) ListComments(ctx context.Context, actor Actor, postID string) ([]thread.CommentNode, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.Store.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	return thread.NewForest(comments).RenderRoots(), nil
}

func (s *Service) GetComment(ctx context.Context, actor Actor, id string) (thread.CommentNode, error) {
	if err := requireActor(actor); err != nil {
		return thread.CommentNode{}, err
	}
	return s.renderComment(ctx, id)
}

// AddComment attaches a top-level comment to a post.
func (s *Service) AddComment(ctx context.Context, actor Actor, postID string, in CommentInput) (thread.CommentNode, error) {
	if err := requireActor(actor); err != nil {
		return thread.CommentNode{}, err
	}
	post, err := s.Store.GetPost(ctx, postID)
	if err != nil {
		return thread.CommentNode{}, err
	}
	if err := check(in); err != nil {
		return thread.CommentNode{}, err
	}
	return s.createComment(ctx, actor, post.ID, nil, in.Text)
}

// AddReply attaches a reply to parentID. The reply always belongs to the
// parent's post.
func (s *Service) AddReply(ctx context.Context, actor Actor, parentID string, in CommentInput) (thread.CommentNode, error) {
	if err := requireActor(actor); err != nil {
		return thread.CommentNode{}, err
	}
	parent, err := s.Store.GetComment(ctx, parentID)
	if err != nil {
		return thread.CommentNode{}, err
	}
	if err := check(in); err != nil {
		return thread.CommentNode{}, err
	}
	return s.createComment(ctx, actor, parent.PostID, &parent.ID, in.Text)
}

func (s *Service) createComment(ctx context.Context, actor Actor, postID string, parentID *string, text string) (thread.CommentNode, error) {
	now := s.now()
	author := actor.UserID
	c, err := s.Store.CreateComment(ctx, domain.Comment{
		PostID:   postID,
		ParentID: parentID,
		Text:     text,
		Created:  &now,
		Updated:  &now,
		AuthorID: &author,
	})
	if err != nil {
		return thread.CommentNode{}, err
	}
	props := map[string]any{"comment_id": c.ID, "post_id": c.PostID}
	if parentID != nil {
		props["parent_id"] = *parentID
	}
	s.publish(events.SubjectCommentCreated, "comment_created", actor.UserID, props)
	return thread.RenderSubtree(c, nil), nil
}

// UpdateComment changes the text of a comment. Only its author may do so, so
// tombstones cannot be edited.
func (s *Service) UpdateComment(ctx context.Context, actor Actor, id string, patch CommentPatch) (thread.CommentNode, error) {
	if err := requireActor(actor); err != nil {
		return thread.CommentNode{}, err
	}
	c, err := s.Store.GetComment(ctx, id)
	if err != nil {
		return thread.CommentNode{}, err
	}
	if !c.IsAuthor(actor.UserID) {
		return thread.CommentNode{}, ErrForbidden
	}
	if err := check(patch); err != nil {
		return thread.CommentNode{}, err
	}
	if patch.Text != nil {
		if _, err := s.Store.UpdateCommentText(ctx, id, *patch.Text, s.now()); err != nil {
			return thread.CommentNode{}, err
		}
		s.publish(events.SubjectCommentUpdated, "comment_updated", actor.UserID, map[string]any{"comment_id": id})
	}
	return s.renderComment(ctx, id)
}

// DeleteComment runs the cascading delete for a comment. Allowed for the
// author and for admins; only admins can delete a tombstone.
func (s *Service) DeleteComment(ctx context.Context, actor Actor, id string) ([]thread.Step, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.Store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsAuthor(actor.UserID) && !actor.Admin {
		return nil, ErrForbidden
	}

	steps, err := s.cascader().Delete(ctx, id)
	for _, st := range steps {
		if !st.Wrote() {
			continue
		}
		s.publish(events.SubjectCommentDeleted, "comment_deleted", actor.UserID, map[string]any{
			"comment_id": st.CommentID,
			"post_id":    c.PostID,
			"outcome":    string(st.Outcome),
		})
	}
	if err != nil {
		s.log().Error("comment delete", zap.String("comment_id", id), zap.Int("committed_steps", len(steps)), zap.Error(err))
		return steps, err
	}
	return steps, nil
}

func (s *Service) renderComment(ctx context.Context, id string) (thread.CommentNode, error) {
	nodes, err := s.Store.Subtree(ctx, id)
	if err != nil {
		return thread.CommentNode{}, err
	}
	for _, c := range nodes {
		if c.ID == id {
			return thread.RenderSubtree(c, nodes), nil
		}
	}
	return thread.CommentNode{}, domain.ErrNotFound
}
