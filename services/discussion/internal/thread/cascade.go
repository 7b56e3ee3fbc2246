package thread

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
)

// DeletedMarker replaces the text of a tombstoned comment.
const DeletedMarker = "[deleted]"

// NodeTx is the comment table as seen from inside one transaction.
type NodeTx interface {
	// LockComment loads a comment and holds a row lock on it until the
	// transaction ends.
	LockComment(ctx context.Context, id string) (domain.Comment, error)
	CountChildren(ctx context.Context, id string) (int, error)
	// Tombstone sets text to DeletedMarker, clears author and created and
	// stamps updated with at.
	Tombstone(ctx context.Context, id string, at time.Time) error
	DeleteComment(ctx context.Context, id string) error
}

// TxRunner runs fn in a transaction that commits when fn returns nil and
// rolls back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx NodeTx) error) error
}

// Outcome is what a cascade step did to its comment.
type Outcome string

const (
	Tombstoned Outcome = "tombstoned"
	Removed    Outcome = "removed"
	// Unchanged marks a delete of a tombstone that still has replies; no row
	// was written.
	Unchanged Outcome = "unchanged"
)

// Step records what one committed transaction of a cascade did.
type Step struct {
	CommentID string  `json:"comment_id"`
	Outcome   Outcome `json:"outcome"`
}

// Wrote reports whether the step changed a row.
func (s Step) Wrote() bool {
	return s.Outcome != Unchanged
}

// Cascader runs the upward cascading delete over a TxRunner. Now stamps
// tombstones and defaults to time.Now.
type Cascader struct {
	Tx  TxRunner
	Now func() time.Time
	Log *zap.Logger
}

// Delete removes the comment id, or tombstones it when it still has replies.
// A removal whose parent is a tombstone left without children continues with
// that parent, one transaction per node, until a live comment, a comment
// with remaining children or the top of the thread is reached.
//
// The returned steps are the ones that committed. When a step fails its
// transaction is rolled back and the earlier steps stay in place.
func (c Cascader) Delete(ctx context.Context, id string) ([]Step, error) {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}

	var steps []Step
	for current, first := id, true; current != ""; first = false {
		var (
			step Step
			next string
			stop bool
		)
		err := c.Tx.InTx(ctx, func(tx NodeTx) error {
			node, err := tx.LockComment(ctx, current)
			if err != nil {
				if !first && errors.Is(err, domain.ErrNotFound) {
					stop = true
					return nil
				}
				return err
			}
			if !first && !node.Tombstoned() {
				stop = true
				return nil
			}

			n, err := tx.CountChildren(ctx, node.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				if node.Tombstoned() {
					step = Step{CommentID: node.ID, Outcome: Unchanged}
					return nil
				}
				if err := tx.Tombstone(ctx, node.ID, now().UTC()); err != nil {
					return err
				}
				step = Step{CommentID: node.ID, Outcome: Tombstoned}
				return nil
			}

			var parent *domain.Comment
			if node.ParentID != nil {
				p, err := tx.LockComment(ctx, *node.ParentID)
				if err != nil {
					return fmt.Errorf("lock parent %s: %w", *node.ParentID, err)
				}
				parent = &p
			}
			if err := tx.DeleteComment(ctx, node.ID); err != nil {
				return err
			}
			step = Step{CommentID: node.ID, Outcome: Removed}

			if parent == nil || !parent.Tombstoned() {
				return nil
			}
			remaining, err := tx.CountChildren(ctx, parent.ID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				next = parent.ID
			}
			return nil
		})
		if err != nil {
			if len(steps) > 0 {
				log.Warn("cascade stopped after partial progress",
					zap.String("comment_id", current), zap.Int("committed_steps", len(steps)), zap.Error(err))
			}
			return steps, err
		}
		if stop {
			break
		}

		log.Debug("cascade step", zap.String("comment_id", step.CommentID), zap.String("outcome", string(step.Outcome)))
		observeStep(step)
		steps = append(steps, step)
		current = next
	}
	observeCascade(steps)
	return steps, nil
}
