package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/discussion-platform/internal/platform/auth"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/thread"
)

var base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	s      *Memory
	ctx    context.Context
	user   domain.User
	post   domain.Post
	minute int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{s: NewMemory(), ctx: context.Background()}
	u, err := f.s.CreateUser(f.ctx, CreateUserParams{Username: "alice", Email: "alice@example.org", PasswordHash: "x", Now: base})
	require.NoError(t, err)
	f.user = u
	p, err := f.s.CreatePost(f.ctx, domain.Post{Title: "A", Text: "body", Created: base, Updated: base, AuthorID: &u.ID})
	require.NoError(t, err)
	f.post = p
	return f
}

func (f *fixture) add(t *testing.T, parent *domain.Comment) domain.Comment {
	t.Helper()
	f.minute++
	at := base.Add(time.Duration(f.minute) * time.Minute)
	c := domain.Comment{PostID: f.post.ID, Text: "hi", Created: &at, Updated: &at, AuthorID: &f.user.ID}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	out, err := f.s.CreateComment(f.ctx, c)
	require.NoError(t, err)
	return out
}

func (f *fixture) del(t *testing.T, id string) []thread.Step {
	t.Helper()
	steps, err := thread.Cascader{Tx: f.s}.Delete(f.ctx, id)
	require.NoError(t, err)
	return steps
}

func TestMemory_CreateUser_UsernameConflict(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.CreateUser(f.ctx, CreateUserParams{Username: "ALICE", Email: "other@example.org"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemory_FindUserByLogin(t *testing.T) {
	f := newFixture(t)

	row, err := f.s.FindUserByLogin(f.ctx, "Alice@Example.org")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, row.User.ID)
	assert.Equal(t, "x", row.PasswordHash)
	assert.Equal(t, auth.RoleUser, row.User.Role)

	_, err = f.s.FindUserByLogin(f.ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_PostAuthorResolvedToUsername(t *testing.T) {
	f := newFixture(t)
	got, err := f.s.GetPost(f.ctx, f.post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", *got.Author)
}

func TestMemory_ListPosts_NewestFirstAndPaged(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		_, err := f.s.CreatePost(f.ctx, domain.Post{Title: "later", Created: at, Updated: at})
		require.NoError(t, err)
	}

	page, err := f.s.ListPosts(f.ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].Created.After(page[1].Created))

	rest, err := f.s.ListPosts(f.ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, f.post.ID, rest[1].ID)

	empty, err := f.s.ListPosts(f.ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemory_UpdatePost_Partial(t *testing.T) {
	f := newFixture(t)
	title := "B"
	later := base.Add(time.Hour)

	got, err := f.s.UpdatePost(f.ctx, f.post.ID, PostPatch{Title: &title}, later)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)
	assert.Equal(t, "body", got.Text)
	assert.Equal(t, later, got.Updated)
}

func TestMemory_DeletePost_RemovesComments(t *testing.T) {
	f := newFixture(t)
	c := f.add(t, nil)
	require.NoError(t, f.s.DeletePost(f.ctx, f.post.ID))

	_, err := f.s.GetComment(f.ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.s.DeletePost(f.ctx, f.post.ID), ErrNotFound)
}

func TestMemory_CreateComment_UnknownTargets(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.CreateComment(f.ctx, domain.Comment{PostID: "nope", Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	missing := "missing"
	_, err = f.s.CreateComment(f.ctx, domain.Comment{PostID: f.post.ID, ParentID: &missing, Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_CreateComment_ReplyMustShareParentPost(t *testing.T) {
	f := newFixture(t)
	parent := f.add(t, nil)
	other, err := f.s.CreatePost(f.ctx, domain.Post{Title: "other", Created: base, Updated: base})
	require.NoError(t, err)

	_, err = f.s.CreateComment(f.ctx, domain.Comment{PostID: other.ID, ParentID: &parent.ID, Text: "x"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemory_SubtreeAndListComments(t *testing.T) {
	f := newFixture(t)
	c1 := f.add(t, nil)
	c2 := f.add(t, &c1)
	c3 := f.add(t, &c2)
	c4 := f.add(t, nil)

	sub, err := f.s.Subtree(f.ctx, c2.ID)
	require.NoError(t, err)
	ids := []string{}
	for _, c := range sub {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{c2.ID, c3.ID}, ids)

	all, err := f.s.ListComments(f.ctx, f.post.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, c1.ID, all[0].ID)
	assert.Equal(t, c4.ID, all[3].ID)
	require.NotNil(t, all[0].Author)
	assert.Equal(t, "alice", *all[0].Author)

	_, err = f.s.Subtree(f.ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Cascade_LeafRemoved(t *testing.T) {
	f := newFixture(t)
	c := f.add(t, nil)

	steps := f.del(t, c.ID)

	assert.Equal(t, []thread.Step{{CommentID: c.ID, Outcome: thread.Removed}}, steps)
	_, err := f.s.GetComment(f.ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Cascade_TombstoneKeepsChildren(t *testing.T) {
	f := newFixture(t)
	c1 := f.add(t, nil)
	c2 := f.add(t, &c1)

	f.del(t, c1.ID)

	got, err := f.s.GetComment(f.ctx, c1.ID)
	require.NoError(t, err)
	assert.True(t, got.Tombstoned())
	assert.Equal(t, thread.DeletedMarker, got.Text)
	assert.Nil(t, got.Author)
	assert.Nil(t, got.Created)

	sub, err := f.s.Subtree(f.ctx, c1.ID)
	require.NoError(t, err)
	require.Len(t, sub, 2)
	assert.Equal(t, c2.ID, sub[1].ID)
}

func TestMemory_Cascade_UpwardCollapse(t *testing.T) {
	f := newFixture(t)
	c1 := f.add(t, nil)
	c2 := f.add(t, &c1)
	c3 := f.add(t, &c2)
	c4 := f.add(t, &c3)
	f.del(t, c2.ID)
	f.del(t, c3.ID)

	steps := f.del(t, c4.ID)

	assert.Equal(t, []thread.Step{
		{CommentID: c4.ID, Outcome: thread.Removed},
		{CommentID: c3.ID, Outcome: thread.Removed},
		{CommentID: c2.ID, Outcome: thread.Removed},
	}, steps)
	live, err := f.s.GetComment(f.ctx, c1.ID)
	require.NoError(t, err)
	assert.False(t, live.Tombstoned())
}

func TestMemory_Cascade_ConcurrentLeafDeletes(t *testing.T) {
	f := newFixture(t)
	root := f.add(t, nil)
	mid := f.add(t, &root)
	leaves := make([]domain.Comment, 8)
	for i := range leaves {
		leaves[i] = f.add(t, &mid)
	}
	f.del(t, root.ID)
	f.del(t, mid.ID)

	var wg sync.WaitGroup
	errs := make(chan error, len(leaves))
	for _, leaf := range leaves {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := thread.Cascader{Tx: f.s}.Delete(f.ctx, id)
			errs <- err
		}(leaf.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	left, err := f.s.ListComments(f.ctx, f.post.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	rendered := thread.RenderPost(f.post, left)
	require.NotNil(t, rendered.Comments)
	assert.Empty(t, rendered.Comments)
}

func TestMemory_InTx_RollsBackOnError(t *testing.T) {
	f := newFixture(t)
	c1 := f.add(t, nil)
	c2 := f.add(t, &c1)

	err := f.s.InTx(f.ctx, func(tx thread.NodeTx) error {
		require.NoError(t, tx.Tombstone(f.ctx, c1.ID, base))
		require.NoError(t, tx.DeleteComment(f.ctx, c2.ID))
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := f.s.GetComment(f.ctx, c1.ID)
	require.NoError(t, err)
	assert.False(t, got.Tombstoned())
	_, err = f.s.GetComment(f.ctx, c2.ID)
	assert.NoError(t, err)
}

func TestMemory_InTx_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	err := f.s.InTx(ctx, func(thread.NodeTx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
