package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/discussion-platform/internal/platform/auth"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/thread"
)

type memUser struct {
	user domain.User
	hash string
}

// Memory is a development-only in-memory Store.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]memUser
	posts    map[string]domain.Post
	comments map[string]domain.Comment
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]memUser),
		posts:    make(map[string]domain.Post),
		comments: make(map[string]domain.Comment),
	}
}

func (s *Memory) Ping(context.Context) error { return nil }

func (s *Memory) CreateUser(_ context.Context, p CreateUserParams) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.user.Username, p.Username) {
			return domain.User{}, ErrConflict
		}
	}
	role := p.Role
	if role == "" {
		role = auth.RoleUser
	}
	u := domain.User{
		ID:        uuid.NewString(),
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      role,
		CreatedAt: p.Now.UTC(),
	}
	s.users[u.ID] = memUser{user: u, hash: p.PasswordHash}
	return u, nil
}

func (s *Memory) FindUserByLogin(_ context.Context, login string) (UserRow, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return UserRow{}, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.user.Username, login) || strings.EqualFold(u.user.Email, login) {
			return UserRow{User: u.user, PasswordHash: u.hash}, nil
		}
	}
	return UserRow{}, ErrNotFound
}

func (s *Memory) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u.user, nil
}

func (s *Memory) CreatePost(_ context.Context, p domain.Post) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	p.Author = nil
	s.posts[p.ID] = p
	return s.withPostAuthor(p), nil
}

func (s *Memory) GetPost(_ context.Context, id string) (domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	return s.withPostAuthor(p), nil
}

func (s *Memory) ListPosts(_ context.Context, limit, offset int) ([]domain.Post, error) {
	limit, offset = clampPage(limit, offset)
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		all = append(all, s.withPostAuthor(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Created.Equal(all[j].Created) {
			return all[i].Created.After(all[j].Created)
		}
		return all[i].ID > all[j].ID
	})
	if offset >= len(all) {
		return []domain.Post{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Memory) UpdatePost(_ context.Context, id string, patch PostPatch, now time.Time) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Text != nil {
		p.Text = *patch.Text
	}
	p.Updated = now.UTC()
	s.posts[id] = p
	return s.withPostAuthor(p), nil
}

func (s *Memory) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *Memory) CreateComment(_ context.Context, c domain.Comment) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[c.PostID]; !ok {
		return domain.Comment{}, ErrNotFound
	}
	if c.ParentID != nil {
		parent, ok := s.comments[*c.ParentID]
		if !ok {
			return domain.Comment{}, ErrNotFound
		}
		if parent.PostID != c.PostID {
			return domain.Comment{}, ErrConflict
		}
	}
	c.ID = uuid.NewString()
	c.Author = nil
	s.comments[c.ID] = c
	return s.withCommentAuthor(c), nil
}

func (s *Memory) GetComment(_ context.Context, id string) (domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, ErrNotFound
	}
	return s.withCommentAuthor(c), nil
}

func (s *Memory) ListComments(_ context.Context, postIDs ...string) ([]domain.Comment, error) {
	want := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		want[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Comment{}
	for _, c := range s.comments {
		if _, ok := want[c.PostID]; ok {
			out = append(out, s.withCommentAuthor(c))
		}
	}
	thread.SortComments(out)
	return out, nil
}

func (s *Memory) Subtree(_ context.Context, id string) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	byParent := make(map[string][]domain.Comment)
	for _, c := range s.comments {
		if c.ParentID != nil && c.PostID == root.PostID {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}
	out := []domain.Comment{s.withCommentAuthor(root)}
	queue := []string{root.ID}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, c := range byParent[next] {
			out = append(out, s.withCommentAuthor(c))
			queue = append(queue, c.ID)
		}
	}
	return out, nil
}

func (s *Memory) UpdateCommentText(_ context.Context, id, text string, now time.Time) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, ErrNotFound
	}
	c.Text = text
	at := now.UTC()
	c.Updated = &at
	s.comments[id] = c
	return s.withCommentAuthor(c), nil
}

// InTx holds the write lock for the whole of fn. Writes made through the
// transaction are undone when fn fails.
func (s *Memory) InTx(ctx context.Context, fn func(tx thread.NodeTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Memory) withPostAuthor(p domain.Post) domain.Post {
	p.Author = s.username(p.AuthorID)
	return p
}

func (s *Memory) withCommentAuthor(c domain.Comment) domain.Comment {
	c.Author = s.username(c.AuthorID)
	return c
}

func (s *Memory) username(id *string) *string {
	if id == nil {
		return nil
	}
	u, ok := s.users[*id]
	if !ok {
		return nil
	}
	name := u.user.Username
	return &name
}

type memTx struct {
	s    *Memory
	undo []func()
}

func (t *memTx) LockComment(_ context.Context, id string) (domain.Comment, error) {
	c, ok := t.s.comments[id]
	if !ok {
		return domain.Comment{}, ErrNotFound
	}
	return t.s.withCommentAuthor(c), nil
}

func (t *memTx) CountChildren(_ context.Context, id string) (int, error) {
	n := 0
	for _, c := range t.s.comments {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (t *memTx) Tombstone(_ context.Context, id string, at time.Time) error {
	prev, ok := t.s.comments[id]
	if !ok {
		return ErrNotFound
	}
	c := prev
	c.Text = thread.DeletedMarker
	c.AuthorID = nil
	c.Created = nil
	c.Updated = &at
	t.s.comments[id] = c
	t.undo = append(t.undo, func() { t.s.comments[id] = prev })
	return nil
}

func (t *memTx) DeleteComment(_ context.Context, id string) error {
	prev, ok := t.s.comments[id]
	if !ok {
		return ErrNotFound
	}
	delete(t.s.comments, id)
	t.undo = append(t.undo, func() { t.s.comments[id] = prev })
	return nil
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}
