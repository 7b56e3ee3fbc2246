package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/discussion-platform/internal/platform/auth"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/thread"
)

// Postgres persists users, posts and comments with pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const userColumns = `id::text, username, email, first_name, last_name, role, created_at`

func (s *Postgres) CreateUser(ctx context.Context, p CreateUserParams) (domain.User, error) {
	role := p.Role
	if role == "" {
		role = auth.RoleUser
	}
	q := `
INSERT INTO users (id, username, email, first_name, last_name, password_hash, role, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns + `;`
	var u domain.User
	err := s.pool.QueryRow(ctx, q, uuid.New(), p.Username, p.Email, p.FirstName, p.LastName, p.PasswordHash, role, p.Now.UTC()).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Postgres) FindUserByLogin(ctx context.Context, login string) (UserRow, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return UserRow{}, ErrNotFound
	}
	q := `
SELECT ` + userColumns + `, password_hash
FROM users
WHERE lower(username) = lower($1) OR lower(email) = lower($1)
ORDER BY lower(username) = lower($1) DESC
LIMIT 1;`
	var row UserRow
	u := &row.User
	err := s.pool.QueryRow(ctx, q, login).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &row.PasswordHash)
	if err != nil {
		return UserRow{}, mapErr(err)
	}
	return row, nil
}

func (s *Postgres) GetUser(ctx context.Context, id string) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	var u domain.User
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

const postSelect = `
SELECT p.id::text, p.title, p.text, p.created, p.updated, p.author_id::text, u.username
FROM posts p
LEFT JOIN users u ON u.id = p.author_id`

func scanPost(row pgx.Row) (domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.Title, &p.Text, &p.Created, &p.Updated, &p.AuthorID, &p.Author)
	return p, err
}

func (s *Postgres) CreatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	id := uuid.New()
	const q = `
INSERT INTO posts (id, title, text, created, updated, author_id)
VALUES ($1, $2, $3, $4, $5, $6);`
	if _, err := s.pool.Exec(ctx, q, id, p.Title, p.Text, p.Created.UTC(), p.Updated.UTC(), p.AuthorID); err != nil {
		return domain.Post{}, mapErr(err)
	}
	return s.GetPost(ctx, id.String())
}

func (s *Postgres) GetPost(ctx context.Context, id string) (domain.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1;`, id))
	if err != nil {
		return domain.Post{}, mapErr(err)
	}
	return p, nil
}

func (s *Postgres) ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := s.pool.Query(ctx, postSelect+` ORDER BY p.created DESC, p.id DESC LIMIT $1 OFFSET $2;`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdatePost(ctx context.Context, id string, patch PostPatch, now time.Time) (domain.Post, error) {
	const q = `
UPDATE posts
SET title = COALESCE($2, title), text = COALESCE($3, text), updated = $4
WHERE id = $1;`
	tag, err := s.pool.Exec(ctx, q, id, patch.Title, patch.Text, now.UTC())
	if err != nil {
		return domain.Post{}, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Post{}, ErrNotFound
	}
	return s.GetPost(ctx, id)
}

func (s *Postgres) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1;`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const commentColumns = `c.id::text, c.post_id::text, c.parent_id::text, c.text, c.created, c.updated, c.author_id::text, u.username`

const commentSelect = `
SELECT ` + commentColumns + `
FROM comments c
LEFT JOIN users u ON u.id = c.author_id`

const commentOrder = ` ORDER BY c.created ASC NULLS LAST, c.id ASC`

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.ParentID, &c.Text, &c.Created, &c.Updated, &c.AuthorID, &c.Author)
	return c, err
}

func collectComments(rows pgx.Rows) ([]domain.Comment, error) {
	defer rows.Close()
	out := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateComment relies on the (parent_id, post_id) foreign key to reject a
// reply whose post differs from its parent's.
func (s *Postgres) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	id := uuid.New()
	const q = `
INSERT INTO comments (id, post_id, parent_id, text, created, updated, author_id)
VALUES ($1, $2, $3, $4, $5, $6, $7);`
	if _, err := s.pool.Exec(ctx, q, id, c.PostID, c.ParentID, c.Text, c.Created, c.Updated, c.AuthorID); err != nil {
		return domain.Comment{}, mapErr(err)
	}
	return s.GetComment(ctx, id.String())
}

func (s *Postgres) GetComment(ctx context.Context, id string) (domain.Comment, error) {
	c, err := scanComment(s.pool.QueryRow(ctx, commentSelect+` WHERE c.id = $1;`, id))
	if err != nil {
		return domain.Comment{}, mapErr(err)
	}
	return c, nil
}

func (s *Postgres) ListComments(ctx context.Context, postIDs ...string) ([]domain.Comment, error) {
	if len(postIDs) == 0 {
		return []domain.Comment{}, nil
	}
	rows, err := s.pool.Query(ctx, commentSelect+` WHERE c.post_id = ANY($1::uuid[])`+commentOrder+`;`, postIDs)
	if err != nil {
		return nil, err
	}
	return collectComments(rows)
}

func (s *Postgres) Subtree(ctx context.Context, id string) ([]domain.Comment, error) {
	const q = `
WITH RECURSIVE tree AS (
	SELECT id FROM comments WHERE id = $1
	UNION ALL
	SELECT ch.id FROM comments ch JOIN tree t ON ch.parent_id = t.id
)
SELECT ` + commentColumns + `
FROM comments c
JOIN tree ON tree.id = c.id
LEFT JOIN users u ON u.id = c.author_id` + commentOrder + `;`
	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := collectComments(rows)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *Postgres) UpdateCommentText(ctx context.Context, id, text string, now time.Time) (domain.Comment, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE comments SET text = $2, updated = $3 WHERE id = $1;`, id, text, now.UTC())
	if err != nil {
		return domain.Comment{}, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Comment{}, ErrNotFound
	}
	return s.GetComment(ctx, id)
}

// InTx runs fn in a READ COMMITTED transaction. Row locks taken through the
// NodeTx are held until commit or rollback.
func (s *Postgres) InTx(ctx context.Context, fn func(tx thread.NodeTx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(pgNodeTx{tx: tx})
	})
}

type pgNodeTx struct {
	tx pgx.Tx
}

func (t pgNodeTx) LockComment(ctx context.Context, id string) (domain.Comment, error) {
	const q = `
SELECT ` + commentColumns + `
FROM comments c
LEFT JOIN users u ON u.id = c.author_id
WHERE c.id = $1
FOR UPDATE OF c;`
	c, err := scanComment(t.tx.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Comment{}, mapErr(err)
	}
	return c, nil
}

func (t pgNodeTx) CountChildren(ctx context.Context, id string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT count(*) FROM comments WHERE parent_id = $1;`, id).Scan(&n)
	return n, mapErr(err)
}

func (t pgNodeTx) Tombstone(ctx context.Context, id string, at time.Time) error {
	const q = `
UPDATE comments
SET text = $2, author_id = NULL, created = NULL, updated = $3
WHERE id = $1;`
	tag, err := t.tx.Exec(ctx, q, id, thread.DeletedMarker, at.UTC())
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t pgNodeTx) DeleteComment(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM comments WHERE id = $1;`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// mapErr translates pgx errors into store sentinels. Malformed ids and
// dangling foreign keys both surface as ErrNotFound.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503", "22P02":
			return ErrNotFound
		}
	}
	return err
}
