package domain

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Post struct {
	ID       string
	Title    string
	Text     string
	Created  time.Time
	Updated  time.Time
	AuthorID *string
	// Author is the author's username, resolved by the store.
	Author *string
}

// Comment is one node of a post's reply tree. ParentID is nil for top-level
// comments. A tombstone keeps its row for the tree shape but has no author
// and no creation time.
type Comment struct {
	ID       string
	PostID   string
	ParentID *string
	Text     string
	Created  *time.Time
	Updated  *time.Time
	AuthorID *string
	Author   *string
}

func (c Comment) Tombstoned() bool {
	return c.AuthorID == nil
}

func (c Comment) IsAuthor(userID string) bool {
	return c.AuthorID != nil && userID != "" && *c.AuthorID == userID
}

func (p Post) IsAuthor(userID string) bool {
	return p.AuthorID != nil && userID != "" && *p.AuthorID == userID
}
