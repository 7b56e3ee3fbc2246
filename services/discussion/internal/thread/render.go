// Package thread holds the comment tree rules: rendering a post or a comment
// with its full reply tree, and the upward cascading delete.
package thread

import (
	"sort"
	"time"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
)

// CommentNode is the rendered form of a comment. Children is never nil so it
// encodes as [] for a leaf.
type CommentNode struct {
	ID       string        `json:"id"`
	Post     string        `json:"post"`
	Parent   *string       `json:"parent"`
	Text     string        `json:"text"`
	Created  *time.Time    `json:"created"`
	Updated  *time.Time    `json:"updated"`
	Author   *string       `json:"author"`
	Children []CommentNode `json:"children"`
}

// PostNode is a post with its top-level comments, each carrying its replies.
type PostNode struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Text     string        `json:"text"`
	Created  time.Time     `json:"created"`
	Updated  time.Time     `json:"updated"`
	Author   *string       `json:"author"`
	Comments []CommentNode `json:"comments"`
}

// Forest is a parent -> children adjacency over a flat set of comments.
// Every child list is in creation order; tombstones (no created time) sort
// after dated siblings and ties break on id.
type Forest struct {
	roots    []domain.Comment
	children map[string][]domain.Comment
}

// NewForest indexes comments by parent and orders every sibling list.
func NewForest(comments []domain.Comment) Forest {
	f := Forest{children: make(map[string][]domain.Comment)}
	for _, c := range comments {
		if c.ParentID == nil {
			f.roots = append(f.roots, c)
			continue
		}
		f.children[*c.ParentID] = append(f.children[*c.ParentID], c)
	}
	SortComments(f.roots)
	for _, kids := range f.children {
		SortComments(kids)
	}
	return f
}

// Render renders c and recurses into its children with the same routine.
func (f Forest) Render(c domain.Comment) CommentNode {
	kids := f.children[c.ID]
	node := renderFields(c)
	node.Children = make([]CommentNode, 0, len(kids))
	for _, k := range kids {
		node.Children = append(node.Children, f.Render(k))
	}
	return node
}

// RenderRoots renders every top-level comment of the forest.
func (f Forest) RenderRoots() []CommentNode {
	out := make([]CommentNode, 0, len(f.roots))
	for _, c := range f.roots {
		out = append(out, f.Render(c))
	}
	return out
}

// RenderPost renders p with the top-level comments among comments, each
// carrying its full reply tree. Comments of other posts are ignored.
func RenderPost(p domain.Post, comments []domain.Comment) PostNode {
	own := make([]domain.Comment, 0, len(comments))
	for _, c := range comments {
		if c.PostID == p.ID {
			own = append(own, c)
		}
	}
	return PostNode{
		ID:       p.ID,
		Title:    p.Title,
		Text:     p.Text,
		Created:  p.Created,
		Updated:  p.Updated,
		Author:   p.Author,
		Comments: NewForest(own).RenderRoots(),
	}
}

// RenderSubtree renders root with whatever of its descendants are present in
// descendants. root itself may appear in descendants.
func RenderSubtree(root domain.Comment, descendants []domain.Comment) CommentNode {
	rest := make([]domain.Comment, 0, len(descendants))
	for _, c := range descendants {
		if c.ID != root.ID {
			rest = append(rest, c)
		}
	}
	return NewForest(rest).Render(root)
}

// SortComments orders siblings oldest first. Tombstones have no created
// time and go last; ties break on id.
func SortComments(cs []domain.Comment) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i].Created, cs[j].Created
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return cs[i].ID < cs[j].ID
	})
}

func renderFields(c domain.Comment) CommentNode {
	return CommentNode{
		ID:      c.ID,
		Post:    c.PostID,
		Parent:  c.ParentID,
		Text:    c.Text,
		Created: c.Created,
		Updated: c.Updated,
		Author:  c.Author,
	}
}
