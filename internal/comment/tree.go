// Package comment holds the threaded comment model: tree traversal, delete
// permissions, and the controller that posts and deletes comments.
package comment

import "github.com/debemdeboas/inkwell/internal/model"

// CountAll returns the number of comments in the forest, replies at every depth included.
func CountAll(comments []model.Comment) int {
	n := 0
	stack := [][]model.Comment{comments}
	for len(stack) > 0 {
		level := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n += len(level)
		for i := range level {
			if len(level[i].Replies) > 0 {
				stack = append(stack, level[i].Replies)
			}
		}
	}
	return n
}

type frame struct {
	c     *model.Comment
	depth int
}

// Walk visits comments depth first in display order. Top-level comments have
// depth 0. Returning false from fn stops the walk.
func Walk(comments []model.Comment, fn func(c *model.Comment, depth int) bool) {
	stack := make([]frame, 0, len(comments))
	for i := len(comments) - 1; i >= 0; i-- {
		stack = append(stack, frame{&comments[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.c, f.depth) {
			return
		}
		for i := len(f.c.Replies) - 1; i >= 0; i-- {
			stack = append(stack, frame{&f.c.Replies[i], f.depth + 1})
		}
	}
}

func Find(comments []model.Comment, id string) (*model.Comment, bool) {
	var found *model.Comment
	Walk(comments, func(c *model.Comment, _ int) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}

// ParentOf finds the comment whose replies contain id. A top-level comment
// yields a nil parent and true.
func ParentOf(comments []model.Comment, id string) (*model.Comment, bool) {
	for i := range comments {
		if comments[i].ID == id {
			return nil, true
		}
	}
	var parent *model.Comment
	Walk(comments, func(c *model.Comment, _ int) bool {
		for i := range c.Replies {
			if c.Replies[i].ID == id {
				parent = c
				return false
			}
		}
		return true
	})
	return parent, parent != nil
}

// DepthOf returns how deeply id is nested, or -1 if it is not in the tree.
func DepthOf(comments []model.Comment, id string) int {
	depth := -1
	Walk(comments, func(c *model.Comment, d int) bool {
		if c.ID == id {
			depth = d
			return false
		}
		return true
	})
	return depth
}

// CanDelete reports whether user may delete c: administrators always, others
// when their nickname matches the comment's author. The server makes the
// final decision.
func CanDelete(c *model.Comment, user *model.User) bool {
	if c == nil || user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return user.Nickname != "" && user.Nickname == c.User.Nickname
}
