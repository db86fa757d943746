package model

import "time"

const DefaultCommentNickname = "Anonymous visitor"

type CommentUser struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

// Comment is a node in a post's comment tree. Replies are owned by their parent.
type Comment struct {
	ID       string      `json:"_id"`
	Content  string      `json:"content"`
	Date     Timestamp   `json:"date"`
	ParentID string      `json:"parentId,omitempty"`
	User     CommentUser `json:"user"`
	Replies  []Comment   `json:"replies"`
}

func (c *Comment) Normalize() {
	if c.Date.IsZero() {
		c.Date = Timestamp{time.Now().UTC()}
	}
	if c.User.Nickname == "" {
		c.User.Nickname = DefaultCommentNickname
	}
	if c.Replies == nil {
		c.Replies = []Comment{}
	}
	for i := range c.Replies {
		c.Replies[i].Normalize()
	}
}

// CommentRequest is the body of a comment post.
type CommentRequest struct {
	Slug     string `json:"slug"`
	Content  string `json:"content"`
	ParentID string `json:"parentId,omitempty"`
}

// CommentDeleteRequest is the body of a comment deletion.
type CommentDeleteRequest struct {
	Slug      string `json:"slug"`
	CommentID string `json:"commentId"`
}
