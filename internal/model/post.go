// Package model defines the wire types exchanged with the blog API and their normalization.
package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type PostID string

const (
	DefaultTitle          = "Untitled"
	DefaultStatus         = StatusPending
	DefaultCategory       = "Uncategorized"
	DefaultAuthorNickname = "Unknown author"

	StatusPublished = "published"
	StatusPending   = "pending"
	StatusRejected  = "rejected"

	// Posts whose update time is within this window of their creation are not shown as edited.
	editedThreshold = 10 * time.Second
)

var (
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>?`)
	placeholderPattern = regexp.MustCompile(`\[(?:image|download):.*?\]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Timestamp accepts RFC 3339 strings, empty strings and null.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Count is a non-negative integer the server may send as a number or a numeric string.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		*c = 0
		return nil
	}
	*c = Count(n)
	return nil
}

type Author struct {
	ID       UserID `json:"id,omitempty"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

type CoverImage struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type ContentImage struct {
	ID  string `json:"_id"`
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type Download struct {
	ID          string `json:"_id"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type Post struct {
	RawID         string         `json:"_id,omitempty"`
	ID            PostID         `json:"id"`
	Slug          string         `json:"slug"`
	Title         string         `json:"title"`
	CreateTime    Timestamp      `json:"createTime"`
	UpdateTime    Timestamp      `json:"updateTime"`
	Views         Count          `json:"views"`
	Status        string         `json:"status"`
	Topped        bool           `json:"topped"`
	Excerpt       string         `json:"excerpt"`
	Content       string         `json:"content"`
	Category      string         `json:"category"`
	Tags          []string       `json:"tags"`
	CoverImage    *CoverImage    `json:"coverImage"`
	ContentImages []ContentImage `json:"contentImages"`
	Downloads     []Download     `json:"downloads"`
	Author        Author         `json:"author"`
	Comments      []Comment      `json:"comments"`
}

// Normalize fills the defaults the rest of the client relies on.
func (p *Post) Normalize() {
	if p.ID == "" {
		switch {
		case p.Slug != "":
			p.ID = PostID(p.Slug)
		default:
			p.ID = PostID(p.RawID)
		}
	}
	if p.Slug == "" {
		p.Slug = string(p.ID)
	}
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.CreateTime.IsZero() {
		p.CreateTime = Timestamp{time.Now().UTC()}
	}
	if p.UpdateTime.IsZero() {
		p.UpdateTime = p.CreateTime
	}
	if p.Status == "" {
		p.Status = DefaultStatus
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.ContentImages == nil {
		p.ContentImages = []ContentImage{}
	}
	if p.Downloads == nil {
		p.Downloads = []Download{}
	}
	if p.Author.Nickname == "" {
		p.Author.Nickname = DefaultAuthorNickname
	}
	if p.CoverImage != nil && p.CoverImage.Src == "" {
		p.CoverImage = nil
	}
	p.Excerpt = CleanExcerpt(p.Excerpt)
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].Normalize()
	}
}

// IsEdited reports whether the post was updated noticeably after creation.
func (p *Post) IsEdited() bool {
	d := p.UpdateTime.Sub(p.CreateTime.Time)
	if d < 0 {
		d = -d
	}
	return d > editedThreshold
}

// CanEdit reports whether user may edit the post.
func (p *Post) CanEdit(user *User) bool {
	if user == nil || !user.IsAuthenticated() {
		return false
	}
	return user.IsAdmin || (p.Author.ID != "" && p.Author.ID == user.ID)
}

func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// CleanExcerpt strips HTML tags and resource placeholders and collapses whitespace.
func CleanExcerpt(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = StripPlaceholders(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripPlaceholders removes every [image:..] and [download:..] reference from s.
func StripPlaceholders(s string) string {
	return placeholderPattern.ReplaceAllString(s, "")
}

// NormalizePosts normalizes every post in place and returns the slice.
func NormalizePosts(posts []Post) []Post {
	if posts == nil {
		return []Post{}
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts
}

type PostPage struct {
	Posts       []Post `json:"posts"`
	PinnedPosts []Post `json:"pinnedPosts"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage,omitempty"`
	Total       int    `json:"total,omitempty"`
}

func (p *PostPage) Normalize() {
	p.Posts = NormalizePosts(p.Posts)
	p.PinnedPosts = NormalizePosts(p.PinnedPosts)
}

type Category struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Posts []Post `json:"posts"`
}

type TagCount struct {
	Name  string `json:"name"`
	Count Count  `json:"count"`
}
