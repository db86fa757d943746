package model

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyTitle   = errors.New("post title must not be empty")
	ErrEmptyContent = errors.New("post content must not be empty")
)

// PostRequest is the body sent when creating or updating a post.
type PostRequest struct {
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Excerpt       string         `json:"excerpt"`
	Category      string         `json:"category"`
	Tags          []string       `json:"tags"`
	CoverImage    CoverImage     `json:"coverImage"`
	ContentImages []ContentImage `json:"contentImages"`
	Downloads     []Download     `json:"downloads"`
	Topped        bool           `json:"topped"`
}

// Normalize applies the same defaults the server expects of a well-formed request.
func (r *PostRequest) Normalize() {
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.CoverImage.Alt == "" {
		r.CoverImage.Alt = r.Title
	}
	if r.ContentImages == nil {
		r.ContentImages = []ContentImage{}
	}
	if r.Downloads == nil {
		r.Downloads = []Download{}
	}
}

func (r *PostRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(r.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

type UploadResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	ID      string `json:"id"`
}

// PublishResult is the server's answer to a create or update.
type PublishResult struct {
	BaseResponse
	Status string `json:"status"`
	Slug   string `json:"slug,omitempty"`
	ID     string `json:"id,omitempty"`
}

// Pending reports whether the post awaits administrator review.
func (r *PublishResult) Pending() bool {
	return r.Status == StatusPending
}

type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
)

func ParseReviewAction(s string) (ReviewAction, error) {
	switch a := ReviewAction(strings.ToLower(s)); a {
	case ReviewApprove, ReviewReject:
		return a, nil
	}
	return "", errors.Errorf("unknown review action %q", s)
}

type ReviewRequest struct {
	PostID string       `json:"postId"`
	Action ReviewAction `json:"action"`
}
