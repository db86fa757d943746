package editor

import (
	"context"
	"strings"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/fetch"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/notify"
	"github.com/debemdeboas/inkwell/internal/publish"
	"github.com/pkg/errors"
)

// Posts is the part of the API client the editor needs.
type Posts interface {
	GetPost(ctx context.Context, id string, addView bool) (model.Post, error)
	CreatePost(ctx context.Context, req model.PostRequest) (model.PublishResult, error)
	UpdatePost(ctx context.Context, slug string, req model.PostRequest) (model.PublishResult, error)
}

type Authenticator interface {
	IsAuthenticated() bool
}

// Load replaces the session with the post slug for editing. On failure the
// session is left as it was.
func (s *Session) Load(ctx context.Context, slug string) error {
	post, err := s.posts.GetPost(ctx, slug, false)
	if err != nil {
		editorLogger.Warn().Err(err).Str("slug", slug).Msg("Failed to load post for editing")
		s.notifier.Notify(errorMessage(err), notify.Error, "")
		return err
	}

	s.Title = post.Title
	s.Category = post.Category
	s.Tags = append([]string{}, post.Tags...)
	s.Cover = publish.Cover{}
	if post.CoverImage != nil {
		s.Cover = publish.Cover{Src: post.CoverImage.Src, Alt: post.CoverImage.Alt}
	}
	s.EditSlug = slug
	s.blocks = document.Parse(post.Content, post.ContentImages, post.Downloads, s.ids)

	if missing := document.Missing(post.Content, post.ContentImages, post.Downloads); len(missing) > 0 {
		editorLogger.Warn().Str("slug", slug).Int("missing", len(missing)).Msg("Post references unknown resources")
	}
	return nil
}

// Publish uploads pending images and the cover, then creates the post or
// updates the one being edited. On success the session keeps the uploaded
// resources and points at the published slug.
func (s *Session) Publish(ctx context.Context) (model.PublishResult, error) {
	if s.submitting {
		return model.PublishResult{}, ErrSubmitting
	}
	if s.auth != nil && !s.auth.IsAuthenticated() {
		s.notifier.Notify(config.MsgSessionExpired, notify.Error, "")
		return model.PublishResult{}, fetch.ErrNotAuthenticated
	}

	s.submitting = true
	defer func() { s.submitting = false }()

	res, resolved, cover, err := s.publish(ctx)
	if err != nil {
		editorLogger.Warn().Err(err).Str("title", s.Title).Msg("Publish failed")
		s.notifier.Notify(errorMessage(err), notify.Error, "")
		return model.PublishResult{}, err
	}

	s.blocks = resolved.Blocks
	if len(s.blocks) == 0 {
		s.blocks = []document.Block{document.NewText(s.ids.Next(), "")}
	}
	s.Cover = publish.Cover{Src: cover.Src, Alt: cover.Alt}
	if s.EditSlug == "" {
		s.EditSlug = res.Slug
	}

	if res.Pending() {
		s.notifier.Notify(config.MsgPendingReview, notify.Success, "")
	} else {
		s.notifier.Notify(config.MsgPublished, notify.Success, "")
	}
	editorLogger.Info().Str("title", s.Title).Str("status", res.Status).Msg("Post published")
	return res, nil
}

func (s *Session) publish(ctx context.Context) (model.PublishResult, publish.Resolved, model.CoverImage, error) {
	var (
		res      model.PublishResult
		resolved publish.Resolved
		cover    model.CoverImage
	)

	// Checked before anything is uploaded.
	if strings.TrimSpace(s.Title) == "" {
		return res, resolved, cover, model.ErrEmptyTitle
	}
	if !s.IsContentDone() {
		return res, resolved, cover, model.ErrEmptyContent
	}

	coverIn := s.Cover
	if coverIn.Alt == "" {
		coverIn.Alt = s.Title
	}
	cover, err := publish.ResolveCover(ctx, coverIn, s.uploader)
	if err != nil {
		return res, resolved, cover, err
	}

	resolved, err = publish.Resolve(ctx, s.blocks, s.uploader, nil)
	if err != nil {
		return res, resolved, cover, err
	}

	req := model.PostRequest{
		Title:         s.Title,
		Category:      s.Category,
		Tags:          s.Tags,
		CoverImage:    cover,
		ContentImages: resolved.ContentImages,
		Downloads:     resolved.Downloads,
		Content:       resolved.Document,
		Excerpt:       document.Excerpt(s.blocks, config.ExcerptRunes),
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return res, resolved, cover, err
	}

	if s.EditSlug != "" {
		res, err = s.posts.UpdatePost(ctx, s.EditSlug, req)
	} else {
		res, err = s.posts.CreatePost(ctx, req)
	}
	return res, resolved, cover, err
}

func errorMessage(err error) string {
	var re *fetch.RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
