package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/fetch"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/pkg/errors"
)

const DefaultPageSize = 24

type PageQuery struct {
	Page     int
	Limit    int
	Category string
	Tag      string
}

func (q PageQuery) values() url.Values {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	return v
}

func normalizePost(p *model.Post) { p.Normalize() }

func normalizePosts(ps *[]model.Post) { *ps = model.NormalizePosts(*ps) }

// GetPost fetches one post. With addView the server counts a view.
func (c *Client) GetPost(ctx context.Context, id string, addView bool) (model.Post, error) {
	var q url.Values
	if addView {
		q = url.Values{"views": {"true"}}
	}
	return get(ctx, c, routes.Expand(routes.Post, "id", id), q, c.tokens.Token(), normalizePost)
}

func (c *Client) GetPosts(ctx context.Context, q PageQuery) (model.PostPage, error) {
	return get(ctx, c, routes.Posts, q.values(), "", func(p *model.PostPage) { p.Normalize() })
}

func (c *Client) GetCategories(ctx context.Context) ([]model.Category, error) {
	return get(ctx, c, routes.Categories, nil, "", func(cats *[]model.Category) {
		if *cats == nil {
			*cats = []model.Category{}
		}
		for i := range *cats {
			(*cats)[i].Posts = model.NormalizePosts((*cats)[i].Posts)
		}
	})
}

func (c *Client) GetArchive(ctx context.Context) ([]model.Post, error) {
	return get(ctx, c, routes.Archive, nil, "", normalizePosts)
}

func (c *Client) GetTags(ctx context.Context) ([]model.Post, error) {
	return get(ctx, c, routes.Tags, nil, "", normalizePosts)
}

func (c *Client) GetRecentPosts(ctx context.Context) ([]model.Post, error) {
	return get(ctx, c, routes.RecentPosts, nil, "", normalizePosts)
}

func (c *Client) GetTagCloud(ctx context.Context) ([]model.TagCount, error) {
	return get(ctx, c, routes.TagCloud, nil, "", func(tags *[]model.TagCount) {
		if *tags == nil {
			*tags = []model.TagCount{}
		}
	})
}

// SearchPosts returns no results without asking the server when query is blank.
func (c *Client) SearchPosts(ctx context.Context, query string) ([]model.Post, error) {
	if strings.TrimSpace(query) == "" {
		return []model.Post{}, nil
	}
	return get(ctx, c, routes.Search, url.Values{"q": {query}}, "", normalizePosts)
}

func (c *Client) GetMyPosts(ctx context.Context) ([]model.Post, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}
	return get(ctx, c, routes.MyPosts, nil, token, normalizePosts)
}

func (c *Client) GetPendingPosts(ctx context.Context) ([]model.Post, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}
	return get(ctx, c, routes.Pending, nil, token, normalizePosts)
}

// Comments returns a loader of the comment tree of post id.
func (c *Client) Comments(id string) func(context.Context) ([]model.Comment, error) {
	return func(ctx context.Context) ([]model.Comment, error) {
		p, err := c.GetPost(ctx, id, false)
		if err != nil {
			return nil, err
		}
		return p.Comments, nil
	}
}

func (c *Client) CreatePost(ctx context.Context, req model.PostRequest) (model.PublishResult, error) {
	return c.writePost(ctx, http.MethodPost, routes.Posts, req)
}

func (c *Client) UpdatePost(ctx context.Context, slug string, req model.PostRequest) (model.PublishResult, error) {
	if slug == "" {
		return model.PublishResult{}, errors.New("update needs a slug")
	}
	return c.writePost(ctx, http.MethodPut, routes.Expand(routes.PostBySlug, "slug", slug), req)
}

func (c *Client) writePost(ctx context.Context, method, path string, req model.PostRequest) (model.PublishResult, error) {
	token, err := c.requireToken()
	if err != nil {
		return model.PublishResult{}, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return model.PublishResult{}, err
	}
	return send[model.PublishResult](ctx, c, method, path, req, token)
}

func (c *Client) DeletePost(ctx context.Context, slug string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	_, err = send[model.BaseResponse](ctx, c, http.MethodDelete, routes.Expand(routes.PostBySlug, "slug", slug), nil, token)
	return err
}

// PostComment sends a comment or, with ParentID set, a reply.
func (c *Client) PostComment(ctx context.Context, req model.CommentRequest, token string) error {
	if token == "" {
		return fetch.ErrNotAuthenticated
	}
	_, err := send[model.BaseResponse](ctx, c, http.MethodPost, routes.Comment, req, token)
	return err
}

// DeleteComment sends a DELETE carrying the comment reference as its body.
func (c *Client) DeleteComment(ctx context.Context, req model.CommentDeleteRequest, token string) error {
	if token == "" {
		return fetch.ErrNotAuthenticated
	}
	_, err := send[model.BaseResponse](ctx, c, http.MethodDelete, routes.Comment, req, token)
	return err
}

func (c *Client) ReviewPost(ctx context.Context, postID string, action model.ReviewAction) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	_, err = send[model.BaseResponse](ctx, c, http.MethodPost, routes.Review, model.ReviewRequest{PostID: postID, Action: action}, token)
	return err
}

// Upload makes the client a publish.Uploader.
func (c *Client) Upload(ctx context.Context, f *document.LocalFile) (model.UploadResult, error) {
	return c.UploadImage(ctx, f)
}

// UploadImage stores an image through the API and returns its id and URL.
func (c *Client) UploadImage(ctx context.Context, f *document.LocalFile) (model.UploadResult, error) {
	token, err := c.requireToken()
	if err != nil {
		return model.UploadResult{}, err
	}
	res, err := upload[model.UploadResult](ctx, c, routes.UploadImage, f, token)
	if err != nil {
		return model.UploadResult{}, err
	}
	if res.URL == "" {
		return model.UploadResult{}, errors.Errorf("upload %s: server returned no url", f.Name)
	}
	return res, nil
}
