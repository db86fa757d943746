package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/fetch"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, fetch.NewFetcher(), TokenFunc(func() string { return token })), &hits
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGetPostNormalizesAndCaches(t *testing.T) {
	c, hits := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/hello", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("views"))
		writeJSON(t, w, map[string]any{
			"slug":     "hello",
			"content":  "Body",
			"comments": []map[string]any{{"_id": "c1", "content": "hi"}},
		})
	})

	p, err := c.GetPost(context.Background(), "hello", true)
	require.NoError(t, err)
	assert.Equal(t, model.PostID("hello"), p.ID)
	assert.Equal(t, model.DefaultTitle, p.Title)
	require.Len(t, p.Comments, 1)
	assert.NotEmpty(t, p.Comments[0].User.Nickname)

	_, err = c.GetPost(context.Background(), "hello", true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

func TestGetPostsQuery(t *testing.T) {
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "24", q.Get("limit"))
		assert.Equal(t, "go", q.Get("tag"))
		assert.Empty(t, q.Get("category"))
		writeJSON(t, w, map[string]any{
			"posts":       []map[string]any{{"slug": "a"}},
			"pinnedPosts": []map[string]any{{"slug": "b"}},
			"totalPages":  3,
		})
	})

	page, err := c.GetPosts(context.Background(), PageQuery{Page: 2, Tag: "go"})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Len(t, page.PinnedPosts, 1)
	assert.Equal(t, model.PostID("a"), page.Posts[0].ID)
	assert.Equal(t, model.DefaultCategory, page.PinnedPosts[0].Category)
}

func TestGetCategoriesNormalizesPosts(t *testing.T) {
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{
			{"_id": "go", "name": "Go", "posts": []map[string]any{{"slug": "x"}}},
		})
	})

	cats, err := c.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Len(t, cats[0].Posts, 1)
	assert.Equal(t, model.DefaultTitle, cats[0].Posts[0].Title)
}

func TestSearchBlankQuerySkipsRequest(t *testing.T) {
	c, hits := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []any{})
	})

	res, err := c.SearchPosts(context.Background(), "   ")
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
	assert.Zero(t, hits.Load())
}

func TestAuthenticatedReadsNeedToken(t *testing.T) {
	c, hits := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.GetMyPosts(context.Background())
	assert.ErrorIs(t, err, fetch.ErrNotAuthenticated)
	_, err = c.GetPendingPosts(context.Background())
	assert.ErrorIs(t, err, fetch.ErrNotAuthenticated)
	assert.Zero(t, hits.Load())
}

func TestGetMyPostsSendsToken(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(t, w, []map[string]any{{"slug": "mine", "status": "pending"}})
	})

	posts, err := c.GetMyPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.False(t, posts[0].IsPublished())
}

func TestCommentWritesBypassCache(t *testing.T) {
	var bodies []model.CommentRequest
	c, hits := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts/comment", r.URL.Path)
		var req model.CommentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		bodies = append(bodies, req)
		writeJSON(t, w, map[string]any{"success": true})
	})

	req := model.CommentRequest{Slug: "hello", Content: "nice"}
	require.NoError(t, c.PostComment(context.Background(), req, "tok"))
	require.NoError(t, c.PostComment(context.Background(), req, "tok"))
	assert.EqualValues(t, 2, hits.Load())
	require.Len(t, bodies, 2)
	assert.Equal(t, "nice", bodies[1].Content)
	assert.Empty(t, bodies[1].ParentID)
}

func TestUpdateAfterCachedRead(t *testing.T) {
	var writes atomic.Int32
	c, hits := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/hello", r.URL.Path)
		if r.Method == http.MethodPut {
			writes.Add(1)
			writeJSON(t, w, map[string]any{"status": "published"})
			return
		}
		writeJSON(t, w, map[string]any{"slug": "hello", "title": "Hello"})
	})
	ctx := context.Background()

	_, err := c.GetPost(ctx, "hello", false)
	require.NoError(t, err)
	_, err = c.UpdatePost(ctx, "hello", model.PostRequest{Title: "Hello", Content: "body"})
	require.NoError(t, err)
	_, err = c.UpdatePost(ctx, "hello", model.PostRequest{Title: "Hello", Content: "body"})
	require.NoError(t, err)
	_, err = c.GetPost(ctx, "hello", false)
	require.NoError(t, err)

	assert.EqualValues(t, 2, writes.Load(), "every update reaches the server")
	assert.EqualValues(t, 3, hits.Load(), "the second read is served from cache")
}

func TestDeleteCommentSendsBody(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"slug":"hello","commentId":"c1"}`, string(raw))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.DeleteComment(context.Background(), model.CommentDeleteRequest{Slug: "hello", CommentID: "c1"}, "tok")
	require.NoError(t, err)
}

func TestCommentWriteWithoutToken(t *testing.T) {
	c, hits := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {})
	err := c.PostComment(context.Background(), model.CommentRequest{Slug: "s", Content: "x"}, "")
	assert.ErrorIs(t, err, fetch.ErrNotAuthenticated)
	assert.Zero(t, hits.Load())
}

func TestServerErrorMessage(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		writeJSON(t, w, map[string]any{"message": "not allowed"})
	})

	err := c.DeletePost(context.Background(), "hello")
	require.Error(t, err)
	var re *fetch.RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusForbidden, re.Status)
	assert.Equal(t, "not allowed", re.Message)
}

func TestCreatePostValidates(t *testing.T) {
	c, hits := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.CreatePost(context.Background(), model.PostRequest{Title: " ", Content: "x"})
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	assert.Zero(t, hits.Load())
}

func TestCreateAndUpdatePost(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		var req model.PostRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, model.DefaultCategory, req.Category)
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/posts", r.URL.Path)
			writeJSON(t, w, map[string]any{"success": true, "status": "pending", "slug": "new"})
		case http.MethodPut:
			assert.Equal(t, "/posts/old-one", r.URL.Path)
			writeJSON(t, w, map[string]any{"success": true, "status": "published"})
		}
	})

	req := model.PostRequest{Title: "T", Content: "C"}
	res, err := c.CreatePost(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Pending())
	assert.Equal(t, "new", res.Slug)

	res, err = c.UpdatePost(context.Background(), "old-one", req)
	require.NoError(t, err)
	assert.False(t, res.Pending())
}

func TestReviewPost(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/review", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"postId":"p1","action":"approve"}`, string(raw))
		writeJSON(t, w, map[string]any{"success": true})
	})
	require.NoError(t, c.ReviewPost(context.Background(), "p1", model.ReviewApprove))
}

func TestUploadMultipart(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/upload-image", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "cat.png", hdr.Filename)
		assert.Equal(t, "png-bytes", string(data))
		writeJSON(t, w, map[string]any{"success": true, "url": "https://cdn/cat.png", "id": "img1"})
	})

	res, err := c.Upload(context.Background(), document.FileFromBytes("cat.png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "img1", res.ID)
	assert.Equal(t, "https://cdn/cat.png", res.URL)
}

func TestUploadWithoutURLFails(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"success": false})
	})
	_, err := c.Upload(context.Background(), document.FileFromBytes("a.png", []byte("x")))
	assert.Error(t, err)
}

func TestLoginNormalizesUser(t *testing.T) {
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, map[string]any{"success": true, "token": "t1", "user": map[string]any{"id": "u1"}})
	})

	res, err := c.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "t1", res.Token)
	assert.Equal(t, model.DefaultAvatar, res.User.Avatar)
	assert.True(t, res.User.IsAuthenticated())
}

func TestCheckEmail(t *testing.T) {
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/forgot-password", r.URL.Path)
		writeJSON(t, w, map[string]any{"success": true, "userExists": true})
	})
	res, err := c.CheckEmail(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.True(t, res.UserExists)
}

func TestUpdateNickname(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"nickname":"neo"}`, string(raw))
		writeJSON(t, w, map[string]any{"success": true, "user": map[string]any{"id": "u1", "nickname": "neo"}})
	})
	res, err := c.UpdateNickname(context.Background(), "neo")
	require.NoError(t, err)
	assert.Equal(t, "neo", res.User.Nickname)
}

func TestCommentsLoader(t *testing.T) {
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"slug": "p", "comments": []map[string]any{{"_id": "c1"}, {"_id": "c2"}}})
	})
	comments, err := c.Comments("p")(context.Background())
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}
