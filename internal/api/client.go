// Package api is the typed client of the blog REST API. Reads go through the
// fetch layer's short-lived cache; writes always reach the server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/fetch"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var apiLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

// TokenSource yields the bearer token at the moment a request is built.
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Client struct {
	baseURL string
	fetcher *fetch.Fetcher
	tokens  TokenSource
}

func NewClient(baseURL string, f *fetch.Fetcher, tokens TokenSource) *Client {
	if f == nil {
		f = fetch.NewFetcher()
	}
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}
	return &Client{baseURL: baseURL, fetcher: f, tokens: tokens}
}

func (c *Client) url(path string, query url.Values) string {
	return routes.Join(c.baseURL, path, query)
}

func (c *Client) requireToken() (string, error) {
	token := c.tokens.Token()
	if token == "" {
		return "", fetch.ErrNotAuthenticated
	}
	return token, nil
}

// get performs a cached read decoded into T.
func get[T any](ctx context.Context, c *Client, path string, query url.Values, token string, normalize func(*T)) (T, error) {
	u := c.url(path, query)
	apiLogger.Debug().Str("url", u).Msg("GET")
	return fetch.Get[T](ctx, c.fetcher, u, token, fetch.JSON(normalize))
}

// send performs a write with a JSON body decoded into T.
func send[T any](ctx context.Context, c *Client, method, path string, body any, token string) (T, error) {
	var zero T
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}
	u := c.url(path, nil)
	apiLogger.Debug().Str("method", method).Str("url", u).Msg("Write")
	v, err := c.fetcher.Do(ctx, fetch.Request{
		Method:    method,
		URL:       u,
		Token:     token,
		Body:      reader,
		Processor: fetch.JSON[T](nil),
	})
	if err != nil {
		return zero, err
	}
	return fetch.As[T](v)
}

// upload sends f as the "file" field of a multipart form.
func upload[T any](ctx context.Context, c *Client, path string, f *document.LocalFile, token string) (T, error) {
	var zero T
	if f == nil || f.Open == nil {
		return zero, errors.New("no file to upload")
	}
	src, err := f.Open()
	if err != nil {
		return zero, errors.Wrapf(err, "open %s", f.Name)
	}
	defer src.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(config.FormFieldUpload, f.Name)
	if err != nil {
		return zero, errors.Wrap(err, "create form file")
	}
	if _, err := io.Copy(part, src); err != nil {
		return zero, errors.Wrapf(err, "read %s", f.Name)
	}
	if err := mw.Close(); err != nil {
		return zero, errors.Wrap(err, "close multipart writer")
	}

	v, err := c.fetcher.Do(ctx, fetch.Request{
		Method:      http.MethodPost,
		URL:         c.url(path, nil),
		Token:       token,
		Body:        &buf,
		ContentType: mw.FormDataContentType(),
		Processor:   fetch.JSON[T](nil),
	})
	if err != nil {
		return zero, err
	}
	return fetch.As[T](v)
}
