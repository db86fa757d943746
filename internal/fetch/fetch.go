// Package fetch issues API requests, sharing concurrent identical reads and
// keeping their results for a short time.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var fetchLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	fetchLogger = l
}

const DefaultTTL = 2000 * time.Millisecond

type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Processor turns a successful response body into the value handed to callers.
// body is nil for empty responses.
type Processor func(body []byte) (any, error)

// DecodeJSON decodes into a generic JSON value.
func DecodeJSON(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return v, nil
}

// JSON decodes into T and runs normalize on the result when given.
func JSON[T any](normalize func(*T)) Processor {
	return func(body []byte) (any, error) {
		var v T
		if len(body) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, errors.Wrap(err, "decode response")
		}
		if normalize != nil {
			normalize(&v)
		}
		return v, nil
	}
}

type Request struct {
	Method      string
	URL         string
	Token       string
	Body        io.Reader
	ContentType string
	Processor   Processor
}

// Key identifies a read. Requests for the same URL under different credentials never share results.
type Key struct {
	URL           string
	Authorization string
}

func (k Key) String() string {
	return k.URL + "\x00" + k.Authorization
}

type entry struct {
	value any
	gen   uint64
}

type Fetcher struct {
	doer      Doer
	clock     Clock
	ttl       time.Duration
	userAgent string

	data     *cache.Cache[Key, *entry]
	inflight singleflight.Group
	pending  atomic.Int64
	waiting  atomic.Int64
	joined   atomic.Int64
	gen      atomic.Uint64
}

type Option func(*Fetcher)

func WithDoer(d Doer) Option {
	return func(f *Fetcher) { f.doer = d }
}

func WithClock(c Clock) Option {
	return func(f *Fetcher) { f.clock = c }
}

func WithTTL(ttl time.Duration) Option {
	return func(f *Fetcher) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		doer:  http.DefaultClient,
		clock: SystemClock,
		ttl:   DefaultTTL,
		data:  cache.NewCache[Key, *entry](),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func authorization(token string) string {
	if token == "" {
		return ""
	}
	return config.BearerPrefix + token
}

// Do performs req. Reads are served from the cache when fresh, otherwise they
// join an identical read already on the wire or start a new one. Writes always
// reach the network.
func (f *Fetcher) Do(ctx context.Context, req Request) (any, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet {
		return f.send(ctx, method, req)
	}

	key := Key{URL: req.URL, Authorization: authorization(req.Token)}
	if e, ok := f.data.Get(key); ok {
		fetchLogger.Debug().Str("url", req.URL).Msg("Cache hit")
		return e.value, nil
	}

	// The flight outlives any single caller so that joiners are not failed by
	// the first caller going away.
	flightCtx := context.WithoutCancel(ctx)
	ch := f.inflight.DoChan(key.String(), func() (any, error) {
		if e, ok := f.data.Get(key); ok {
			return e.value, nil
		}

		f.pending.Add(1)
		defer f.pending.Add(-1)

		fetchLogger.Debug().Str("url", req.URL).Msg("Cache miss")
		v, err := f.send(flightCtx, http.MethodGet, req)
		if err != nil {
			return nil, err
		}
		f.store(key, v)
		return v, nil
	})
	f.waiting.Add(1)
	defer f.waiting.Add(-1)

	select {
	case res := <-ch:
		if res.Shared {
			f.joined.Add(1)
			fetchLogger.Debug().Str("url", req.URL).Msg("Joined in-flight request")
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Fetcher) store(key Key, v any) {
	e := &entry{value: v, gen: f.gen.Add(1)}
	f.data.Set(key, e)
	f.clock.AfterFunc(f.ttl, func() {
		f.data.DeleteFunc(key, func(cur *entry) bool { return cur.gen != e.gen })
	})
}

func (f *Fetcher) send(ctx context.Context, method string, req Request) (any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, req.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s %s", method, req.URL)
	}
	if auth := authorization(req.Token); auth != "" {
		httpReq.Header.Set(config.HAuthorization, auth)
	}
	if req.Body != nil {
		ct := req.ContentType
		if ct == "" {
			ct = config.CTypeJSON
		}
		httpReq.Header.Set(config.HCType, ct)
	}
	httpReq.Header.Set(config.HAccept, config.CTypeJSON)
	if f.userAgent != "" {
		httpReq.Header.Set(config.HUserAgent, f.userAgent)
	}

	resp, err := f.doer.Do(httpReq)
	if err != nil {
		fetchLogger.Warn().Err(err).Str("method", method).Str("url", req.URL).Msg("Request failed")
		return nil, &RequestError{Method: method, URL: req.URL, Message: err.Error(), Err: errors.WithStack(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: method, URL: req.URL, Status: resp.StatusCode, Message: err.Error(), Err: errors.WithStack(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := newStatusError(method, req.URL, resp.StatusCode, body)
		fetchLogger.Warn().Int("status", resp.StatusCode).Str("method", method).Str("url", req.URL).Msg(rerr.Message)
		return nil, rerr
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		body = nil
	}

	process := req.Processor
	if process == nil {
		process = DecodeJSON
	}
	v, err := process(body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, req.URL)
	}
	return v, nil
}

// Len is the number of cached reads.
func (f *Fetcher) Len() int {
	return f.data.Len()
}

// Waiting is the number of callers registered on a read flight and not yet answered.
func (f *Fetcher) Waiting() int {
	return int(f.waiting.Load())
}

// InFlight is the number of reads currently on the wire.
func (f *Fetcher) InFlight() int {
	return int(f.pending.Load())
}

// Get performs a read and asserts its result to T.
func Get[T any](ctx context.Context, f *Fetcher, url, token string, process Processor) (T, error) {
	var zero T
	v, err := f.Do(ctx, Request{URL: url, Token: token, Processor: process})
	if err != nil {
		return zero, err
	}
	return As[T](v)
}

// As converts a processed result to T. A nil result yields the zero value.
func As[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("unexpected result type %T", v)
	}
	return t, nil
}
