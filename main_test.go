package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/debemdeboas/inkwell/internal/api"
	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/comment"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/fetch"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/notify"
	"github.com/debemdeboas/inkwell/internal/repository"
)

type testApp struct {
	*app
	buf      *bytes.Buffer
	recorder *notify.Recorder
}

func newTestApp(t *testing.T, input string, h http.HandlerFunc) *testApp {
	t.Helper()
	if h == nil {
		h = func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	buf := &bytes.Buffer{}
	rec := &notify.Recorder{}
	store := auth.NewStore(auth.NewMemoryBackend())
	client := api.NewClient(srv.URL, fetch.NewFetcher(), store)

	return &testApp{
		app: &app{
			cfg:      config.Default(),
			store:    store,
			client:   client,
			uploader: client,
			drafts:   repository.NewMemoryDraftRepository(),
			notifier: rec,
			prompter: notify.NewPrompter(strings.NewReader(input), buf),
			out:      buf,
			style:    newStyles(buf),
		},
		buf:      buf,
		recorder: rec,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	json.NewEncoder(w).Encode(v)
}

func (a *testApp) login(t *testing.T, nickname string) {
	t.Helper()
	if err := a.store.Login(model.User{ID: "u1", Nickname: nickname}, "tok"); err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestRunUnknownCommand(t *testing.T) {
	a := newTestApp(t, "", nil)

	for _, args := range [][]string{nil, {"nope"}, {"draft"}, {"draft", "nope"}} {
		if err := a.run(context.Background(), args); !errors.Is(err, errUsage) {
			t.Errorf("Expected usage error for %v, got %v", args, err)
		}
	}
}

func TestUsageListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	usage(&buf)
	for name := range commands {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("Expected usage to mention %s", name)
		}
	}
}

func TestPostsCommand(t *testing.T) {
	a := newTestApp(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "5" || q.Get("tag") != "go" {
			t.Errorf("Unexpected query %v", q)
		}
		writeJSON(w, map[string]any{
			"posts":       []map[string]any{{"slug": "first", "title": "First post", "status": "published"}},
			"pinnedPosts": []map[string]any{{"slug": "pinned", "title": "Pinned post", "topped": true}},
			"totalPages":  3,
		})
	})

	if err := a.run(context.Background(), []string{"posts", "-page", "2", "-limit", "5", "-tag", "go"}); err != nil {
		t.Fatalf("posts failed: %v", err)
	}

	out := a.buf.String()
	for _, want := range []string{"Pinned post", "First post", "pinned |", "Page 2 of 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output %q", want, out)
		}
	}
	if strings.Index(out, "Pinned post") > strings.Index(out, "First post") {
		t.Error("Expected pinned posts first")
	}
}

func TestSearchBlankQuery(t *testing.T) {
	a := newTestApp(t, "", nil)

	if err := a.run(context.Background(), []string{"search", "  "}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(a.buf.String(), "No posts") {
		t.Errorf("Expected empty result, got %q", a.buf.String())
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	a := newTestApp(t, "ana@example.com\nsecret\n", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		var creds model.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "ana@example.com" || creds.Password != "secret" {
			t.Errorf("Unexpected credentials %+v", creds)
		}
		writeJSON(w, map[string]any{
			"success": true,
			"token":   "tok",
			"user":    map[string]any{"id": "u1", "nickname": "ana", "email": "ana@example.com"},
		})
	})
	ctx := context.Background()

	if err := a.run(ctx, []string{"login"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if a.store.Token() != "tok" || !a.store.IsAuthenticated() {
		t.Fatal("Expected session to be stored")
	}
	if n, _ := a.recorder.Last(); n.Kind != notify.Success || !strings.Contains(n.Message, "ana") {
		t.Errorf("Unexpected notification %+v", n)
	}

	if err := a.run(ctx, []string{"whoami"}); err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(a.buf.String(), "ana <ana@example.com>") {
		t.Errorf("Expected user in output, got %q", a.buf.String())
	}

	if err := a.run(ctx, []string{"logout"}); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	a.buf.Reset()
	a.run(ctx, []string{"whoami"})
	if !strings.Contains(a.buf.String(), "Not logged in") {
		t.Errorf("Expected logged out, got %q", a.buf.String())
	}
}

func TestShowCommand(t *testing.T) {
	a := newTestApp(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/hello" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		writeJSON(w, map[string]any{
			"slug":      "hello",
			"title":     "Hello",
			"content":   "Intro\n\n### Setup\n\n[download:dl_1]",
			"downloads": []map[string]any{{"_id": "dl_1", "description": "Slides", "url": "https://files/slides.pdf"}},
			"comments": []map[string]any{{
				"_id": "c1", "content": "Nice post", "user": map[string]any{"nickname": "bo"},
				"replies": []map[string]any{{"_id": "c2", "content": "Thanks", "user": map[string]any{"nickname": "ana"}}},
			}},
		})
	})
	ctx := context.Background()

	if err := a.run(ctx, []string{"show", "hello"}); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	out := a.buf.String()
	for _, want := range []string{"Hello", "Contents", "Setup #setup", "Slides Log in to download", "Comments (2)", "Nice post", "    Thanks"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output %q", want, out)
		}
	}

	path := filepath.Join(t.TempDir(), "hello.html")
	if err := a.run(ctx, []string{"show", "-html", path, "hello"}); err != nil {
		t.Fatalf("show -html failed: %v", err)
	}
	page, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read page: %v", err)
	}
	for _, want := range []string{"<title>Hello</title>", `<h3 id="setup">Setup</h3>`, "download-locked"} {
		if !strings.Contains(string(page), want) {
			t.Errorf("Expected %q in page", want)
		}
	}
}

func TestSourceCommandFlagsMissingResources(t *testing.T) {
	a := newTestApp(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"slug": "hello", "content": "Intro\n\n[image:gone]"})
	})

	if err := a.run(context.Background(), []string{"source", "hello"}); err != nil {
		t.Fatalf("source failed: %v", err)
	}
	if !strings.Contains(a.buf.String(), "gone  (missing)") {
		t.Errorf("Expected missing image block, got %q", a.buf.String())
	}
	if n, _ := a.recorder.Last(); n.Kind != notify.Warning || !strings.Contains(n.Message, "gone") {
		t.Errorf("Expected warning for missing image, got %+v", n)
	}
}

func TestCommentRequiresLogin(t *testing.T) {
	a := newTestApp(t, "", nil)

	err := a.run(context.Background(), []string{"comment", "hello", "great", "post"})
	if !errors.Is(err, fetch.ErrNotAuthenticated) {
		t.Fatalf("Expected ErrNotAuthenticated, got %v", err)
	}
	if n, _ := a.recorder.Last(); n.Message != config.MsgLoginRequired {
		t.Errorf("Expected login notice, got %+v", n)
	}
}

func TestCommentCommand(t *testing.T) {
	var posted model.CommentRequest
	a := newTestApp(t, "", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/posts/comment":
			if r.Header.Get(config.HAuthorization) != "Bearer tok" {
				t.Errorf("Missing token")
			}
			json.NewDecoder(r.Body).Decode(&posted)
			writeJSON(w, map[string]any{"success": true})
		case r.Method == http.MethodGet && r.URL.Path == "/posts/hello":
			writeJSON(w, map[string]any{"slug": "hello", "comments": []map[string]any{{"_id": "c1", "content": "great post"}}})
		default:
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	a.login(t, "ana")

	if err := a.run(context.Background(), []string{"comment", "hello", "great", "post"}); err != nil {
		t.Fatalf("comment failed: %v", err)
	}
	if posted.Slug != "hello" || posted.Content != "great post" || posted.ParentID != "" {
		t.Errorf("Unexpected comment request %+v", posted)
	}
	if !strings.Contains(a.buf.String(), "1 comments on hello") {
		t.Errorf("Expected refreshed count, got %q", a.buf.String())
	}
}

func TestDeleteCommentCommand(t *testing.T) {
	var deleted model.CommentDeleteRequest
	a := newTestApp(t, "n\n", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]any{"slug": "hello", "comments": []map[string]any{{
				"_id": "c1", "content": "Question", "user": map[string]any{"nickname": "bo"},
				"replies": []map[string]any{{"_id": "c2", "content": "Answer", "user": map[string]any{"nickname": "ana"}}},
			}}})
		case http.MethodDelete:
			json.NewDecoder(r.Body).Decode(&deleted)
			writeJSON(w, map[string]any{"success": true})
		}
	})
	a.login(t, "ana")
	ctx := context.Background()

	if err := a.run(ctx, []string{"delete-comment", "hello", "c1"}); !errors.Is(err, comment.ErrForbidden) {
		t.Errorf("Expected forbidden for someone else's comment, got %v", err)
	}

	// Declined at the prompt.
	if err := a.run(ctx, []string{"delete-comment", "hello", "c2"}); err != nil {
		t.Fatalf("delete-comment failed: %v", err)
	}
	if deleted.CommentID != "" {
		t.Fatal("Expected no delete request after declining")
	}

	if err := a.run(ctx, []string{"delete-comment", "-yes", "hello", "c2"}); err != nil {
		t.Fatalf("delete-comment -yes failed: %v", err)
	}
	if deleted.Slug != "hello" || deleted.CommentID != "c2" {
		t.Errorf("Unexpected delete request %+v", deleted)
	}
	if n, _ := a.recorder.Last(); n.Message != config.MsgCommentDeleted {
		t.Errorf("Expected delete notice, got %+v", n)
	}
}

const sourcePost = `---
title: Hello world
categories:
  - notes
tags:
  - go
---
Intro text

### Details

More.
`

func TestPublishCommand(t *testing.T) {
	var req model.PostRequest
	a := newTestApp(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/posts" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, map[string]any{"success": true, "status": "pending", "slug": "hello-world"})
	})
	a.login(t, "ana")
	path := writeFile(t, "hello.md", sourcePost)

	if err := a.run(context.Background(), []string{"publish", path}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if req.Title != "Hello world" || req.Category != "notes" || len(req.Tags) != 1 {
		t.Errorf("Unexpected request %+v", req)
	}
	if !strings.Contains(req.Content, "### Details") || req.Excerpt != "Intro text" {
		t.Errorf("Unexpected content %q / excerpt %q", req.Content, req.Excerpt)
	}
	if !strings.Contains(a.buf.String(), "hello-world pending") {
		t.Errorf("Expected slug and status, got %q", a.buf.String())
	}
	if n, _ := a.recorder.Last(); n.Message != config.MsgPendingReview {
		t.Errorf("Expected pending review notice, got %+v", n)
	}
}

func TestPublishRejectsNonMarkdown(t *testing.T) {
	a := newTestApp(t, "", nil)
	a.login(t, "ana")
	if err := a.run(context.Background(), []string{"publish", "notes.txt"}); err == nil {
		t.Error("Expected error for non-markdown file")
	}
}

func TestReviewCommand(t *testing.T) {
	var review model.ReviewRequest
	a := newTestApp(t, "", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&review)
		writeJSON(w, map[string]any{"success": true})
	})
	a.login(t, "admin")
	ctx := context.Background()

	if err := a.run(ctx, []string{"review", "p1", "maybe"}); err == nil {
		t.Error("Expected error for unknown action")
	}
	if err := a.run(ctx, []string{"review", "p1", "Approve"}); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if review.PostID != "p1" || review.Action != model.ReviewApprove {
		t.Errorf("Unexpected review request %+v", review)
	}
}

func TestDraftLifecycle(t *testing.T) {
	a := newTestApp(t, "", nil)
	ctx := context.Background()
	path := writeFile(t, "hello.md", sourcePost)

	if err := a.run(ctx, []string{"draft", "save", path}); err != nil {
		t.Fatalf("draft save failed: %v", err)
	}
	drafts, err := a.drafts.List()
	if err != nil || len(drafts) != 1 {
		t.Fatalf("Expected one draft, got %v (%v)", drafts, err)
	}
	id := string(drafts[0].ID)
	if drafts[0].Title != "Hello world" || !strings.Contains(drafts[0].Content, "### Details") {
		t.Errorf("Unexpected draft %+v", drafts[0])
	}

	a.buf.Reset()
	if err := a.run(ctx, []string{"draft", "list"}); err != nil {
		t.Fatalf("draft list failed: %v", err)
	}
	if !strings.Contains(a.buf.String(), id) {
		t.Errorf("Expected draft id in list, got %q", a.buf.String())
	}

	a.buf.Reset()
	if err := a.run(ctx, []string{"draft", "show", id}); err != nil {
		t.Fatalf("draft show failed: %v", err)
	}
	if !strings.Contains(a.buf.String(), "Intro text") {
		t.Errorf("Expected draft content, got %q", a.buf.String())
	}

	if err := a.run(ctx, []string{"draft", "rm", id}); err != nil {
		t.Fatalf("draft rm failed: %v", err)
	}
	if err := a.run(ctx, []string{"draft", "show", id}); !errors.Is(err, repository.ErrDraftNotFound) {
		t.Errorf("Expected ErrDraftNotFound, got %v", err)
	}
}

func TestDraftPublishRemovesDraft(t *testing.T) {
	a := newTestApp(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/posts/hello" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, map[string]any{"success": true, "status": "published", "slug": "hello"})
	})
	a.login(t, "ana")
	ctx := context.Background()
	path := writeFile(t, "hello.md", sourcePost)

	if err := a.run(ctx, []string{"draft", "save", "-id", "d1", "-slug", "hello", path}); err != nil {
		t.Fatalf("draft save failed: %v", err)
	}
	if err := a.run(ctx, []string{"draft", "publish", "d1"}); err != nil {
		t.Fatalf("draft publish failed: %v", err)
	}
	if _, err := a.drafts.Get("d1"); !errors.Is(err, repository.ErrDraftNotFound) {
		t.Errorf("Expected draft to be removed, got %v", err)
	}
}
