package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func decodePost(t *testing.T, raw string) Post {
	t.Helper()
	var p Post
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Failed to decode post: %v", err)
	}
	p.Normalize()
	return p
}

func TestPostNormalize(t *testing.T) {
	t.Run("Empty post gets defaults", func(t *testing.T) {
		p := decodePost(t, `{"_id": "abc"}`)

		if p.ID != "abc" {
			t.Errorf("Expected id to fall back to _id, got %q", p.ID)
		}
		if p.Slug != "abc" {
			t.Errorf("Expected slug to follow id, got %q", p.Slug)
		}
		if p.Title != DefaultTitle {
			t.Errorf("Expected title %q, got %q", DefaultTitle, p.Title)
		}
		if p.Status != StatusPending {
			t.Errorf("Expected pending status, got %q", p.Status)
		}
		if p.Category != DefaultCategory {
			t.Errorf("Expected category %q, got %q", DefaultCategory, p.Category)
		}
		if p.Author.Nickname != DefaultAuthorNickname {
			t.Errorf("Expected author %q, got %q", DefaultAuthorNickname, p.Author.Nickname)
		}
		if p.Tags == nil || p.ContentImages == nil || p.Downloads == nil || p.Comments == nil {
			t.Error("Expected empty slices instead of nil")
		}
		if !p.UpdateTime.Equal(p.CreateTime.Time) {
			t.Error("Expected update time to default to create time")
		}
	})

	t.Run("Slug wins over _id", func(t *testing.T) {
		p := decodePost(t, `{"_id": "abc", "slug": "hello-world"}`)
		if p.ID != "hello-world" {
			t.Errorf("Expected id from slug, got %q", p.ID)
		}
	})

	t.Run("Views tolerate strings", func(t *testing.T) {
		tests := []struct {
			raw  string
			want Count
		}{
			{`{"views": 12}`, 12},
			{`{"views": "34"}`, 34},
			{`{"views": "lots"}`, 0},
			{`{"views": null}`, 0},
		}
		for _, tt := range tests {
			if p := decodePost(t, tt.raw); p.Views != tt.want {
				t.Errorf("%s: expected %d views, got %d", tt.raw, tt.want, p.Views)
			}
		}
	})

	t.Run("Excerpt is cleaned", func(t *testing.T) {
		p := decodePost(t, `{"excerpt": "<p>Hello</p>  [image:img1]\n\n world [download:dl_1]"}`)
		if p.Excerpt != "Hello world" {
			t.Errorf("Expected cleaned excerpt, got %q", p.Excerpt)
		}
	})

	t.Run("Comments are normalized recursively", func(t *testing.T) {
		p := decodePost(t, `{"comments": [{"_id": "c1", "replies": [{"_id": "c2", "user": {}}]}]}`)
		reply := p.Comments[0].Replies[0]
		if reply.User.Nickname != DefaultCommentNickname {
			t.Errorf("Expected anonymous nickname, got %q", reply.User.Nickname)
		}
		if reply.Replies == nil {
			t.Error("Expected empty replies slice")
		}
	})

	t.Run("Cover without src is dropped", func(t *testing.T) {
		p := decodePost(t, `{"coverImage": {"src": ""}}`)
		if p.CoverImage != nil {
			t.Errorf("Expected nil cover, got %+v", p.CoverImage)
		}
	})
}

func TestPostIsEdited(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		update time.Time
		want   bool
	}{
		{"same instant", base, false},
		{"within ten seconds", base.Add(9 * time.Second), false},
		{"after ten seconds", base.Add(11 * time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Post{CreateTime: Timestamp{base}, UpdateTime: Timestamp{tt.update}}
			if got := p.IsEdited(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPostCanEdit(t *testing.T) {
	p := Post{Author: Author{ID: "u1", Nickname: "ada"}}

	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"nil user", nil, false},
		{"anonymous", &User{}, false},
		{"author", &User{ID: "u1"}, true},
		{"someone else", &User{ID: "u2"}, false},
		{"same nickname other id", &User{ID: "u2", Nickname: "ada"}, false},
		{"admin", &User{ID: "u3", IsAdmin: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CanEdit(tt.user); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTimestamp(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"2024-03-01T10:00:00.000Z"`), &ts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ts.Year() != 2024 || ts.Month() != time.March {
		t.Errorf("Unexpected time %v", ts.Time)
	}

	if err := json.Unmarshal([]byte(`"not a date"`), &ts); err != nil {
		t.Fatalf("Expected garbage to be tolerated, got %v", err)
	}
	if !ts.IsZero() {
		t.Error("Expected zero time for garbage input")
	}
}

func TestPostRequest(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name string
			req  PostRequest
			want error
		}{
			{"valid", PostRequest{Title: "T", Content: "C"}, nil},
			{"blank title", PostRequest{Title: "  ", Content: "C"}, ErrEmptyTitle},
			{"blank content", PostRequest{Title: "T", Content: "\n"}, ErrEmptyContent},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := tt.req.Validate(); !errors.Is(err, tt.want) {
					t.Errorf("Expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Normalize", func(t *testing.T) {
		r := PostRequest{Title: "Hello", CoverImage: CoverImage{Src: "/c.png"}}
		r.Normalize()
		if r.Category != DefaultCategory {
			t.Errorf("Expected default category, got %q", r.Category)
		}
		if r.CoverImage.Alt != "Hello" {
			t.Errorf("Expected cover alt to default to title, got %q", r.CoverImage.Alt)
		}

		body, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		var decoded map[string]any
		json.Unmarshal(body, &decoded)
		if _, ok := decoded["contentImages"].([]any); !ok {
			t.Error("Expected contentImages to be encoded as an array")
		}
	})
}

func TestUser(t *testing.T) {
	t.Run("Normalize and IsAuthenticated", func(t *testing.T) {
		var u User
		u.Normalize()
		if u.Avatar != DefaultAvatar {
			t.Errorf("Expected default avatar, got %q", u.Avatar)
		}
		if u.IsAuthenticated() {
			t.Error("Expected user without id to be unauthenticated")
		}
		u.ID = "u1"
		if !u.IsAuthenticated() {
			t.Error("Expected user with id to be authenticated")
		}
	})

	t.Run("Patch", func(t *testing.T) {
		nick := "new-nick"
		u := UserPatch{Nickname: &nick}.Apply(User{ID: "u1", Nickname: "old", Email: "a@b.c"})
		if u.Nickname != nick || u.Email != "a@b.c" || u.ID != "u1" {
			t.Errorf("Unexpected patched user %+v", u)
		}
	})
}

func TestParseReviewAction(t *testing.T) {
	if a, err := ParseReviewAction("APPROVE"); err != nil || a != ReviewApprove {
		t.Errorf("Expected approve, got %q, %v", a, err)
	}
	if _, err := ParseReviewAction("maybe"); err == nil {
		t.Error("Expected error for unknown action")
	}
}

func TestPublishResultPending(t *testing.T) {
	var r PublishResult
	if err := json.Unmarshal([]byte(`{"success": true, "status": "pending"}`), &r); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !r.Pending() || !r.Success {
		t.Errorf("Unexpected result %+v", r)
	}
}
