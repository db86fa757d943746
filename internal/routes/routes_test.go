package routes

import (
	"net/url"
	"testing"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		pairs []string
		want  string
	}{
		{"plain", Post, []string{"id", "hello-world"}, "/posts/hello-world"},
		{"escaped", PostBySlug, []string{"slug", "a b/c"}, "/posts/a%20b%2Fc"},
		{"no pairs", Archive, nil, "/archive"},
		{"odd pair ignored", Post, []string{"id"}, "/posts/{id}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.path, tt.pairs...); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if got := Join("http://localhost:3000/api/", Archive, nil); got != "http://localhost:3000/api/archive" {
		t.Errorf("Unexpected URL %q", got)
	}

	q := url.Values{}
	q.Set("q", "go & rust")
	if got := Join("http://x/api", Search, q); got != "http://x/api/search?q=go+%26+rust" {
		t.Errorf("Unexpected URL %q", got)
	}
}
