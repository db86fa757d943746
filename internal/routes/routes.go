// Package routes defines the REST API paths the client talks to.
package routes

import (
	"net/url"
	"strings"
)

// Reads
const (
	Posts       = "/posts"
	Post        = "/posts/{id}"
	RecentPosts = "/posts/recent"
	Categories  = "/categories"
	Archive     = "/archive"
	Tags        = "/tags"
	TagCloud    = "/tags/cloud"
	Search      = "/search"
	MyPosts     = "/user/posts"
	Pending     = "/admin/pending"
)

// Writes
const (
	PostBySlug  = "/posts/{slug}"
	Comment     = "/posts/comment"
	UploadImage = "/posts/upload-image"
	Review      = "/admin/review"
)

// Auth
const (
	AuthLogin            = "/auth/login"
	AuthRegister         = "/auth/register"
	AuthSendVerification = "/auth/send-verification"
	AuthForgotPassword   = "/auth/forgot-password"
	AuthResetPassword    = "/auth/reset-password"
	UserNickname         = "/user/nickname"
	UserAvatar           = "/user/avatar"
)

// Expand fills {name} segments of path with escaped values given as name, value pairs.
func Expand(path string, pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		path = strings.ReplaceAll(path, "{"+pairs[i]+"}", url.PathEscape(pairs[i+1]))
	}
	return path
}

// Join appends path and the encoded query to base.
func Join(base, path string, query url.Values) string {
	u := strings.TrimRight(base, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
