package config

// User-facing notification texts.
const (
	// Session
	MsgSessionExpired = "Session expired, please log in again"
	MsgLoginRequired  = "Log in to join the discussion"
	MsgLoggedIn       = "Welcome back, %s"
	MsgLoggedOut      = "Logged out"

	// Comments
	MsgCommentPosted   = "Comment posted"
	MsgReplyPosted     = "Reply posted"
	MsgCommentDeleted  = "Comment permanently deleted"
	MsgCommentFailed   = "Failed to post comment"
	MsgReplyFailed     = "Failed to post reply"
	MsgDeleteFailed    = "Failed to delete comment"
	MsgDeleteConfirmed = "This will permanently remove the comment and all of its replies."

	// Publishing
	MsgPublished     = "Post published"
	MsgPendingReview = "Post submitted for review: an administrator needs to approve it"
	MsgReviewDone    = "Post %s: %s"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"
)
