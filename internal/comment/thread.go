package comment

import (
	"context"
	"strings"
	"sync"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/fetch"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/notify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var commentLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	commentLogger = l
}

var (
	ErrEmptyContent    = errors.New("comment is empty")
	ErrNoPendingDelete = errors.New("no comment awaiting delete confirmation")
	ErrSubmitting      = errors.New("comment already being submitted")
	ErrForbidden       = errors.New("not allowed to delete this comment")
)

// TopLevel is the composer id of the post's own comment box.
const TopLevel = ""

type Poster interface {
	PostComment(ctx context.Context, req model.CommentRequest, token string) error
	DeleteComment(ctx context.Context, req model.CommentDeleteRequest, token string) error
}

type Session interface {
	Token() string
	IsAuthenticated() bool
	User() *model.User
}

// Refetcher loads the post's current comment tree.
type Refetcher func(ctx context.Context) ([]model.Comment, error)

type composer struct {
	open       bool
	draft      string
	submitting bool
}

// Thread drives the comment section of one post. Every mutation is sent to
// the server and followed by a refetch of the whole tree; the local tree is
// never patched.
type Thread struct {
	slug     string
	poster   Poster
	session  Session
	notifier notify.Notifier
	refetch  Refetcher

	mu            sync.Mutex
	comments      []model.Comment
	composers     map[string]*composer
	pendingDelete *model.Comment
}

func NewThread(slug string, comments []model.Comment, poster Poster, session Session, n notify.Notifier, refetch Refetcher) *Thread {
	if n == nil {
		n = notify.Discard
	}
	return &Thread{
		slug:      slug,
		poster:    poster,
		session:   session,
		notifier:  n,
		refetch:   refetch,
		comments:  comments,
		composers: make(map[string]*composer),
	}
}

func (t *Thread) Slug() string {
	return t.slug
}

// Comments returns the current tree. Callers must not modify it.
func (t *Thread) Comments() []model.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.comments
}

func (t *Thread) Count() int {
	return CountAll(t.Comments())
}

// Replace swaps in a freshly fetched tree.
func (t *Thread) Replace(comments []model.Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.comments = comments
}

func (t *Thread) composer(id string) *composer {
	c, ok := t.composers[id]
	if !ok {
		c = &composer{}
		t.composers[id] = c
	}
	return c
}

func (t *Thread) OpenComposer(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.composer(id).open = true
}

func (t *Thread) CloseComposer(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.composer(id).open = false
}

func (t *Thread) ToggleComposer(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.composer(id)
	c.open = !c.open
	return c.open
}

func (t *Thread) IsComposing(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == TopLevel {
		return true
	}
	c, ok := t.composers[id]
	return ok && c.open
}

func (t *Thread) SetDraft(id, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.composer(id).draft = text
}

func (t *Thread) Draft(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.composers[id]; ok {
		return c.draft
	}
	return ""
}

func (t *Thread) IsSubmitting(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.composers[id]
	return ok && c.submitting
}

// PostTopLevel sends a new comment on the post.
func (t *Thread) PostTopLevel(ctx context.Context, content string) error {
	return t.submit(ctx, TopLevel, content)
}

// PostReply sends a reply to parentID.
func (t *Thread) PostReply(ctx context.Context, parentID, content string) error {
	if parentID == TopLevel {
		return errors.New("reply needs a parent comment")
	}
	return t.submit(ctx, parentID, content)
}

// Submit sends the current draft of composer id.
func (t *Thread) Submit(ctx context.Context, id string) error {
	return t.submit(ctx, id, t.Draft(id))
}

func (t *Thread) submit(ctx context.Context, parentID, content string) error {
	if !t.session.IsAuthenticated() {
		t.notifier.Notify(config.MsgLoginRequired, notify.Warning, "")
		return fetch.ErrNotAuthenticated
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}

	t.mu.Lock()
	c := t.composer(parentID)
	if c.submitting {
		t.mu.Unlock()
		return ErrSubmitting
	}
	c.submitting = true
	t.mu.Unlock()

	req := model.CommentRequest{Slug: t.slug, Content: content, ParentID: parentID}
	err := t.poster.PostComment(ctx, req, t.session.Token())

	t.mu.Lock()
	c.submitting = false
	if err == nil {
		c.draft = ""
		if parentID != TopLevel {
			c.open = false
		}
	}
	t.mu.Unlock()

	failMsg, okMsg := config.MsgCommentFailed, config.MsgCommentPosted
	if parentID != TopLevel {
		failMsg, okMsg = config.MsgReplyFailed, config.MsgReplyPosted
	}
	if err != nil {
		commentLogger.Warn().Err(err).Str("slug", t.slug).Str("parent_id", parentID).Msg("Comment submission failed")
		t.notifier.Notify(messageOr(err, failMsg), notify.Error, "")
		return err
	}

	t.notifier.Notify(okMsg, notify.Success, "")
	t.Refresh(ctx)
	return nil
}

// RequestDelete opens the confirmation gate for c.
func (t *Thread) RequestDelete(c model.Comment) error {
	if !CanDelete(&c, t.session.User()) {
		return ErrForbidden
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pendingDelete = &c
	return nil
}

func (t *Thread) CancelDelete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pendingDelete = nil
}

// PendingDelete returns the comment awaiting confirmation, if any.
func (t *Thread) PendingDelete() (model.Comment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pendingDelete == nil {
		return model.Comment{}, false
	}
	return *t.pendingDelete, true
}

// ConfirmDelete closes the gate and deletes the pending comment.
func (t *Thread) ConfirmDelete(ctx context.Context) error {
	t.mu.Lock()
	pending := t.pendingDelete
	t.pendingDelete = nil
	t.mu.Unlock()

	if pending == nil || pending.ID == "" {
		return ErrNoPendingDelete
	}
	if !t.session.IsAuthenticated() {
		t.notifier.Notify(config.MsgLoginRequired, notify.Warning, "")
		return fetch.ErrNotAuthenticated
	}

	req := model.CommentDeleteRequest{Slug: t.slug, CommentID: pending.ID}
	if err := t.poster.DeleteComment(ctx, req, t.session.Token()); err != nil {
		commentLogger.Warn().Err(err).Str("slug", t.slug).Str("comment_id", pending.ID).Msg("Comment delete failed")
		t.notifier.Notify(messageOr(err, config.MsgDeleteFailed), notify.Error, "")
		return err
	}

	t.notifier.Notify(config.MsgCommentDeleted, notify.Success, "")
	t.Refresh(ctx)
	return nil
}

// Refresh refetches the tree and replaces the local copy. A failed refetch
// keeps the old tree.
func (t *Thread) Refresh(ctx context.Context) {
	if t.refetch == nil {
		return
	}
	comments, err := t.refetch(ctx)
	if err != nil {
		commentLogger.Warn().Err(err).Str("slug", t.slug).Msg("Comment refetch failed")
		t.notifier.Notify(err.Error(), notify.Warning, "")
		return
	}
	t.Replace(comments)
}

func messageOr(err error, fallback string) string {
	var re *fetch.RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}
