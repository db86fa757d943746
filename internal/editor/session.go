// Package editor holds the state of a post being written: metadata, cover
// and the block list, plus loading, publishing and draft snapshots.
package editor

import (
	"slices"
	"strings"

	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/notify"
	"github.com/debemdeboas/inkwell/internal/publish"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

var (
	ErrUnknownBlock = errors.New("no such block")
	ErrUnknownKind  = errors.New("unknown block kind")
	ErrSubmitting   = errors.New("post already being published")
)

type Direction int

const (
	Up Direction = iota
	Down
)

// Session is one editor. It is not safe for concurrent use.
type Session struct {
	Title    string
	Category string
	Tags     []string
	Cover    publish.Cover
	// EditSlug is the slug of the post being edited, empty for a new post.
	EditSlug string

	blocks     []document.Block
	ids        *document.IDSource
	submitting bool

	posts    Posts
	uploader publish.Uploader
	auth     Authenticator
	notifier notify.Notifier
}

func NewSession(posts Posts, uploader publish.Uploader, auth Authenticator, notifier notify.Notifier) *Session {
	if notifier == nil {
		notifier = notify.Discard
	}
	s := &Session{
		ids:      document.NewIDSource(),
		posts:    posts,
		uploader: uploader,
		auth:     auth,
		notifier: notifier,
	}
	s.Reset()
	return s
}

// Reset clears the session back to one empty text block.
func (s *Session) Reset() {
	s.Title, s.Category, s.EditSlug = "", "", ""
	s.Tags = []string{}
	s.Cover = publish.Cover{}
	s.blocks = []document.Block{document.NewText(s.ids.Next(), "")}
}

// Blocks returns the block list. The slice is a copy; the blocks are shared.
func (s *Session) Blocks() []document.Block {
	return slices.Clone(s.blocks)
}

// SetBlocks replaces the block list with copies of blocks renumbered for this
// session. An empty list becomes one empty text block.
func (s *Session) SetBlocks(blocks []document.Block) {
	if len(blocks) == 0 {
		s.blocks = []document.Block{document.NewText(s.ids.Next(), "")}
		return
	}
	s.blocks = document.Renumber(blocks, s.ids)
}

func (s *Session) index(id document.BlockID) int {
	return slices.IndexFunc(s.blocks, func(b document.Block) bool { return b.ID() == id })
}

// Insert adds an empty block of kind right after position index. An index
// below zero inserts at the top.
func (s *Session) Insert(index int, kind document.Kind) (document.Block, error) {
	if !kind.Valid() {
		return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
	b := document.New(kind, s.ids.Next())
	at := min(max(index+1, 0), len(s.blocks))
	s.blocks = slices.Insert(s.blocks, at, b)
	return b, nil
}

// Move swaps the block at index with its neighbour. Moving past either end
// does nothing.
func (s *Session) Move(index int, dir Direction) {
	target := index - 1
	if dir == Down {
		target = index + 1
	}
	if index < 0 || index >= len(s.blocks) || target < 0 || target >= len(s.blocks) {
		return
	}
	s.blocks[index], s.blocks[target] = s.blocks[target], s.blocks[index]
}

// Update runs fn on the block with id. Editing a block clears its invalid
// flag, except for a download whose URL is left blank.
func (s *Session) Update(id document.BlockID, fn func(document.Block)) error {
	i := s.index(id)
	if i < 0 {
		return ErrUnknownBlock
	}
	fn(s.blocks[i])

	switch v := s.blocks[i].(type) {
	case *document.ImageBlock:
		v.Invalid = false
	case *document.DownloadBlock:
		if strings.TrimSpace(v.URL) != "" {
			v.Invalid = false
		}
	}
	return nil
}

// Remove deletes the block with id. Removing the last block leaves one empty
// text block in its place.
func (s *Session) Remove(id document.BlockID) {
	s.blocks = slices.DeleteFunc(s.blocks, func(b document.Block) bool { return b.ID() == id })
	if len(s.blocks) == 0 {
		s.blocks = []document.Block{document.NewText(s.ids.Next(), "")}
	}
}

// AttachImage sets a local file on the image block with id; it is uploaded
// on publish.
func (s *Session) AttachImage(id document.BlockID, f *document.LocalFile) error {
	i := s.index(id)
	if i < 0 {
		return ErrUnknownBlock
	}
	img, ok := s.blocks[i].(*document.ImageBlock)
	if !ok {
		return errors.Errorf("block %d is a %s block", id, s.blocks[i].Kind())
	}
	img.File = f
	img.Invalid = false
	return nil
}

// AddTag appends a trimmed, non-empty tag once.
func (s *Session) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || slices.Contains(s.Tags, tag) {
		return false
	}
	s.Tags = append(s.Tags, tag)
	return true
}

func (s *Session) RemoveTag(tag string) {
	s.Tags = slices.DeleteFunc(s.Tags, func(t string) bool { return t == tag })
}

func (s *Session) SetCategory(category string) {
	if c := strings.TrimSpace(category); c != "" {
		s.Category = c
	}
}

func (s *Session) IsMetaDone() bool {
	return strings.TrimSpace(s.Title) != "" && s.Category != ""
}

func (s *Session) IsCoverDone() bool {
	return s.Cover.Done()
}

func (s *Session) IsContentDone() bool {
	return slices.ContainsFunc(s.blocks, document.HasContent)
}

func (s *Session) IsSubmitting() bool {
	return s.submitting
}
