// Package document converts between an editor's ordered list of typed blocks
// and the serialized post body with inline resource placeholders.
package document

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

type Kind string

const (
	KindText     Kind = "text"
	KindHeading  Kind = "heading"
	KindImage    Kind = "image"
	KindDownload Kind = "download"
)

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindHeading, KindImage, KindDownload:
		return true
	}
	return false
}

// BlockID identifies a block within one editing session only.
type BlockID int64

// IDSource hands out session-unique block ids.
type IDSource struct {
	next atomic.Int64
}

func NewIDSource() *IDSource {
	s := &IDSource{}
	s.next.Store(time.Now().UnixMilli())
	return s
}

func (s *IDSource) Next() BlockID {
	return BlockID(s.next.Add(1))
}

type Block interface {
	ID() BlockID
	Kind() Kind
}

type blockID struct {
	id BlockID
}

func (b blockID) ID() BlockID { return b.id }

func (b *blockID) setID(id BlockID) { b.id = id }

// Renumber returns copies of blocks with fresh ids drawn from ids, for blocks
// that were built against another source.
func Renumber(blocks []Block, ids *IDSource) []Block {
	out := CloneAll(blocks)
	for _, b := range out {
		if r, ok := b.(interface{ setID(BlockID) }); ok {
			r.setID(ids.Next())
		}
	}
	return out
}

type TextBlock struct {
	blockID
	Content string
}

func (*TextBlock) Kind() Kind { return KindText }

type HeadingBlock struct {
	blockID
	Content string
}

func (*HeadingBlock) Kind() Kind { return KindHeading }

// ImageBlock references an entry of the content image table.
// File is set while a local image waits to be uploaded.
type ImageBlock struct {
	blockID
	ResourceID string
	PreviewURL string
	Alt        string
	File       *LocalFile
	Invalid    bool
}

func (*ImageBlock) Kind() Kind { return KindImage }

// Pending reports whether the block still holds a file that has not been uploaded.
func (b *ImageBlock) Pending() bool {
	return b.File != nil
}

type DownloadBlock struct {
	blockID
	ResourceID  string
	Description string
	URL         string
	Invalid     bool
}

func (*DownloadBlock) Kind() Kind { return KindDownload }

// New returns an empty block of kind k, or nil for an unknown kind.
func New(k Kind, id BlockID) Block {
	base := blockID{id: id}
	switch k {
	case KindText:
		return &TextBlock{blockID: base}
	case KindHeading:
		return &HeadingBlock{blockID: base}
	case KindImage:
		return &ImageBlock{blockID: base}
	case KindDownload:
		return &DownloadBlock{blockID: base}
	}
	return nil
}

func NewText(id BlockID, content string) *TextBlock {
	return &TextBlock{blockID: blockID{id: id}, Content: content}
}

func NewHeading(id BlockID, content string) *HeadingBlock {
	return &HeadingBlock{blockID: blockID{id: id}, Content: content}
}

// Clone returns a shallow copy of b with the same id.
func Clone(b Block) Block {
	switch v := b.(type) {
	case *TextBlock:
		c := *v
		return &c
	case *HeadingBlock:
		c := *v
		return &c
	case *ImageBlock:
		c := *v
		return &c
	case *DownloadBlock:
		c := *v
		return &c
	}
	return b
}

// CloneAll copies every block of blocks.
func CloneAll(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = Clone(b)
	}
	return out
}

// HasContent reports whether b carries something worth publishing.
func HasContent(b Block) bool {
	switch v := b.(type) {
	case *TextBlock:
		return trimmed(v.Content) != ""
	case *HeadingBlock:
		return trimmed(v.Content) != ""
	case *ImageBlock:
		return v.PreviewURL != "" || v.File != nil
	case *DownloadBlock:
		return trimmed(v.URL) != ""
	}
	return false
}

// LocalFile is a file chosen for upload but not yet sent.
type LocalFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

func FileFromPath(path string) *LocalFile {
	return &LocalFile{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// FileFromBytes wraps in-memory content, mostly for tests and piped input.
func FileFromBytes(name string, data []byte) *LocalFile {
	return &LocalFile{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}
