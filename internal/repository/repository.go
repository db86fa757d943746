// Package repository keeps what the client stores outside the remote API:
// local drafts, markdown sources on disk and uploaded assets in S3.
package repository

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

var ErrDraftNotFound = errors.New("draft not found")

type DraftRepository interface {
	// Save inserts or replaces d. A draft without an id gets one.
	Save(d *Draft) error
	Get(id DraftID) (*Draft, error)
	Delete(id DraftID) error
	// List returns every draft, most recently modified first.
	List() ([]Draft, error)
}

type PostSource interface {
	Posts() ([]SourcePost, error)
	ReadPost(name string) (*SourcePost, error)
}
