package repository

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type DraftID string

func NewDraftID() DraftID {
	return DraftID(uuid.New().String())
}

// Draft is an unpublished editor state: the serialized document with its
// resource tables and the post metadata. EditSlug is set when the draft
// edits an existing post.
type Draft struct {
	ID            DraftID
	Title         string
	Category      string
	Tags          []string
	Cover         model.CoverImage
	EditSlug      string
	Content       string
	ContentImages []model.ContentImage
	Downloads     []model.Download

	ContentHash string
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

type draftBody struct {
	Category      string               `json:"category,omitempty"`
	Tags          []string             `json:"tags,omitempty"`
	Cover         model.CoverImage     `json:"cover"`
	Content       string               `json:"content"`
	ContentImages []model.ContentImage `json:"contentImages,omitempty"`
	Downloads     []model.Download     `json:"downloads,omitempty"`
}

func (d *Draft) body() ([]byte, error) {
	raw, err := json.Marshal(draftBody{
		Category:      d.Category,
		Tags:          d.Tags,
		Cover:         d.Cover,
		Content:       d.Content,
		ContentImages: d.ContentImages,
		Downloads:     d.Downloads,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode draft")
	}
	return raw, nil
}

func (d *Draft) setBody(raw []byte) error {
	var b draftBody
	if err := json.Unmarshal(raw, &b); err != nil {
		return errors.Wrapf(err, "decode draft %s", d.ID)
	}
	d.Category = b.Category
	d.Tags = b.Tags
	d.Cover = b.Cover
	d.Content = b.Content
	d.ContentImages = b.ContentImages
	d.Downloads = b.Downloads
	return nil
}

// prepare fills the id, timestamps and content hash before a save.
func (d *Draft) prepare(now time.Time) ([]byte, error) {
	if d.ID == "" {
		d.ID = NewDraftID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.ModifiedAt = now

	raw, err := d.body()
	if err != nil {
		return nil, err
	}
	d.ContentHash = util.ContentHash(raw)
	return raw, nil
}

func (d *Draft) clone() *Draft {
	c := *d
	c.Tags = slices.Clone(d.Tags)
	c.ContentImages = slices.Clone(d.ContentImages)
	c.Downloads = slices.Clone(d.Downloads)
	return &c
}

func sortDrafts(drafts []Draft) {
	slices.SortStableFunc(drafts, func(a, b Draft) int {
		return -a.ModifiedAt.Compare(b.ModifiedAt)
	})
}
