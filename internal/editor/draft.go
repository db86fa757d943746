package editor

import (
	"slices"
	"strings"

	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/publish"
	"github.com/debemdeboas/inkwell/internal/repository"
)

// Snapshot captures the session as a draft. Images still waiting for upload
// have nothing to point at yet and are left out; downloads get their ids here
// so the draft keeps them stable.
func (s *Session) Snapshot(id repository.DraftID) *repository.Draft {
	d := &repository.Draft{
		ID:            id,
		Title:         s.Title,
		Category:      s.Category,
		Tags:          slices.Clone(s.Tags),
		Cover:         model.CoverImage{Src: s.Cover.Src, Alt: s.Cover.Alt},
		EditSlug:      s.EditSlug,
		ContentImages: []model.ContentImage{},
		Downloads:     []model.Download{},
	}

	kept := make([]document.Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		switch v := b.(type) {
		case *document.ImageBlock:
			if v.Pending() || v.ResourceID == "" {
				editorLogger.Debug().Int64("block", int64(v.ID())).Msg("Skipping image without resource in draft")
				continue
			}
			if v.PreviewURL != "" {
				d.ContentImages = append(d.ContentImages, model.ContentImage{ID: v.ResourceID, Src: v.PreviewURL, Alt: v.Alt})
			}
		case *document.DownloadBlock:
			if strings.TrimSpace(v.URL) != "" {
				if v.ResourceID == "" {
					v.ResourceID = publish.NewDownloadID()
				}
				d.Downloads = append(d.Downloads, model.Download{ID: v.ResourceID, Description: v.Description, URL: v.URL})
			}
		}
		kept = append(kept, b)
	}
	d.Content = document.Serialize(kept)
	return d
}

// Restore replaces the session with the contents of d.
func (s *Session) Restore(d *repository.Draft) {
	s.Title = d.Title
	s.Category = d.Category
	s.Tags = slices.Clone(d.Tags)
	if s.Tags == nil {
		s.Tags = []string{}
	}
	s.Cover = publish.Cover{Src: d.Cover.Src, Alt: d.Cover.Alt}
	s.EditSlug = d.EditSlug
	s.blocks = document.Parse(d.Content, d.ContentImages, d.Downloads, s.ids)
}
