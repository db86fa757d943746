// Package publish uploads pending local resources and assembles the document
// and resource tables sent with a post.
package publish

import (
	"context"
	"strings"

	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var publishLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	publishLogger = l
}

// MaxConcurrentUploads bounds the uploads of a single publish.
const MaxConcurrentUploads = 4

const downloadIDPrefix = "dl_"

type Uploader interface {
	Upload(ctx context.Context, f *document.LocalFile) (model.UploadResult, error)
}

type UploaderFunc func(ctx context.Context, f *document.LocalFile) (model.UploadResult, error)

func (fn UploaderFunc) Upload(ctx context.Context, f *document.LocalFile) (model.UploadResult, error) {
	return fn(ctx, f)
}

func NewDownloadID() string {
	return downloadIDPrefix + uuid.NewString()
}

type Resolved struct {
	Blocks        []document.Block
	Document      string
	ContentImages []model.ContentImage
	Downloads     []model.Download
}

// Resolve uploads every image block holding a pending file, then builds the
// serialized document and complete resource tables in block order. Image
// blocks with no resource and download blocks with no URL are left out. The
// input blocks are not modified. Any upload failure fails the whole call.
func Resolve(ctx context.Context, blocks []document.Block, up Uploader, newID func() string) (Resolved, error) {
	if newID == nil {
		newID = NewDownloadID
	}
	work := document.CloneAll(blocks)

	var pending []*document.ImageBlock
	for _, b := range work {
		if img, ok := b.(*document.ImageBlock); ok && img.Pending() {
			pending = append(pending, img)
		}
	}
	if len(pending) > 0 && up == nil {
		return Resolved{}, errors.New("no uploader configured for pending images")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentUploads)
	for _, img := range pending {
		g.Go(func() error {
			res, err := up.Upload(gctx, img.File)
			if err != nil {
				return errors.Wrapf(err, "upload %s", img.File.Name)
			}
			if res.ID == "" {
				return errors.Errorf("upload %s: server returned no id", img.File.Name)
			}
			publishLogger.Debug().Str("file", img.File.Name).Str("id", res.ID).Msg("Image uploaded")
			img.ResourceID = res.ID
			img.PreviewURL = res.URL
			img.File = nil
			img.Invalid = false
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Resolved{}, err
	}

	out := Resolved{
		Blocks:        make([]document.Block, 0, len(work)),
		ContentImages: []model.ContentImage{},
		Downloads:     []model.Download{},
	}
	seenImage := map[string]bool{}
	seenDownload := map[string]bool{}

	for _, b := range work {
		switch v := b.(type) {
		case *document.ImageBlock:
			if v.ResourceID == "" {
				continue
			}
			if v.PreviewURL != "" && !seenImage[v.ResourceID] {
				seenImage[v.ResourceID] = true
				out.ContentImages = append(out.ContentImages, model.ContentImage{ID: v.ResourceID, Src: v.PreviewURL, Alt: v.Alt})
			}
		case *document.DownloadBlock:
			if strings.TrimSpace(v.URL) == "" {
				continue
			}
			if v.ResourceID == "" {
				v.ResourceID = newID()
			}
			v.Invalid = false
			if !seenDownload[v.ResourceID] {
				seenDownload[v.ResourceID] = true
				out.Downloads = append(out.Downloads, model.Download{ID: v.ResourceID, Description: v.Description, URL: v.URL})
			}
		}
		out.Blocks = append(out.Blocks, b)
	}

	out.Document = document.Serialize(out.Blocks)
	return out, nil
}

// Cover is the cover image as the editor holds it.
type Cover struct {
	File *document.LocalFile
	Src  string
	Alt  string
}

// Done reports whether a cover has been chosen.
func (c Cover) Done() bool {
	return c.File != nil || c.Src != ""
}

// ResolveCover uploads a pending cover file and returns the cover to send.
func ResolveCover(ctx context.Context, c Cover, up Uploader) (model.CoverImage, error) {
	if c.File == nil {
		return model.CoverImage{Src: c.Src, Alt: c.Alt}, nil
	}
	if up == nil {
		return model.CoverImage{}, errors.New("no uploader configured for cover image")
	}
	res, err := up.Upload(ctx, c.File)
	if err != nil {
		return model.CoverImage{}, errors.Wrapf(err, "upload cover %s", c.File.Name)
	}
	return model.CoverImage{Src: res.URL, Alt: c.Alt}, nil
}
