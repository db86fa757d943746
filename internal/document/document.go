package document

import (
	"regexp"
	"strings"

	"github.com/debemdeboas/inkwell/internal/model"
)

const (
	HeadingPrefix = "### "
	Separator     = "\n\n"
)

// One pattern, alternatives in priority order: heading line, image placeholder, download placeholder.
var segmentPattern = regexp.MustCompile(`(?m)(^### [^\n]*)|\[image:([^\]\n]*)\]|\[download:([^\]\n]*)\]`)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func ImagePlaceholder(id string) string {
	return "[image:" + id + "]"
}

func DownloadPlaceholder(id string) string {
	return "[download:" + id + "]"
}

// Serialize renders blocks as a document. Every fragment is kept, empty ones included.
// Callers resolve resource ids first: an image or download without one is
// written as an empty placeholder, which parses back as an invalid block.
func Serialize(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch v := b.(type) {
		case *HeadingBlock:
			parts = append(parts, HeadingPrefix+v.Content)
		case *ImageBlock:
			parts = append(parts, ImagePlaceholder(v.ResourceID))
		case *DownloadBlock:
			parts = append(parts, DownloadPlaceholder(v.ResourceID))
		case *TextBlock:
			parts = append(parts, v.Content)
		}
	}
	return strings.Join(parts, Separator)
}

// Parse rebuilds blocks from a document and its resource tables. References
// missing from the tables produce blocks flagged Invalid. The result always
// holds at least one block.
func Parse(doc string, images []model.ContentImage, downloads []model.Download, ids *IDSource) []Block {
	if ids == nil {
		ids = NewIDSource()
	}

	imageByID := make(map[string]model.ContentImage, len(images))
	for _, img := range images {
		imageByID[img.ID] = img
	}
	downloadByID := make(map[string]model.Download, len(downloads))
	for _, dl := range downloads {
		downloadByID[dl.ID] = dl
	}

	var blocks []Block
	addText := func(s string) {
		if t := trimmed(s); t != "" {
			blocks = append(blocks, NewText(ids.Next(), t))
		}
	}

	last := 0
	for _, m := range segmentPattern.FindAllStringSubmatchIndex(doc, -1) {
		addText(doc[last:m[0]])
		last = m[1]

		switch {
		case m[2] >= 0:
			content := strings.TrimPrefix(doc[m[2]:m[3]], HeadingPrefix)
			blocks = append(blocks, NewHeading(ids.Next(), trimmed(content)))
		case m[4] >= 0:
			rid := doc[m[4]:m[5]]
			img, ok := imageByID[rid]
			blocks = append(blocks, &ImageBlock{
				blockID:    blockID{id: ids.Next()},
				ResourceID: rid,
				PreviewURL: img.Src,
				Alt:        img.Alt,
				Invalid:    !ok,
			})
		case m[6] >= 0:
			rid := doc[m[6]:m[7]]
			dl, ok := downloadByID[rid]
			blocks = append(blocks, &DownloadBlock{
				blockID:     blockID{id: ids.Next()},
				ResourceID:  rid,
				Description: dl.Description,
				URL:         dl.URL,
				Invalid:     !ok,
			})
		}
	}
	addText(doc[last:])

	if len(blocks) == 0 {
		return []Block{NewText(ids.Next(), "")}
	}
	return blocks
}

// Reference is a resource placeholder found in a document.
type Reference struct {
	Kind       Kind
	ResourceID string
}

// Placeholders lists the resources referenced by doc in document order.
func Placeholders(doc string) []Reference {
	var refs []Reference
	for _, m := range segmentPattern.FindAllStringSubmatch(doc, -1) {
		switch {
		case strings.HasPrefix(m[0], "[image:"):
			refs = append(refs, Reference{Kind: KindImage, ResourceID: m[2]})
		case strings.HasPrefix(m[0], "[download:"):
			refs = append(refs, Reference{Kind: KindDownload, ResourceID: m[3]})
		}
	}
	return refs
}

// Missing returns the references of doc that have no entry in the tables.
func Missing(doc string, images []model.ContentImage, downloads []model.Download) []Reference {
	known := make(map[Reference]bool, len(images)+len(downloads))
	for _, img := range images {
		known[Reference{KindImage, img.ID}] = true
	}
	for _, dl := range downloads {
		known[Reference{KindDownload, dl.ID}] = true
	}

	var missing []Reference
	for _, ref := range Placeholders(doc) {
		if !known[ref] {
			missing = append(missing, ref)
		}
	}
	return missing
}

func StripPlaceholders(s string) string {
	return model.StripPlaceholders(s)
}

// Excerpt returns the first text block's content cut to n runes.
func Excerpt(blocks []Block, n int) string {
	for _, b := range blocks {
		if t, ok := b.(*TextBlock); ok {
			r := []rune(t.Content)
			if len(r) > n {
				r = r[:n]
			}
			return string(r)
		}
	}
	return ""
}

// Canonical returns the shape blocks take after a serialize/parse round trip:
// empty text dropped, adjacent text merged, text and headings trimmed.
func Canonical(blocks []Block) []Block {
	var out []Block
	for _, b := range blocks {
		switch v := b.(type) {
		case *TextBlock:
			content := trimmed(v.Content)
			if content == "" {
				continue
			}
			if n := len(out); n > 0 {
				if prev, ok := out[n-1].(*TextBlock); ok {
					prev.Content += Separator + content
					continue
				}
			}
			out = append(out, NewText(v.id, content))
		case *HeadingBlock:
			out = append(out, NewHeading(v.id, trimmed(v.Content)))
		default:
			out = append(out, Clone(b))
		}
	}
	return out
}

// Equivalent compares two block lists by kind, order, content and resource
// linkage. Session ids and pending files are ignored.
func Equivalent(a, b []Block) bool {
	ca, cb := Canonical(a), Canonical(b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !sameBlock(ca[i], cb[i]) {
			return false
		}
	}
	return true
}

func sameBlock(a, b Block) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *TextBlock:
		return x.Content == b.(*TextBlock).Content
	case *HeadingBlock:
		return x.Content == b.(*HeadingBlock).Content
	case *ImageBlock:
		y := b.(*ImageBlock)
		return x.ResourceID == y.ResourceID && x.PreviewURL == y.PreviewURL && x.Invalid == y.Invalid
	case *DownloadBlock:
		y := b.(*DownloadBlock)
		return x.ResourceID == y.ResourceID && x.Description == y.Description && x.URL == y.URL && x.Invalid == y.Invalid
	}
	return false
}
