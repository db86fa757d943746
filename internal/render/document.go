package render

import (
	"bytes"
	"fmt"
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/util"
)

const (
	DownloadReady  = "Resource ready"
	DownloadAction = "Download"
	DownloadLocked = "Log in to download"
)

// textPolicy cleans the HTML produced from author markdown. Highlighted code
// keeps its classes so the syntax stylesheet still applies.
var textPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	return p
}()

type Options struct {
	SyntaxTheme string
	// Authenticated readers get download links; everyone else gets a notice.
	Authenticated bool
}

// Rendered is a post body as HTML plus the anchors its headings carry.
type Rendered struct {
	HTML []byte
	TOC  []document.Heading
}

// RenderDocument turns a stored document into HTML. Text runs go through the
// markdown renderer, headings get the same anchors as the table of contents
// and placeholders become figures and download cards. Placeholders with no
// matching resource render nothing.
func RenderDocument(doc string, images []model.ContentImage, downloads []model.Download, opts Options) Rendered {
	blocks := document.Parse(doc, images, downloads, nil)
	slugs := document.NewSlugger()

	var (
		buf  bytes.Buffer
		text bytes.Buffer
		toc  []document.Heading
	)
	flush := func() {
		if text.Len() == 0 {
			return
		}
		out, _ := RenderMarkdown(text.Bytes(), opts.SyntaxTheme)
		buf.Write(textPolicy.SanitizeBytes(out))
		text.Reset()
	}

	for _, b := range blocks {
		if t, ok := b.(*document.TextBlock); ok {
			if text.Len() > 0 {
				text.WriteString(document.Separator)
			}
			text.WriteString(t.Content)
			continue
		}
		flush()

		switch v := b.(type) {
		case *document.HeadingBlock:
			if v.Content == "" {
				continue
			}
			h := document.Heading{ID: slugs.Slug(v.Content), Level: document.HeadingLevel, Text: v.Content}
			toc = append(toc, h)
			fmt.Fprintf(&buf, "<h%d id=\"%s\">%s</h%d>\n", h.Level, h.ID, html.EscapeString(h.Text), h.Level)
		case *document.ImageBlock:
			if v.Invalid {
				continue
			}
			writeFigure(&buf, v)
		case *document.DownloadBlock:
			if v.Invalid {
				continue
			}
			writeDownload(&buf, v, opts.Authenticated)
		}
	}
	flush()

	return Rendered{HTML: buf.Bytes(), TOC: toc}
}

func writeFigure(buf *bytes.Buffer, img *document.ImageBlock) {
	fmt.Fprintf(buf, "<figure class=\"content-image\"><img src=\"%s\" alt=\"%s\" loading=\"lazy\">",
		html.EscapeString(img.PreviewURL), html.EscapeString(img.Alt))
	if img.Alt != "" {
		fmt.Fprintf(buf, "<figcaption>%s</figcaption>", html.EscapeString(img.Alt))
	}
	buf.WriteString("</figure>\n")
}

func writeDownload(buf *bytes.Buffer, dl *document.DownloadBlock, authenticated bool) {
	fmt.Fprintf(buf, "<div class=\"download-card\"><p class=\"download-description\">%s</p><p class=\"download-status\">%s</p>",
		html.EscapeString(dl.Description), DownloadReady)
	if authenticated {
		fmt.Fprintf(buf, "<a class=\"download-link\" href=\"%s\" target=\"_blank\" rel=\"noopener noreferrer\">%s</a>",
			html.EscapeString(dl.URL), DownloadAction)
	} else {
		fmt.Fprintf(buf, "<span class=\"download-locked\">%s</span>", DownloadLocked)
	}
	buf.WriteString("</div>\n")
}

// Mutex to protect the check-render-set operation in RenderDocumentCached
var renderCacheMutex sync.Mutex

// RenderDocumentCached memoizes RenderDocument by content, theme and whether
// download links are shown.
func RenderDocumentCached(doc string, images []model.ContentImage, downloads []model.Download, opts Options) Rendered {
	contentHash := documentHash(doc, images, downloads)

	if cached, found := cache.GetRenderedDocument(contentHash, opts.SyntaxTheme, opts.Authenticated); found {
		renderLogger.Debug().Str("contentHash", contentHash).Str("highlightTheme", opts.SyntaxTheme).Msg("Cache hit for rendered document")
		return Rendered{HTML: cached.HTML, TOC: cached.TOC.([]document.Heading)}
	}

	renderLogger.Debug().Str("contentHash", contentHash).Str("highlightTheme", opts.SyntaxTheme).Msg("Cache miss for rendered document")
	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := cache.GetRenderedDocument(contentHash, opts.SyntaxTheme, opts.Authenticated); found {
		return Rendered{HTML: cached.HTML, TOC: cached.TOC.([]document.Heading)}
	}

	r := RenderDocument(doc, images, downloads, opts)
	cache.SetRenderedDocument(contentHash, opts.SyntaxTheme, opts.Authenticated, r.HTML, r.TOC)
	return r
}

// documentHash covers the resource tables too: the same text renders
// differently once an image or download entry changes.
func documentHash(doc string, images []model.ContentImage, downloads []model.Download) string {
	var b bytes.Buffer
	b.WriteString(doc)
	for _, img := range images {
		fmt.Fprintf(&b, "\x00i%s\x00%s\x00%s", img.ID, img.Src, img.Alt)
	}
	for _, dl := range downloads {
		fmt.Fprintf(&b, "\x00d%s\x00%s\x00%s", dl.ID, dl.Description, dl.URL)
	}
	return util.ContentHash(b.Bytes())
}
