// Package render provides markdown rendering and syntax highlighting functionality.
package render

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/theme"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
	"github.com/rs/zerolog"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	style := styles.Get(highlightTheme)
	formatter := theme.GetFormatter()
	err = formatter.Format(&buf, style, iterator)
	if err != nil {
		return code
	}

	res := html.UnescapeString(buf.String())
	res = config.RegexCallout.ReplaceAllString(res, "<span class=\"callout\">$1</span>")
	return res
}

var (
	rendererMu sync.RWMutex
	engine     = config.MarkdownRenderer
)

// SetRenderer picks the markdown engine: "mmark" or "classic".
func SetRenderer(name string) {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	engine = name
}

func currentRenderer() string {
	rendererMu.RLock()
	defer rendererMu.RUnlock()
	return engine
}

func RenderMarkdown(md []byte, highlightTheme string) ([]byte, any) {
	switch currentRenderer() {
	case "mmark":
		return RenderMarkdownMmark(md, highlightTheme)
	default:
		return RenderMarkdownClassic(md, highlightTheme), nil
	}
}

// codeHook renders fenced code through chroma. It reports false for every
// other node so the caller's own hook can run.
func codeHook(w io.Writer, node ast.Node, entering bool, highlightTheme string) bool {
	code, ok := node.(*ast.CodeBlock)
	if !ok || !entering {
		return false
	}
	var lang string
	if info := code.Info; info != nil {
		lang = string(info)
	}
	fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(code.Literal), lang, highlightTheme))
	return true
}

var commentMarkers = [][]byte{[]byte("//"), []byte("#")}

func RenderMarkdownClassic(md []byte, highlightTheme string) []byte {
	opts := md_html.RendererOptions{
		Flags:    md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		Comments: commentMarkers,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if codeHook(w, node, entering, highlightTheme) {
				return ast.GoToNext, true
			}
			if callout, ok := node.(*ast.Callout); ok && entering {
				fmt.Fprintf(w, "<span class=\"callout\">%s</span>", callout.ID)
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists | parser.MathJax |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.Attributes | parser.NonBlockingSpace,
	).Parse(markdown.NormalizeNewlines(md))
	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func init() {
	mparser.Extensions |= parser.NoIntraEmphasis
}

// RenderMarkdownMmark renders md with the mmark extensions and returns the
// title block it found, or a default one.
func RenderMarkdownMmark(md []byte, highlightTheme string) ([]byte, *mast.TitleData) {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions)
	init := mparser.NewInitial("")
	var info *mast.TitleData

	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		ReadIncludeFn: init.ReadInclude,
		Flags:         parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	if info == nil {
		info = &mast.TitleData{Title: "Untitled"}
	}
	if info.Language == "" {
		info.Language = "en"
	}
	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New(info.Language),
	}

	opts := md_html.RendererOptions{
		Comments: commentMarkers,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if codeHook(w, node, entering, highlightTheme) {
				return ast.GoToNext, true
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts)), info
}
