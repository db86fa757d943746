package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/inkwell/internal/document"
)

// HighlightMarkdown renders markdown source, not its output, with chroma.
func HighlightMarkdown(markdown string, theme string) (string, error) {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}

	formatter := html.New(
		html.WithClasses(true),
		html.WithLineNumbers(false),
		html.PreventSurroundingPre(true),
	)

	var buf bytes.Buffer
	iterator, err := lexer.Tokenise(nil, markdown)
	if err != nil {
		return markdown, err
	}

	if err := formatter.Format(&buf, style, iterator); err != nil {
		return markdown, err
	}

	result := `<div class="markdown-source">` + buf.String() + `</div>`
	return strings.ReplaceAll(result, "\n", "<br>\n"), nil
}

// HighlightDocument shows the serialized form of blocks, placeholders included.
func HighlightDocument(blocks []document.Block, theme string) (string, error) {
	return HighlightMarkdown(document.Serialize(blocks), theme)
}
