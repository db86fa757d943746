// Package theme handles syntax highlighting themes and CSS generation for exported HTML.
package theme

import (
	"html/template"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/config"
)

func GetSyntaxThemes() []string {
	styleNames := styles.Names()
	slices.Sort(styleNames)
	return styleNames
}

// Resolve returns name when chroma knows it and the default theme otherwise.
func Resolve(name string) string {
	if _, ok := styles.Registry[name]; ok {
		return name
	}
	return config.DefaultSyntaxTheme
}

func GetFormatter() *html.Formatter {
	formatter := html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)
	return formatter
}

func GenerateSyntaxCSS(theme string) template.CSS {
	if css, ok := cache.GetSyntaxCSS(theme); ok {
		return css
	}

	var buf strings.Builder
	formatter := GetFormatter()
	style := styles.Get(theme)

	bg := style.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Calculate the color of highlighted text given the background color
		// for when the Chroma theme doesn't supply a default
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	formatter.WriteCSS(&buf, style)
	css := template.CSS(buf.String())
	cache.SetSyntaxCSS(theme, css)
	return css
}

// Page wraps rendered post HTML into a standalone document with the syntax
// stylesheet for theme inlined.
func Page(title string, body []byte, theme string) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(template.HTMLEscapeString(title))
	b.WriteString("</title>\n<style>\n")
	b.WriteString(string(GenerateSyntaxCSS(Resolve(theme))))
	b.WriteString("</style>\n</head>\n<body>\n<article>\n")
	b.Write(body)
	b.WriteString("</article>\n</body>\n</html>\n")
	return []byte(b.String())
}
