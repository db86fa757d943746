package config

import "regexp"

const (
	MarkdownRenderer = "mmark"

	// Length of the excerpt derived from the first text block on publish.
	ExcerptRunes = 150
)

var (
	RegexCallout = regexp.MustCompile(`//\s*<<(\d+)>>`)
)
