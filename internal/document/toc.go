package document

import (
	"strconv"
	"strings"
	"unicode"
)

const HeadingLevel = 3

// Heading is one table of contents entry.
type Heading struct {
	ID    string
	Level int
	Text  string
}

// Slugify lowercases text and keeps letters and digits, joining words with dashes.
func Slugify(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			dash = true
		}
	}
	return b.String()
}

// Slugger hands out unique anchors for a single document.
type Slugger struct {
	seen map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

func (s *Slugger) Slug(text string) string {
	base := Slugify(text)
	if base == "" {
		base = "section"
	}
	n := s.seen[base]
	s.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// Headings builds the table of contents of blocks.
func Headings(blocks []Block) []Heading {
	slugs := NewSlugger()
	var out []Heading
	for _, b := range blocks {
		h, ok := b.(*HeadingBlock)
		if !ok || trimmed(h.Content) == "" {
			continue
		}
		out = append(out, Heading{ID: slugs.Slug(h.Content), Level: HeadingLevel, Text: trimmed(h.Content)})
	}
	return out
}
