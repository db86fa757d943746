// Package util provides content hashing and front matter parsing for local post sources.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MoreMarker ends the excerpt of a post body.
const MoreMarker = "<!--more-->"

var (
	ErrNoFrontMatter  = errors.New("invalid front matter format")
	tomlDelimiter     = []byte("%%%")
	yamlDelimiter     = []byte("---")
	dateLayouts       = []string{time.RFC3339, "2006-01-02 15:04:05Z07:00", "2006-01-02 15:04:05", "2006-01-02"}
	excerptImage      = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	excerptLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	excerptHeading    = regexp.MustCompile(`#{1,6}\s+`)
	excerptCode       = regexp.MustCompile("`{1,3}[^`]*`{1,3}")
	excerptWhitespace = regexp.MustCompile(`\s+`)
)

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// Date accepts both TOML datetimes and the date strings YAML front matter carries.
type Date struct {
	time.Time
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(err, "parse date %q", s)
}

func (d *Date) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case time.Time:
		d.Time = t
		return nil
	case string:
		parsed, err := parseDate(t)
		d.Time = parsed
		return err
	}
	return errors.Errorf("unsupported date value %T", v)
}

func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	parsed, err := parseDate(n.Value)
	d.Time = parsed
	return err
}

type FrontMatter struct {
	Title      string   `yaml:"title" toml:"title"`
	Date       Date     `yaml:"date" toml:"date"`
	Tags       []string `yaml:"tags" toml:"tags"`
	Categories []string `yaml:"categories" toml:"categories"`
	Photos     []string `yaml:"photos" toml:"photos"`
	Topped     bool     `yaml:"topped" toml:"topped"`

	// Consumed is the number of bytes of the input the front matter block took.
	Consumed int `yaml:"-" toml:"-"`
}

// Category is the first listed category, or "".
func (f *FrontMatter) Category() string {
	if len(f.Categories) == 0 {
		return ""
	}
	return f.Categories[0]
}

// GetFrontMatter decodes a leading %%% TOML or --- YAML block and returns it
// with the remaining body.
func GetFrontMatter(md []byte) (*FrontMatter, []byte, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	var delimiter []byte
	switch {
	case bytes.HasPrefix(md, tomlDelimiter):
		delimiter = tomlDelimiter
	case bytes.HasPrefix(md, yamlDelimiter):
		delimiter = yamlDelimiter
	default:
		return nil, nil, ErrNoFrontMatter
	}

	rest := md[len(delimiter):]
	second := bytes.Index(rest, append([]byte("\n"), delimiter...))
	if second == -1 {
		return nil, nil, ErrNoFrontMatter
	}

	block := rest[:second]
	end := len(delimiter) + second + 1 + len(delimiter)
	body := bytes.TrimLeft(md[end:], "\n \t\r")

	info := &FrontMatter{}
	var err error
	if bytes.Equal(delimiter, tomlDelimiter) {
		_, err = toml.Decode(string(block), info)
	} else {
		err = yaml.Unmarshal(block, info)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to decode front matter")
	}

	info.Consumed = end
	return info, body, nil
}

// Excerpt returns the plain text before the <!--more--> marker, or "" when
// the body has none.
func Excerpt(body []byte) string {
	head, _, found := strings.Cut(string(body), MoreMarker)
	if !found {
		return ""
	}
	head = excerptImage.ReplaceAllString(head, "")
	head = excerptLink.ReplaceAllString(head, "$1")
	head = excerptHeading.ReplaceAllString(head, "")
	head = excerptCode.ReplaceAllString(head, "")
	return strings.TrimSpace(excerptWhitespace.ReplaceAllString(head, " "))
}
