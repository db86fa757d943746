package repository

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/publish"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/pkg/errors"
)

// Markdown image references with a relative target become image blocks that
// upload the file next to the post.
var localImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)

// SourcePost is a markdown file turned into what the editor publishes.
type SourcePost struct {
	Name     string
	Path     string
	Hash     string
	Modified time.Time

	Request model.PostRequest
	Blocks  []document.Block
	Cover   publish.Cover
}

// FSPostSource reads a directory of .md files with TOML (%%%) or YAML (---)
// front matter.
type FSPostSource struct {
	postsPath string
}

func NewFSPostSource(postsPath string) *FSPostSource {
	return &FSPostSource{postsPath: postsPath}
}

func (r *FSPostSource) Posts() ([]SourcePost, error) {
	entries, err := os.ReadDir(r.postsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", r.postsPath)
	}

	var posts []SourcePost
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		post, err := r.ReadPost(strings.TrimSuffix(entry.Name(), ".md"))
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	slices.SortStableFunc(posts, func(a, b SourcePost) int {
		return -a.Modified.Compare(b.Modified)
	})
	return posts, nil
}

func (r *FSPostSource) ReadPost(name string) (*SourcePost, error) {
	path := filepath.Join(r.postsPath, name+".md")
	mdContent, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	info, body, err := util.GetFrontMatter(mdContent)
	if errors.Is(err, util.ErrNoFrontMatter) {
		info, body = &util.FrontMatter{}, mdContent
	} else if err != nil {
		return nil, errors.Wrapf(err, "post %s", name)
	}
	if info.Title == "" {
		info.Title = name
	}

	post := &SourcePost{
		Name:     name,
		Path:     path,
		Hash:     util.ContentHash(mdContent),
		Modified: fileInfo.ModTime(),
		Blocks:   sourceBlocks(string(body), r.postsPath),
	}
	post.Request = model.PostRequest{
		Title:    info.Title,
		Category: info.Category(),
		Tags:     info.Tags,
		Excerpt:  util.Excerpt(body),
	}
	if len(info.Photos) > 0 {
		post.Cover = sourceCover(info.Photos[0], r.postsPath, info.Title)
	}
	post.Request.Normalize()
	return post, nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "/")
}

func sourceCover(src, dir, alt string) publish.Cover {
	if isRemote(src) {
		return publish.Cover{Src: src, Alt: alt}
	}
	return publish.Cover{File: document.FileFromPath(filepath.Join(dir, src)), Alt: alt}
}

// sourceBlocks parses body into blocks and splits local image references out
// of text blocks.
func sourceBlocks(body, dir string) []document.Block {
	body = strings.ReplaceAll(body, util.MoreMarker, "")
	ids := document.NewIDSource()
	parsed := document.Parse(body, nil, nil, ids)

	blocks := make([]document.Block, 0, len(parsed))
	for _, b := range parsed {
		text, ok := b.(*document.TextBlock)
		if !ok {
			blocks = append(blocks, b)
			continue
		}

		rest := text.Content
		for {
			loc := localImage.FindStringSubmatchIndex(rest)
			if loc == nil {
				break
			}
			alt, src := rest[loc[2]:loc[3]], rest[loc[4]:loc[5]]
			if isRemote(src) {
				// Remote images stay inline markdown.
				blocks = appendText(blocks, ids, rest[:loc[1]])
				rest = rest[loc[1]:]
				continue
			}
			blocks = appendText(blocks, ids, rest[:loc[0]])
			img := document.New(document.KindImage, ids.Next()).(*document.ImageBlock)
			img.File = document.FileFromPath(filepath.Join(dir, src))
			img.Alt = alt
			blocks = append(blocks, img)
			rest = rest[loc[1]:]
		}
		blocks = appendText(blocks, ids, rest)
	}

	if len(blocks) == 0 {
		blocks = append(blocks, document.NewText(ids.Next(), ""))
	}
	return blocks
}

// appendText adds s to the trailing text block, or starts one.
func appendText(blocks []document.Block, ids *document.IDSource, s string) []document.Block {
	if strings.TrimSpace(s) == "" {
		return blocks
	}
	if n := len(blocks); n > 0 {
		if last, ok := blocks[n-1].(*document.TextBlock); ok {
			last.Content += s
			return blocks
		}
	}
	return append(blocks, document.NewText(ids.Next(), strings.TrimSpace(s)))
}

// Watch polls the directory and calls fn for every post that is new or whose
// content changed since the previous poll, until ctx is done.
func (r *FSPostSource) Watch(ctx context.Context, interval time.Duration, fn func(SourcePost)) error {
	seen := make(map[string]string)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		posts, err := r.Posts()
		if err != nil {
			repoLogger.Error().Err(err).Msg("Error reloading posts")
		} else {
			for _, post := range posts {
				if seen[post.Name] == post.Hash {
					continue
				}
				repoLogger.Info().
					Str("post", post.Name).
					Str("title", post.Request.Title).
					Msg("Post changed")
				seen[post.Name] = post.Hash
				fn(post)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
