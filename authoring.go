package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/debemdeboas/inkwell/internal/comment"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/notify"
	"github.com/debemdeboas/inkwell/internal/repository"
)

// Comments

func (a *app) thread(slug string, comments []model.Comment) *comment.Thread {
	return comment.NewThread(slug, comments, a.client, a.store, a.notifier, a.client.Comments(slug))
}

func cmdComment(ctx context.Context, a *app, args []string) error {
	if err := need(args, 2, "slug and comment text"); err != nil {
		return err
	}
	t := a.thread(args[0], nil)
	if err := t.PostTopLevel(ctx, joinArgs(args[1:])); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d comments on %s\n", t.Count(), t.Slug())
	return nil
}

func cmdReply(ctx context.Context, a *app, args []string) error {
	if err := need(args, 3, "slug, parent comment id and reply text"); err != nil {
		return err
	}
	t := a.thread(args[0], nil)
	if err := t.PostReply(ctx, args[1], joinArgs(args[2:])); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d comments on %s\n", t.Count(), t.Slug())
	return nil
}

func cmdDeleteComment(ctx context.Context, a *app, args []string) error {
	fs := a.flags("delete-comment")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need(fs.Args(), 2, "slug and comment id"); err != nil {
		return err
	}
	slug, id := fs.Arg(0), fs.Arg(1)

	post, err := a.client.GetPost(ctx, slug, false)
	if err != nil {
		return err
	}
	c, ok := comment.Find(post.Comments, id)
	if !ok {
		return errors.Errorf("no comment %s on %s", id, slug)
	}

	t := a.thread(slug, post.Comments)
	if err := t.RequestDelete(*c); err != nil {
		return err
	}
	if !*yes {
		n := comment.CountAll(c.Replies)
		question := config.MsgDeleteConfirmed
		if n > 0 {
			question = fmt.Sprintf("%s (%d replies)", question, n)
		}
		ok, err := a.prompter.Confirm(question)
		if err != nil {
			return err
		}
		if !ok {
			t.CancelDelete()
			return nil
		}
	}
	return t.ConfirmDelete(ctx)
}

// Posts

// readSource loads a markdown file the way the post directory importer does.
func readSource(path string) (*repository.SourcePost, error) {
	if !strings.HasSuffix(path, ".md") {
		return nil, errors.Errorf("%s is not a markdown file", path)
	}
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return repository.NewFSPostSource(dir).ReadPost(strings.TrimSuffix(file, ".md"))
}

func applySource(s *editor.Session, p *repository.SourcePost) {
	s.Title = p.Request.Title
	s.SetCategory(p.Request.Category)
	for _, tag := range p.Request.Tags {
		s.AddTag(tag)
	}
	s.Cover = p.Cover
	s.SetBlocks(p.Blocks)
}

func cmdPublish(ctx context.Context, a *app, args []string) error {
	fs := a.flags("publish")
	slug := fs.String("slug", "", "Update the post with this slug instead of creating one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need(fs.Args(), 1, "markdown file"); err != nil {
		return err
	}

	src, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	s := a.newEditor()
	applySource(s, src)
	s.EditSlug = *slug

	res, err := s.Publish(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", a.style.accent.Render(s.EditSlug), a.style.muted.Render(res.Status))
	return nil
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	fs := a.flags("delete")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need(fs.Args(), 1, "slug"); err != nil {
		return err
	}
	slug := fs.Arg(0)
	if !*yes {
		ok, err := a.prompter.Confirm(fmt.Sprintf("Delete %s permanently?", slug))
		if err != nil || !ok {
			return err
		}
	}
	if err := a.client.DeletePost(ctx, slug); err != nil {
		return err
	}
	a.notifier.Notify(fmt.Sprintf("Deleted %s", slug), notify.Success, "")
	return nil
}

func cmdPending(ctx context.Context, a *app, _ []string) error {
	posts, err := a.client.GetPendingPosts(ctx)
	if err != nil {
		return err
	}
	for _, p := range posts {
		fmt.Fprintf(a.out, "%s %s %s\n", a.style.accent.Render(string(p.ID)), a.style.title.Render(p.Title),
			a.style.muted.Render("by "+p.Author.Nickname))
	}
	if len(posts) == 0 {
		fmt.Fprintln(a.out, a.style.muted.Render("Nothing to review"))
	}
	return nil
}

func cmdReview(ctx context.Context, a *app, args []string) error {
	if err := need(args, 2, "post id and action"); err != nil {
		return err
	}
	action, err := model.ParseReviewAction(args[1])
	if err != nil {
		return err
	}
	if err := a.client.ReviewPost(ctx, args[0], action); err != nil {
		return err
	}
	a.notifier.Notify(fmt.Sprintf(config.MsgReviewDone, args[0], action), notify.Success, "")
	return nil
}

// Drafts

func cmdDraft(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.Wrap(errUsage, "draft needs a subcommand")
	}
	switch sub, rest := args[0], args[1:]; sub {
	case "save":
		return draftSave(a, rest)
	case "pull":
		return draftPull(ctx, a, rest)
	case "list":
		return draftList(a)
	case "show":
		return draftShow(a, rest)
	case "publish":
		return draftPublish(ctx, a, rest)
	case "rm":
		return draftRemove(a, rest)
	default:
		return errors.Wrapf(errUsage, "unknown draft subcommand %q", sub)
	}
}

func (a *app) saveDraft(s *editor.Session, id repository.DraftID) error {
	if id == "" {
		id = repository.NewDraftID()
	}
	d := s.Snapshot(id)
	if err := a.drafts.Save(d); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", a.style.accent.Render(string(d.ID)), d.Title)
	return nil
}

// draftSave stores a markdown file as a draft. Local images are not uploaded
// for drafts and are dropped from the saved copy.
func draftSave(a *app, args []string) error {
	fs := a.flags("draft save")
	id := fs.String("id", "", "Overwrite this draft")
	slug := fs.String("slug", "", "Mark the draft as an edit of this post")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need(fs.Args(), 1, "markdown file"); err != nil {
		return err
	}

	src, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	s := a.newEditor()
	applySource(s, src)
	s.EditSlug = *slug
	if s.Cover.File != nil {
		a.notifier.Notify("Local cover image is not kept in drafts", notify.Warning, "")
	}
	return a.saveDraft(s, repository.DraftID(*id))
}

// draftPull copies a published post into a new draft for editing.
func draftPull(ctx context.Context, a *app, args []string) error {
	if err := need(args, 1, "slug"); err != nil {
		return err
	}
	s := a.newEditor()
	if err := s.Load(ctx, args[0]); err != nil {
		return err
	}
	return a.saveDraft(s, "")
}

func draftList(a *app) error {
	drafts, err := a.drafts.List()
	if err != nil {
		return err
	}
	for _, d := range drafts {
		meta := d.ModifiedAt.Local().Format("2006-01-02 15:04")
		if d.EditSlug != "" {
			meta += " | edits " + d.EditSlug
		}
		fmt.Fprintf(a.out, "%s %s %s\n", a.style.accent.Render(string(d.ID)), a.style.title.Render(d.Title), a.style.muted.Render(meta))
	}
	if len(drafts) == 0 {
		fmt.Fprintln(a.out, a.style.muted.Render("No drafts"))
	}
	return nil
}

func draftShow(a *app, args []string) error {
	if err := need(args, 1, "draft id"); err != nil {
		return err
	}
	d, err := a.drafts.Get(repository.DraftID(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.style.title.Render(d.Title))
	fmt.Fprintln(a.out, a.style.muted.Render(fmt.Sprintf("%s | %s", d.Category, strings.Join(d.Tags, ", "))))
	fmt.Fprintf(a.out, "\n%s\n", d.Content)
	return nil
}

// draftPublish publishes a stored draft and removes it once the server accepts it.
func draftPublish(ctx context.Context, a *app, args []string) error {
	if err := need(args, 1, "draft id"); err != nil {
		return err
	}
	d, err := a.drafts.Get(repository.DraftID(args[0]))
	if err != nil {
		return err
	}
	s := a.newEditor()
	s.Restore(d)
	res, err := s.Publish(ctx)
	if err != nil {
		return err
	}
	if err := a.drafts.Delete(d.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", a.style.accent.Render(s.EditSlug), a.style.muted.Render(res.Status))
	return nil
}

func draftRemove(a *app, args []string) error {
	if err := need(args, 1, "draft id"); err != nil {
		return err
	}
	return a.drafts.Delete(repository.DraftID(args[0]))
}
