package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/debemdeboas/inkwell/internal/api"
	"github.com/debemdeboas/inkwell/internal/comment"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/notify"
	"github.com/debemdeboas/inkwell/internal/render"
	"github.com/debemdeboas/inkwell/internal/theme"
)

const dateFormat = "2006-01-02"

// Account

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	creds := model.Credentials{Email: *email, Password: *password}
	var err error
	if creds.Email == "" {
		if creds.Email, err = a.prompter.Ask("Email"); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = a.prompter.Ask("Password"); err != nil {
			return err
		}
	}

	res, err := a.client.Login(ctx, creds)
	if err != nil {
		return err
	}
	if err := a.store.Login(res.User, res.Token); err != nil {
		return err
	}
	a.notifier.Notify(fmt.Sprintf(config.MsgLoggedIn, res.User.Nickname), notify.Success, "")
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	if err := a.store.Logout(); err != nil {
		return err
	}
	a.notifier.Notify(config.MsgLoggedOut, notify.Info, "")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	u := a.store.User()
	if !a.store.IsAuthenticated() || u == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	role := "author"
	if u.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(a.out, "%s <%s> %s\n", a.style.title.Render(u.Nickname), u.Email, a.style.muted.Render(role))
	if exp, ok := a.store.Expiry(); ok {
		state := "expires"
		if time.Now().After(exp) {
			state = "expired"
		}
		fmt.Fprintln(a.out, a.style.muted.Render(fmt.Sprintf("Session %s %s", state, exp.Local().Format("2006-01-02 15:04"))))
	}
	return nil
}

func cmdRegister(ctx context.Context, a *app, _ []string) error {
	email, err := a.prompter.Ask("Email")
	if err != nil {
		return err
	}
	check, err := a.client.CheckEmail(ctx, email)
	if err != nil {
		return err
	}
	if check.UserExists {
		return errors.Errorf("an account for %s already exists", email)
	}
	if _, err := a.client.SendVerificationCode(ctx, email, model.VerifyRegister); err != nil {
		return err
	}

	reg := model.Registration{Email: email}
	for _, f := range []struct {
		label  string
		target *string
	}{
		{"Verification code", &reg.Code},
		{"Nickname", &reg.Nickname},
		{"Password", &reg.Password},
	} {
		if *f.target, err = a.prompter.Ask(f.label); err != nil {
			return err
		}
	}

	res, err := a.client.Register(ctx, reg)
	if err != nil {
		return err
	}
	if err := a.store.Login(res.User, res.Token); err != nil {
		return err
	}
	a.notifier.Notify(fmt.Sprintf(config.MsgLoggedIn, res.User.Nickname), notify.Success, "")
	return nil
}

func cmdResetPassword(ctx context.Context, a *app, _ []string) error {
	email, err := a.prompter.Ask("Email")
	if err != nil {
		return err
	}
	check, err := a.client.CheckEmail(ctx, email)
	if err != nil {
		return err
	}
	if !check.UserExists {
		return errors.Errorf("no account for %s", email)
	}
	if _, err := a.client.SendVerificationCode(ctx, email, model.VerifyResetPassword); err != nil {
		return err
	}

	reset := model.PasswordReset{Email: email}
	if reset.Code, err = a.prompter.Ask("Verification code"); err != nil {
		return err
	}
	if reset.NewPassword, err = a.prompter.Ask("New password"); err != nil {
		return err
	}
	res, err := a.client.ResetPassword(ctx, reset)
	if err != nil {
		return err
	}
	a.notifier.Notify(res.Message, notify.Success, "")
	return nil
}

func cmdNickname(ctx context.Context, a *app, args []string) error {
	nickname := joinArgs(args)
	if nickname == "" {
		return errors.New("missing nickname")
	}
	if _, err := a.client.UpdateNickname(ctx, nickname); err != nil {
		return err
	}
	u, err := a.store.UpdateUser(model.UserPatch{Nickname: &nickname})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Nickname set to %s\n", u.Nickname)
	return nil
}

func cmdAvatar(ctx context.Context, a *app, args []string) error {
	if err := need(args, 1, "avatar file"); err != nil {
		return err
	}
	res, err := a.client.UploadAvatar(ctx, document.FileFromPath(args[0]))
	if err != nil {
		return err
	}
	avatar := res.User.Avatar
	if _, err := a.store.UpdateUser(model.UserPatch{Avatar: &avatar}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Avatar set to %s\n", avatar)
	return nil
}

// Reading

func (a *app) printPosts(posts []model.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(a.out, a.style.muted.Render("No posts"))
		return
	}
	for _, p := range posts {
		line := fmt.Sprintf("%s %s", a.style.accent.Render(p.Slug), a.style.title.Render(p.Title))
		meta := fmt.Sprintf("%s | %s | %d views", p.Category, p.CreateTime.Format(dateFormat), p.Views)
		if p.Topped {
			meta = "pinned | " + meta
		}
		if !p.IsPublished() {
			meta += " | " + p.Status
		}
		fmt.Fprintf(a.out, "%s  %s\n", line, a.style.muted.Render(meta))
	}
}

func cmdPosts(ctx context.Context, a *app, args []string) error {
	fs := a.flags("posts")
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", a.cfg.Posts.PageSize, "Posts per page")
	category := fs.String("category", "", "Only posts in this category")
	tag := fs.String("tag", "", "Only posts with this tag")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.client.GetPosts(ctx, api.PageQuery{Page: *page, Limit: *limit, Category: *category, Tag: *tag})
	if err != nil {
		return err
	}
	a.printPosts(append(res.PinnedPosts, res.Posts...))
	if res.TotalPages > 1 {
		fmt.Fprintln(a.out, a.style.muted.Render(fmt.Sprintf("Page %d of %d", max(*page, 1), res.TotalPages)))
	}
	return nil
}

func cmdRecent(ctx context.Context, a *app, _ []string) error {
	posts, err := a.client.GetRecentPosts(ctx)
	if err != nil {
		return err
	}
	a.printPosts(posts)
	return nil
}

func cmdMine(ctx context.Context, a *app, _ []string) error {
	posts, err := a.client.GetMyPosts(ctx)
	if err != nil {
		return err
	}
	a.printPosts(posts)
	return nil
}

func cmdArchive(ctx context.Context, a *app, _ []string) error {
	posts, err := a.client.GetArchive(ctx)
	if err != nil {
		return err
	}
	a.printPosts(posts)
	return nil
}

func cmdSearch(ctx context.Context, a *app, args []string) error {
	posts, err := a.client.SearchPosts(ctx, joinArgs(args))
	if err != nil {
		return err
	}
	a.printPosts(posts)
	return nil
}

func cmdTags(ctx context.Context, a *app, args []string) error {
	fs := a.flags("tags")
	withPosts := fs.Bool("posts", false, "List tagged posts instead of the cloud")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *withPosts {
		posts, err := a.client.GetTags(ctx)
		if err != nil {
			return err
		}
		a.printPosts(posts)
		return nil
	}

	tags, err := a.client.GetTagCloud(ctx)
	if err != nil {
		return err
	}
	for _, t := range tags {
		fmt.Fprintf(a.out, "%s %s\n", a.style.accent.Render("#"+t.Name), a.style.muted.Render(fmt.Sprint(t.Count)))
	}
	return nil
}

func cmdCategories(ctx context.Context, a *app, _ []string) error {
	cats, err := a.client.GetCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		fmt.Fprintf(a.out, "%s %s\n", a.style.title.Render(name), a.style.muted.Render(fmt.Sprintf("%d posts", len(c.Posts))))
	}
	return nil
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	fs := a.flags("show")
	htmlOut := fs.String("html", "", "Write the rendered post to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need(fs.Args(), 1, "post id"); err != nil {
		return err
	}

	post, err := a.client.GetPost(ctx, fs.Arg(0), true)
	if err != nil {
		return err
	}

	syntaxTheme := theme.Resolve(a.cfg.Render.SyntaxTheme)
	r := render.RenderDocumentCached(post.Content, post.ContentImages, post.Downloads, render.Options{
		SyntaxTheme:   syntaxTheme,
		Authenticated: a.store.IsAuthenticated(),
	})
	if *htmlOut != "" {
		if err := os.WriteFile(*htmlOut, theme.Page(post.Title, r.HTML, syntaxTheme), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", *htmlOut)
		}
		fmt.Fprintf(a.out, "Wrote %s\n", *htmlOut)
		return nil
	}

	fmt.Fprintln(a.out, a.style.title.Render(post.Title))
	meta := fmt.Sprintf("by %s | %s | %s | %d views", post.Author.Nickname, post.Category, post.CreateTime.Format(dateFormat), post.Views)
	if post.IsEdited() {
		meta += " | edited " + post.UpdateTime.Format(dateFormat)
	}
	fmt.Fprintln(a.out, a.style.muted.Render(meta))
	if len(post.Tags) > 0 {
		fmt.Fprintln(a.out, a.style.accent.Render("#"+strings.Join(post.Tags, " #")))
	}
	if post.Excerpt != "" {
		fmt.Fprintf(a.out, "\n%s\n", post.Excerpt)
	}

	if len(r.TOC) > 0 {
		fmt.Fprintf(a.out, "\n%s\n", a.style.title.Render("Contents"))
		for _, h := range r.TOC {
			fmt.Fprintf(a.out, "  %s %s\n", h.Text, a.style.muted.Render("#"+h.ID))
		}
	}

	for _, dl := range post.Downloads {
		link := render.DownloadLocked
		if a.store.IsAuthenticated() {
			link = dl.URL
		}
		fmt.Fprintf(a.out, "\n%s %s", a.style.title.Render(dl.Description), a.style.muted.Render(link))
	}
	if len(post.Downloads) > 0 {
		fmt.Fprintln(a.out)
	}

	a.printComments(post.Comments)
	return nil
}

func (a *app) printComments(comments []model.Comment) {
	fmt.Fprintf(a.out, "\n%s\n", a.style.title.Render(fmt.Sprintf("Comments (%d)", comment.CountAll(comments))))
	user := a.store.User()
	comment.Walk(comments, func(c *model.Comment, depth int) bool {
		indent := strings.Repeat("  ", depth+1)
		head := fmt.Sprintf("%s %s", c.User.Nickname, c.Date.Format(dateFormat))
		if comment.CanDelete(c, user) {
			head += " [" + c.ID + "]"
		}
		fmt.Fprintf(a.out, "%s%s\n%s%s\n", indent, a.style.muted.Render(head), indent, c.Content)
		return true
	})
}

func cmdSource(ctx context.Context, a *app, args []string) error {
	fs := a.flags("source")
	htmlOut := fs.String("html", "", "Write the highlighted source to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need(fs.Args(), 1, "post id"); err != nil {
		return err
	}

	post, err := a.client.GetPost(ctx, fs.Arg(0), false)
	if err != nil {
		return err
	}
	blocks := document.Parse(post.Content, post.ContentImages, post.Downloads, nil)

	if *htmlOut != "" {
		syntaxTheme := theme.Resolve(a.cfg.Render.SyntaxTheme)
		src, err := render.HighlightDocument(blocks, syntaxTheme)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*htmlOut, theme.Page(post.Title, []byte(src), syntaxTheme), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", *htmlOut)
		}
		fmt.Fprintf(a.out, "Wrote %s\n", filepath.Clean(*htmlOut))
		return nil
	}

	for i, b := range blocks {
		fmt.Fprintf(a.out, "%3d %-8s %s\n", i, b.Kind(), describeBlock(b))
	}
	for _, ref := range document.Missing(post.Content, post.ContentImages, post.Downloads) {
		a.notifier.Notify(fmt.Sprintf("%s %s has no entry in the post's resources", ref.Kind, ref.ResourceID), notify.Warning, "")
	}
	return nil
}

func describeBlock(b document.Block) string {
	switch v := b.(type) {
	case *document.TextBlock:
		first, _, _ := strings.Cut(v.Content, "\n")
		return first
	case *document.HeadingBlock:
		return v.Content
	case *document.ImageBlock:
		s := v.ResourceID + " " + v.PreviewURL
		if v.Invalid {
			s += " (missing)"
		}
		return s
	case *document.DownloadBlock:
		s := v.Description + " " + v.URL
		if v.Invalid {
			s = v.ResourceID + " (missing)"
		}
		return s
	}
	return ""
}
