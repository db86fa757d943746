package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/api"
	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/comment"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/fetch"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/notify"
	"github.com/debemdeboas/inkwell/internal/publish"
	"github.com/debemdeboas/inkwell/internal/render"
	"github.com/debemdeboas/inkwell/internal/repository"
)

var errUsage = errors.New("usage")

// app is everything a command needs. main builds it from config; tests build
// it by hand against an httptest server.
type app struct {
	cfg      *config.Config
	store    *auth.Store
	client   *api.Client
	uploader publish.Uploader
	drafts   repository.DraftRepository
	notifier notify.Notifier
	prompter *notify.Prompter
	out      io.Writer
	style    styles
}

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("245")),
		accent: r.NewStyle().Foreground(lipgloss.Color("212")),
	}
}

type command struct {
	args  string
	about string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":          {"[-email e] [-password p]", "sign in and keep the session", cmdLogin},
	"logout":         {"", "forget the stored session", cmdLogout},
	"whoami":         {"", "show the signed-in user", cmdWhoami},
	"register":       {"", "create an account with an emailed code", cmdRegister},
	"reset-password": {"", "reset a password with an emailed code", cmdResetPassword},
	"nickname":       {"<name>", "change your nickname", cmdNickname},
	"avatar":         {"<file>", "upload a new avatar", cmdAvatar},
	"posts":          {"[-page n] [-limit n] [-category c] [-tag t]", "list posts", cmdPosts},
	"recent":         {"", "list recent posts", cmdRecent},
	"mine":           {"", "list your posts", cmdMine},
	"show":           {"[-html file] <id>", "show a post with its contents and comments", cmdShow},
	"source":         {"[-html file] <id>", "show the blocks a post is made of", cmdSource},
	"search":         {"<query>", "search posts", cmdSearch},
	"archive":        {"", "list every post", cmdArchive},
	"tags":           {"[-posts]", "show the tag cloud", cmdTags},
	"categories":     {"", "list categories", cmdCategories},
	"comment":        {"<slug> <text>", "comment on a post", cmdComment},
	"reply":          {"<slug> <parentId> <text>", "reply to a comment", cmdReply},
	"delete-comment": {"[-yes] <slug> <commentId>", "delete a comment and its replies", cmdDeleteComment},
	"publish":        {"[-slug s] <file.md>", "publish a markdown file", cmdPublish},
	"delete":         {"[-yes] <slug>", "delete a post", cmdDelete},
	"pending":        {"", "list posts waiting for review", cmdPending},
	"review":         {"<postId> approve|reject", "approve or reject a pending post", cmdReview},
	"draft":          {"save|pull|list|show|publish|rm ...", "manage local drafts", cmdDraft},
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: inkwell [-config file] <command> [args]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-15s %-45s %s\n", name, c.args, c.about)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Usage = func() { usage(flag.CommandLine.Output()) }
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	config.SetLogger(logger.New(os.Getenv(config.EnvLogLevel)))
	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	setLoggers(logger.New(config.AppConfig.Logging.Level))

	if flag.NArg() == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	database := db.NewSQLite(config.AppConfig.Session.DBPath)
	if err := database.InitDB(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open local database")
	}
	defer database.Close()

	a, err := newApp(ctx, config.AppConfig, database, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}

	if err := a.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		log.Debug().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var log zerolog.Logger

func setLoggers(l zerolog.Logger) {
	log = l
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	fetch.SetLogger(logger.Component(l, "fetch"))
	api.SetLogger(logger.Component(l, "api"))
	auth.SetLogger(logger.Component(l, "auth"))
	comment.SetLogger(logger.Component(l, "comment"))
	editor.SetLogger(logger.Component(l, "editor"))
	publish.SetLogger(logger.Component(l, "publish"))
	render.SetLogger(logger.Component(l, "render"))
	repository.SetLogger(logger.Component(l, "repository"))
}

func newApp(ctx context.Context, cfg *config.Config, d db.Db, in io.Reader, out io.Writer) (*app, error) {
	store := auth.NewStore(auth.NewDBBackend(d))
	if err := store.Load(); err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if token := os.Getenv(config.EnvToken); token != "" {
		store.UseToken(token)
	}

	fetcher := fetch.NewFetcher(
		fetch.WithDoer(&http.Client{Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second}),
		fetch.WithTTL(time.Duration(cfg.Cache.TTLMillis)*time.Millisecond),
		fetch.WithUserAgent(cfg.API.UserAgent),
	)
	client := api.NewClient(cfg.API.BaseURL, fetcher, store)

	var uploader publish.Uploader = client
	if cfg.Uploads.Backend == config.UploadBackendS3 {
		s3, err := repository.NewS3AssetStore(ctx, cfg.Uploads.S3)
		if err != nil {
			return nil, err
		}
		uploader = s3
	}

	drafts, err := repository.NewDBDraftRepository(d, cfg.Drafts.Compression)
	if err != nil {
		return nil, err
	}

	render.SetRenderer(cfg.Render.Renderer)

	return &app{
		cfg:      cfg,
		store:    store,
		client:   client,
		uploader: uploader,
		drafts:   drafts,
		notifier: notify.NewTerminal(out),
		prompter: notify.NewPrompter(in, out),
		out:      out,
		style:    newStyles(out),
	}, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	c, ok := commands[args[0]]
	if !ok {
		return errors.Wrapf(errUsage, "unknown command %q", args[0])
	}
	return c.run(ctx, a, args[1:])
}

// flags returns a flag set for a subcommand that reports errors instead of exiting.
func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// need checks that args holds at least n positional arguments.
func need(args []string, n int, what string) error {
	if len(args) < n {
		return errors.Errorf("missing %s", what)
	}
	return nil
}

func (a *app) newEditor() *editor.Session {
	return editor.NewSession(a.client, a.uploader, a.store, a.notifier)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
