// import-posts publishes every markdown file of a directory, optionally
// republishing files as they change.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/api"
	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/fetch"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/notify"
	"github.com/debemdeboas/inkwell/internal/publish"
	"github.com/debemdeboas/inkwell/internal/repository"
)

var log zerolog.Logger

// importer publishes source posts and remembers which slug each file became,
// so a changed file updates its post instead of creating another.
type importer struct {
	newSession func() *editor.Session
	slugs      map[string]string
	failed     int
}

func newImporter(newSession func() *editor.Session) *importer {
	return &importer{newSession: newSession, slugs: make(map[string]string)}
}

func (im *importer) publish(ctx context.Context, post repository.SourcePost) error {
	s := im.newSession()
	s.Title = post.Request.Title
	s.SetCategory(post.Request.Category)
	for _, tag := range post.Request.Tags {
		s.AddTag(tag)
	}
	s.Cover = post.Cover
	s.SetBlocks(post.Blocks)
	s.EditSlug = im.slugs[post.Name]

	res, err := s.Publish(ctx)
	if err != nil {
		im.failed++
		return errors.Wrapf(err, "publish %s", post.Name)
	}
	im.slugs[post.Name] = s.EditSlug
	log.Info().Str("file", post.Name).Str("slug", s.EditSlug).Str("status", res.Status).Msg("Post published")
	return nil
}

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	watch := flag.Duration("watch", 0, "Keep running and republish changed files at this interval")
	flag.Parse()

	godotenv.Load()
	if err := config.LoadConfig(*configPath); err != nil {
		panic(err)
	}
	cfg := config.AppConfig

	log = logger.New(cfg.Logging.Level)
	db.SetLogger(logger.Component(log, "db"))
	fetch.SetLogger(logger.Component(log, "fetch"))
	api.SetLogger(logger.Component(log, "api"))
	editor.SetLogger(logger.Component(log, "editor"))
	publish.SetLogger(logger.Component(log, "publish"))
	repository.SetLogger(logger.Component(log, "repository"))

	if *path == "" {
		log.Fatal().Msg("The -path flag is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	database := db.NewSQLite(cfg.Session.DBPath)
	if err := database.InitDB(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open local database")
	}
	defer database.Close()

	store := auth.NewStore(auth.NewDBBackend(database))
	if err := store.Load(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load session")
	}
	if token := os.Getenv(config.EnvToken); token != "" {
		store.UseToken(token)
	}
	if !store.IsAuthenticated() {
		log.Fatal().Msg("Not logged in: run inkwell login or set " + config.EnvToken)
	}

	client := api.NewClient(cfg.API.BaseURL, fetch.NewFetcher(
		fetch.WithDoer(&http.Client{Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second}),
		fetch.WithUserAgent(cfg.API.UserAgent),
	), store)

	var uploader publish.Uploader = client
	if cfg.Uploads.Backend == config.UploadBackendS3 {
		s3, err := repository.NewS3AssetStore(ctx, cfg.Uploads.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure S3 uploads")
		}
		uploader = s3
	}

	notifier := notify.NewTerminal(os.Stderr)
	im := newImporter(func() *editor.Session {
		return editor.NewSession(client, uploader, store, notifier)
	})
	source := repository.NewFSPostSource(*path)

	if *watch > 0 {
		err := source.Watch(ctx, *watch, func(post repository.SourcePost) {
			if err := im.publish(ctx, post); err != nil {
				log.Error().Err(err).Msg("Error publishing post")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("Watch stopped")
		}
		return
	}

	posts, err := source.Posts()
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading posts")
	}
	for _, post := range posts {
		if err := im.publish(ctx, post); err != nil {
			log.Error().Err(err).Msg("Error publishing post")
		}
	}
	log.Info().Int("published", len(im.slugs)).Int("failed", im.failed).Msg("Import finished")
	if im.failed > 0 {
		os.Exit(1)
	}
}
