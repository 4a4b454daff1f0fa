// Package server wires the RustyTech backend together: storage, object
// store, mail delivery, the Spotify client and the REST API, and runs them
// until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/rustytech/internal/filex"
	"github.com/dmitrijs2005/rustytech/internal/logging"
	"github.com/dmitrijs2005/rustytech/internal/server/config"
	"github.com/dmitrijs2005/rustytech/internal/server/httpapi"
	"github.com/dmitrijs2005/rustytech/internal/server/mail"
	"github.com/dmitrijs2005/rustytech/internal/server/media"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rustytech/internal/server/services"
	"github.com/dmitrijs2005/rustytech/internal/server/spotify"
	"golang.org/x/sync/errgroup"
)

const tokenPurgeInterval = time.Hour

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	kv         *badger.DB
	dispatcher *mail.Dispatcher
	accounts   *services.AccountService
	server     *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, os.Stdout)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	if err := app.setup(ctx, rm); err != nil {
		app.close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) setup(ctx context.Context, rm *repomanager.PostgresRepositoryManager) error {
	c := app.config

	dir := ""
	if c.BadgerDir != "" {
		var err error
		if dir, err = filex.EnsureDir(c.BadgerDir); err != nil {
			return err
		}
	}
	kv, err := spotify.OpenBadger(dir, app.logger.With("module", "badger"))
	if err != nil {
		return err
	}
	app.kv = kv

	store, err := media.NewS3Store(ctx, media.S3Config{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return err
	}
	uploader := media.NewUploader(store)

	var mailer mail.Mailer = mail.NewLogMailer(app.logger.With("module", "mail"))
	if c.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
		})
	}
	app.dispatcher = mail.NewDispatcher(mailer, app.logger.With("module", "mail"), 0)

	spotifyClient := spotify.NewClient(spotify.Config{
		ClientID:     c.SpotifyClientID,
		ClientSecret: c.SpotifyClientSecret,
		RedirectURL:  c.SpotifyRedirectURL,
		Scopes:       c.SpotifyScopes,
		StateSecret:  c.SecretKey,
	}, spotify.NewBadgerTokenStore(kv, c.SpotifyTokenKey, c.SpotifyTokenTTL))

	app.accounts = services.NewAccountService(app.db, rm, c, app.dispatcher, app.logger)
	if c.AdminEmail != "" {
		if err := app.accounts.EnsureAdmin(ctx, c.AdminEmail, c.AdminUserName, c.AdminPassword); err != nil {
			return fmt.Errorf("admin bootstrap: %w", err)
		}
	}
	posts := services.NewPostService(app.db, rm, uploader, app.logger)

	app.server = httpapi.NewServer(c.HTTPAddr, app.logger, httpapi.Services{
		Tokens:   app.accounts.Signer(),
		Accounts: app.accounts,
		Posts:    posts,
		Users:    services.NewUserService(app.db, rm, posts, app.logger),
		Roles:    services.NewRoleService(app.db, rm),
		Media:    services.NewMediaService(uploader),
		Spotify:  services.NewSpotifyService(app.db, rm, spotifyClient),
	}, c.MaxUploadSize)

	return nil
}

// purgeTokens removes expired refresh tokens once per interval.
func (app *App) purgeTokens(ctx context.Context) error {
	t := time.NewTicker(tokenPurgeInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := app.accounts.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "purge refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged refresh tokens", "count", n)
			}
		}
	}
}

func (app *App) close(ctx context.Context) {
	if app.kv != nil {
		if err := app.kv.Close(); err != nil {
			app.logger.Error(ctx, "badger close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
}

// Run serves until SIGINT, SIGTERM or SIGQUIT, then drains pending mail and
// releases storage.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.close(context.WithoutCancel(ctx))

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.server.Run(ctx) })
	g.Go(func() error { return app.dispatcher.Run(ctx) })
	g.Go(func() error { return app.purgeTokens(ctx) })

	err := g.Wait()
	app.logger.Info(ctx, "app stopped")
	return err
}
