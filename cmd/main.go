package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/handlers"
	"marketplace/internal/logger"
	"marketplace/internal/mail"
	"marketplace/internal/repository"
	"marketplace/internal/repository/db"
	"marketplace/internal/server"
	"marketplace/internal/service"

	"github.com/spf13/afero"
)

const (
	limiterCleanupEvery = 10 * time.Minute
	shutdownTimeout     = 10 * time.Second
)

func main() {
	// load configs/config.yml + MARKETPLACE_* env
	cfg, err := config.Load("configs", ".")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.LogLevel)

	conn, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	images, err := openImageStore(cfg.Images.Dir)
	if err != nil {
		log.Fatalw("failed to prepare image dir", "dir", cfg.Images.Dir, "err", err)
	}

	tokens, err := service.NewTokenService(cfg.Secret)
	if err != nil {
		log.Fatalw("failed to init token service", "err", err)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := service.NewIPRateLimiter(cfg.Reset.RatePerMinute, cfg.Reset.Burst, log.Named("ratelimit"))
	limiter.StartCleanup(ctx, limiterCleanupEvery)

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Deps{
		Tokens:  tokens,
		Uploads: service.NewUploadService(images, log.Named("upload")),
		Mailer:  newMailer(cfg.Mail, log),
		Limiter: limiter,
		Reset: service.ResetSettings{
			BaseURL: cfg.BaseURL,
			From:    cfg.Mail.From,
			Expiry:  cfg.Reset.Expiry(),
		},
		PageSize:       cfg.PageSize,
		DefaultAvatar:  cfg.Images.DefaultAvatar,
		DefaultListing: cfg.Images.DefaultListing,
		Log:            log,
	})
	apiHandler := handlers.NewHandler(services, log.Named("http"), handlers.Config{
		SessionName:    cfg.Session.Name,
		SessionSecret:  cfg.SessionSecret(),
		SecureCookie:   cfg.Session.Secure,
		Images:         images,
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.InitDB(path)
}

// openImageStore roots an afero filesystem at dir, creating it when missing.
func openImageStore(dir string) (afero.Fs, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return afero.NewBasePathFs(osFs, dir), nil
}

// newMailer sends through SMTP when a host is configured and otherwise logs
// the message, which is enough for local development.
func newMailer(cfg config.MailConfig, log *logger.Logger) mail.Sender {
	if cfg.Host == "" {
		log.Infow("mail.host not set; reset emails will be logged")
		return mail.NewLogSender(log.Named("mail"))
	}
	return mail.NewSMTPSender(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("server_starting", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
