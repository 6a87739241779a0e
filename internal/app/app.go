// Package app wires configuration, storage, messaging and the HTTP surface
// into one runnable process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/rental-booking/internal/access"
	"github.com/iliyamo/rental-booking/internal/config"
	"github.com/iliyamo/rental-booking/internal/database"
	"github.com/iliyamo/rental-booking/internal/handler"
	"github.com/iliyamo/rental-booking/internal/metrics"
	"github.com/iliyamo/rental-booking/internal/queue"
	"github.com/iliyamo/rental-booking/internal/repository"
	"github.com/iliyamo/rental-booking/internal/router"
	"github.com/iliyamo/rental-booking/internal/service"
	"github.com/iliyamo/rental-booking/internal/session"
	"github.com/iliyamo/rental-booking/internal/utils"
)

var errRedisUnreachable = errors.New("redis unreachable at startup")

// Mode selects which loops a process runs.
type Mode string

const (
	// ModeAll serves HTTP and, with the amqp transport, consumes
	// notifications in the same process.
	ModeAll Mode = "all"
	// ModeAPI serves HTTP only; a separate consumer process drains the queue.
	ModeAPI Mode = "api"
	// ModeConsumer drains the notification queue and serves no HTTP.
	ModeConsumer Mode = "consumer"
)

// ParseMode validates the --mode flag.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAll, ModeAPI, ModeConsumer:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want all, api or consumer)", s)
}

// Options are the command-line switches.
type Options struct {
	// Migrate applies pending schema migrations before serving.
	Migrate bool
	Mode    Mode
}

// plan reports which loops run for the given notification transport.
func (o Options) plan(transport string) (serveHTTP, consume bool, err error) {
	switch o.Mode {
	case ModeAll, "":
		return true, transport == "amqp", nil
	case ModeAPI:
		return true, false, nil
	case ModeConsumer:
		if transport != "amqp" {
			return false, false, fmt.Errorf("mode consumer needs NOTIFY_TRANSPORT=amqp, got %q", transport)
		}
		return false, true, nil
	}
	return false, false, fmt.Errorf("unknown mode %q", o.Mode)
}

// App owns every long-lived resource.
type App struct {
	cfg       *config.Config
	opts      Options
	logger    *slog.Logger
	serveHTTP bool
	db        *sql.DB
	rdb       *redis.Client
	publisher *queue.Publisher
	consumer  *queue.Consumer
	echo      *echo.Echo
}

// New opens MySQL (required) and Redis (optional), then builds the service
// graph. Redis being down only disables sessions, OAuth, rate limiting and
// caching.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	serveHTTP, consume, err := opts.plan(cfg.NotifyTransport)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to MySQL", slog.String("host", cfg.DBHost), slog.String("database", cfg.DBName))

	if opts.Migrate {
		if err := database.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable; sessions, rate limiting and caching are disabled",
			slog.String("addr", cfg.Redis.Address()))
	}

	a := &App{cfg: cfg, opts: opts, logger: logger, serveHTTP: serveHTTP, db: db, rdb: rdb}
	a.echo = a.build(consume)
	return a, nil
}

func (a *App) build(consume bool) *echo.Echo {
	cfg, logger := a.cfg, a.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	users := repository.NewUserRepo(a.db)
	listings := repository.NewListingRepo(a.db)
	bookings := repository.NewBookingRepo(a.db)
	refresh := repository.NewTokenRepo(a.db)

	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.AccessTTL)
	gate := access.NewGate(users, tokens)

	sender := a.sender()
	var dispatcher queue.Dispatcher = queue.Direct{Sender: sender}
	if cfg.NotifyTransport == "amqp" {
		a.publisher = queue.NewPublisher(cfg.RabbitURL, logger)
		dispatcher = a.publisher
		if consume {
			a.consumer = queue.NewConsumer(cfg.RabbitURL, sender, logger)
		}
	}
	notifier := service.NewTemplateNotifier(users, listings, dispatcher, m, logger)

	authCfg := service.AuthConfig{
		Gate:       gate,
		Users:      users,
		Refresh:    refresh,
		Tokens:     tokens,
		BcryptCost: cfg.BcryptCost,
		RefreshTTL: cfg.RefreshTTL,
	}
	health := &handler.HealthHandler{DB: a.db, Redis: handler.Unreachable{Err: errRedisUnreachable}}
	if a.rdb != nil {
		authCfg.Sessions = session.NewStore(a.rdb, cfg.SessionTTL)
		authCfg.OAuth = a.oauth(users)
		health.Redis = handler.RedisPinger{Client: a.rdb}
	}
	auth := service.NewAuthService(authCfg)
	bookingSvc := service.NewBookingService(gate, bookings, notifier, m, logger)

	return router.New(router.Deps{
		Logger:    logger,
		Gatherer:  reg,
		Metrics:   m,
		Gate:      gate,
		Redis:     a.rdb,
		RateLimit: cfg.RateLimit,
		Cache:     cfg.Cache,
		Health:    health,
		Auth: &handler.AuthHandler{
			Auth:          auth,
			SecureCookies: cfg.IsProduction(),
			SessionTTL:    cfg.SessionTTL,
		},
		Listings: &handler.ListingHandler{Listings: service.NewListingService(gate, listings)},
		Bookings: &handler.BookingHandler{Bookings: bookingSvc},
		Admin:    &handler.AdminHandler{Admin: service.NewAdminService(gate, users, refresh)},
		OAuth:    auth.OAuthEnabled(),
	})
}

func (a *App) sender() queue.Sender {
	if a.cfg.SMTPAddr != "" {
		return queue.NewSMTPSender(a.cfg.SMTPAddr, a.cfg.SMTPFrom, a.cfg.SMTPUser, a.cfg.SMTPPass)
	}
	a.logger.Info("no SMTP relay configured; notifications go to file", slog.String("path", a.cfg.NotifyLogPath))
	return queue.NewFileSender(a.cfg.NotifyLogPath)
}

func (a *App) oauth(users session.OAuthUsers) *session.OAuthAdapter {
	var providers []*session.Provider
	callback := func(name string) string {
		return a.cfg.OAuthRedirectBaseURL + "/v1/auth/oauth/" + name + "/callback"
	}
	if p := a.cfg.Google; p.Enabled() {
		providers = append(providers, session.GoogleProvider(p.ClientID, p.ClientSecret, callback("google")))
	}
	if p := a.cfg.GitHub; p.Enabled() {
		providers = append(providers, session.GitHubProvider(p.ClientID, p.ClientSecret, callback("github")))
	}
	if len(providers) == 0 {
		return nil
	}
	return session.NewOAuthAdapter(users, providers...)
}

// Run serves HTTP and consumes notifications, as the mode selects, until
// ctx is cancelled. Shutdown drains in-flight requests for up to 10 seconds.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.serveHTTP {
		addr := ":" + a.cfg.Port
		a.echo.Server.ReadTimeout = 15 * time.Second
		a.echo.Server.WriteTimeout = 15 * time.Second
		a.echo.Server.IdleTimeout = 60 * time.Second

		g.Go(func() error {
			a.logger.Info("starting HTTP server", slog.String("addr", addr), slog.String("env", a.cfg.Env))
			if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			a.logger.Info("shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return a.echo.Shutdown(shutdownCtx)
		})
	}
	if a.consumer != nil {
		g.Go(func() error {
			a.logger.Info("starting notification consumer", slog.String("queue", queue.QueueName))
			return a.consumer.Run(gctx)
		})
	}
	return g.Wait()
}

// Close releases connections. Errors are logged.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("rabbitmq publisher close", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close", slog.String("error", err.Error()))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("mysql close", slog.String("error", err.Error()))
	}
}
