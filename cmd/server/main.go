package main // Entry point package

import (
	"context"      // shutdown deadlines
	"database/sql" // mysql session store handle
	"errors"       // server closed check
	"log"          // bootstrap failures before zap exists
	"net/http"     // http.ErrServerClosed
	"os"           // exit code
	"os/signal"    // graceful shutdown
	"syscall"      // SIGTERM
	"time"         // tickers and timeouts

	"github.com/labstack/echo/v4"                    // Echo web framework
	"github.com/prometheus/client_golang/prometheus" // metrics registry
	"github.com/redis/go-redis/v9"                   // redis client
	"go.uber.org/zap"                                // structured logging

	"github.com/iliyamo/complaints-admin-portal/internal/config"     // environment config
	"github.com/iliyamo/complaints-admin-portal/internal/database"   // mysql helpers
	"github.com/iliyamo/complaints-admin-portal/internal/gateway"    // backend client
	"github.com/iliyamo/complaints-admin-portal/internal/logging"    // zap setup
	"github.com/iliyamo/complaints-admin-portal/internal/metrics"    // counters
	"github.com/iliyamo/complaints-admin-portal/internal/middleware" // request middleware
	"github.com/iliyamo/complaints-admin-portal/internal/notify"     // push senders
	"github.com/iliyamo/complaints-admin-portal/internal/queue"      // status events
	"github.com/iliyamo/complaints-admin-portal/internal/repository" // session stores
	"github.com/iliyamo/complaints-admin-portal/internal/router"     // route registration
	"github.com/iliyamo/complaints-admin-portal/internal/service"    // portal registry
)

func main() {
	cfg := config.Load() // Load environment config
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis serves the rate limiter even when sessions live elsewhere.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unreachable; rate limiting disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	store, kind, db, err := openStore(cfg, rdb, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		go purgeSessions(ctx, db, cfg.Session.TTL, logger)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	api := gateway.New(cfg.API.BaseURL, cfg.API.Timeout, gateway.WithObserver(rec.Gateway))

	sender, err := newSender(ctx, cfg.Push, logger)
	if err != nil {
		return err
	}

	// A nil *queue.Publisher in the interface would not compare equal to nil.
	var events service.EventPublisher
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue, logger.Named("events"))
		if cfg.Events.ConsumeLogs != "" {
			audit := &queue.AuditConsumer{
				URL:   cfg.Events.URL,
				Queue: cfg.Events.Queue,
				Dir:   cfg.Events.ConsumeLogs,
				Log:   logger.Named("audit"),
			}
			go func() {
				if err := audit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("audit consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	portal := service.NewPortal(service.Options{
		Store:      store,
		Backend:    func(ts gateway.TokenSource) service.Backend { return api.WithTokenSource(ts) },
		Sender:     sender,
		Events:     events,
		Normalizer: service.NewIdentifierNormalizer(cfg.Admin.Identifier),
		StripPlus:  cfg.Admin.StripPlus,
		Metrics:    rec,
		Logger:     logger,
	})
	go sweepWorkspaces(ctx, portal, cfg.Session.IdleSweep, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(logger.Named("http")))
	e.Use(middleware.SessionCookie(cfg.Session, logger))
	router.Register(e, router.Deps{
		Portal:    portal,
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
		Gatherer:  reg,
		StoreKind: kind,
		Log:       logger,
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("session_store", kind))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = e.Shutdown(shutdownCtx)
	portal.Wait()
	return err
}

// openStore picks the session store. A redis store without a reachable
// server degrades to memory so the portal still starts.
func openStore(cfg config.Config, rdb *redis.Client, logger *zap.Logger) (repository.SessionStore, string, *sql.DB, error) {
	switch cfg.Session.Store {
	case "redis":
		if rdb != nil {
			return repository.NewRedisSessionStore(rdb, cfg.Redis.Prefix, cfg.Session.TTL), "redis", nil, nil
		}
		logger.Warn("redis session store unavailable; falling back to memory")
	case "mysql":
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, "", nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.EnsureSessionSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, "", nil, err
		}
		return repository.NewMySQLSessionStore(db), "mysql", db, nil
	}
	return repository.NewMemorySessionStore(), "memory", nil, nil
}

func newSender(ctx context.Context, cfg config.PushConfig, logger *zap.Logger) (notify.Sender, error) {
	switch cfg.Provider {
	case "firebase":
		s, err := notify.NewFirebaseSender(ctx, cfg.ProjectID, cfg.CredentialsPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "legacy":
		if cfg.ServerKey == "" && cfg.WebPushKey == "" {
			logger.Warn("no FCM key configured; push notifications disabled")
			return notify.Noop{}, nil
		}
		return notify.NewLegacySender(cfg.Endpoint, cfg.ServerKey, cfg.WebPushKey, nil), nil
	}
	return notify.Noop{}, nil
}

func purgeSessions(ctx context.Context, db *sql.DB, ttl time.Duration, logger *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := database.PurgeStaleSessions(ctx, db, ttl)
			if err != nil {
				logger.Warn("purge stale sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged stale session values", zap.Int64("rows", n))
			}
		}
	}
}

func sweepWorkspaces(ctx context.Context, p *service.Portal, idle time.Duration, logger *zap.Logger) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := p.Sweep(idle); n > 0 {
				logger.Debug("swept idle workspaces", zap.Int("count", n))
			}
		}
	}
}
