package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/course-cache/api"
	"github.com/irsalhamdi/course-cache/api/background"
	"github.com/irsalhamdi/course-cache/config"
	"github.com/irsalhamdi/course-cache/core/auth"
	"github.com/irsalhamdi/course-cache/core/cart"
	"github.com/irsalhamdi/course-cache/core/course"
	"github.com/irsalhamdi/course-cache/core/dashboard"
	"github.com/irsalhamdi/course-cache/core/notice"
	"github.com/irsalhamdi/course-cache/core/order"
	"github.com/irsalhamdi/course-cache/core/purchase"
	"github.com/irsalhamdi/course-cache/core/role"
	"github.com/irsalhamdi/course-cache/core/session"
	"github.com/irsalhamdi/course-cache/database"
	"github.com/irsalhamdi/course-cache/rate"
	"github.com/irsalhamdi/course-cache/remote"
	"github.com/irsalhamdi/course-cache/storage"
	"github.com/juju/clock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting course cache agent")
	defer logger.Info("shutdown complete")

	const prefix = "COURSECACHE"
	var cfg config.Config
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening cart storage: %w", err)
	}
	defer closeStore()

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Auth.SessionLifetime
	sessionManager.Cookie.Name = "coursecache_session"
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	ctx := context.Background()
	verifier, err := auth.Discover(ctx, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to discover identity provider: %w", err)
	}
	if cfg.Auth.Issuer == "" {
		logger.Warn("no identity provider configured, tokens are decoded without verification")
	}

	bg := background.New(logger)
	feed := notice.NewFeed(logger.WithField("component", "notice"), 50)

	tokens := &remote.Tokens{}
	rc := remote.New(cfg.API.BaseURL, tokens, cfg.API.Timeout, logger.WithField("component", "remote"))

	resolver := role.NewResolver()
	catalog := course.NewCatalog(rc, feed, logger.WithField("component", "catalog"))
	owned := course.NewOwned(rc, logger.WithField("component", "owned"))
	dash := dashboard.NewCache(rc, resolver, feed, logger.WithField("component", "dashboard"))
	pending := purchase.NewReconciler(rc, feed, logger.WithField("component", "purchase"))

	pulse := cart.NewPulse(clock.WallClock, cfg.Cart.Pulse)
	crt := cart.Open(ctx, store, feed, pulse, logger.WithField("component", "cart"))

	orch := order.NewOrchestrator(order.Config{
		API:     rc,
		Cart:    crt,
		Owned:   owned,
		Catalog: catalog,
		Pending: pending,
		Notify:  feed,
		Log:     logger.WithField("component", "order"),
	})

	sessions := session.NewManager(session.Config{
		API:       rc,
		Tokens:    tokens,
		Role:      resolver,
		Owned:     owned,
		Dashboard: dash,
		Pending:   pending,
		Log:       logger.WithField("component", "session"),
	})

	checkout := rate.NewLimiter(cfg.Checkout.Burst, cfg.Checkout.Expiry, rate.Every(cfg.Checkout.Interval))
	defer checkout.Close()

	bg.Go("catalog refresh", func(ctx context.Context) {
		if err := catalog.Refresh(ctx); err != nil {
			logger.WithError(err).Warn("initial catalog refresh failed")
		}
	})

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:   cfg.Cors.Origin,
		Log:          logger,
		Session:      sessionManager,
		Background:   bg,
		Verifier:     verifier,
		Remote:       rc,
		Sessions:     sessions,
		Role:         resolver,
		Catalog:      catalog,
		Owned:        owned,
		Cart:         crt,
		Dashboard:    dash,
		Pending:      pending,
		Orchestrator: orch,
		Notices:      feed,
		Checkout:     checkout,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

// openStore builds the durable cart backend named by cfg.Cart.Backend.
func openStore(cfg config.Config) (cart.Store, func(), error) {
	noop := func() {}

	switch cfg.Cart.Backend {
	case "memory":
		return storage.NewMemory(), noop, nil

	case "file":
		f, err := storage.NewFile(cfg.Cart.Dir, cfg.Cart.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return f, noop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return storage.NewRedis(client, cfg.Cart.Namespace), func() { client.Close() }, nil

	case "sql":
		if cfg.DB.Driver == "sqlite3" {
			if err := os.MkdirAll(cfg.Cart.Dir, 0o700); err != nil {
				return nil, nil, fmt.Errorf("creating %s: %w", cfg.Cart.Dir, err)
			}
		}
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return storage.NewSQL(db, cfg.Cart.Namespace), func() { db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown cart backend %q", cfg.Cart.Backend)
}
