package main

// @title           Shopgate API
// @version         1.0
// @description     Server-side OAuth 2.0 (PKCE) gateway to a marketplace Open API. Tokens never reach the browser.

// @host      localhost:4000
// @BasePath  /
// @schemes   http https

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/shopgate/internal/adapters/driven/auth"
	"github.com/custodia-labs/shopgate/internal/adapters/driven/marketplace"
	"github.com/custodia-labs/shopgate/internal/adapters/driven/memory"
	"github.com/custodia-labs/shopgate/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/shopgate/internal/adapters/driven/redis"
	"github.com/custodia-labs/shopgate/internal/adapters/driving/http"
	"github.com/custodia-labs/shopgate/internal/core/ports/driven"
	"github.com/custodia-labs/shopgate/internal/core/services"
)

var version = "dev"

// sessionCleanupInterval is how often expired Postgres sessions are purged.
const sessionCleanupInterval = time.Hour

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := newLogger(cfg.Production)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("shopgate exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	logger.Info("shopgate starting", "version", version, "production", cfg.Production, "session_backend", cfg.backend())

	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, using development secret")
		cfg.SessionSecret = devSessionSecret
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, pinger, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close session store", "error", err)
		}
	}()

	codec, err := auth.NewCookieCodec(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("create cookie codec: %w", err)
	}

	marketplaceCfg := marketplace.Config{
		ClientID:    cfg.APIKey,
		RedirectURI: cfg.RedirectURI,
		Scopes:      cfg.Scopes,
		AuthURL:     cfg.AuthURL,
		TokenURL:    cfg.TokenURL,
		APIBaseURL:  cfg.APIBaseURL,
		Timeout:     marketplace.DefaultTimeout,
	}

	authService := services.NewAuthorizationService(services.AuthorizationServiceConfig{
		SessionStore:  store,
		Provider:      marketplace.NewOAuthProvider(marketplaceCfg),
		ClientFactory: marketplace.NewClientFactory(marketplaceCfg),
		Logger:        logger,
	})

	sessions := http.NewSessionManager(store, codec, http.SessionConfig{
		CookieName: cfg.SessionCookieName,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.Production,
	}, logger)

	serverCfg := http.DefaultConfig()
	serverCfg.Port = cfg.Port
	serverCfg.StaticDir = cfg.StaticDir
	serverCfg.AllowedOrigins = cfg.AllowedOrigins

	server := http.NewServer(serverCfg, authService, sessions, pinger, logger)
	return server.Start()
}

// openSessionStore connects the configured session backend: Redis, then
// Postgres, then process memory outside production.
func openSessionStore(ctx context.Context, cfg config, logger *slog.Logger) (driven.SessionStore, http.Pinger, error) {
	switch cfg.backend() {
	case "redis":
		client, err := redisadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to redis session store")
		store := redisadapter.NewSessionStore(client)
		return store, store, nil

	case "postgres":
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres session store")
		store := postgres.NewSessionStore(db)
		go runSessionCleanup(ctx, store, sessionCleanupInterval, logger)
		return store, db, nil

	default:
		if cfg.Production {
			return nil, nil, fmt.Errorf("in-memory session store is not allowed in production")
		}
		return memory.NewSessionStore(logger), nil, nil
	}
}

// runSessionCleanup purges expired sessions until ctx is cancelled.
func runSessionCleanup(ctx context.Context, store *postgres.SessionStore, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Cleanup(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}

func newLogger(production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
