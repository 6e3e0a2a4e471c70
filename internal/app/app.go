package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/servicedesk/servicedesk/internal/config"
	"github.com/servicedesk/servicedesk/internal/db"
	"github.com/servicedesk/servicedesk/internal/repository"
	"github.com/servicedesk/servicedesk/internal/service"
	"github.com/servicedesk/servicedesk/internal/storage"
)

// App wires repositories and services once at startup; everything is
// injected explicitly, nothing lives in package globals.
type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	AuthService     *service.AuthService
	SessionService  *service.SessionService
	OIDCService     *service.OIDCService // nil unless OpenID is configured
	ShareService    *service.ShareService
	SoftwareService *service.SoftwareService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	softwareRepository := repository.NewSoftwareRepository(database)
	shareLinkRepository := repository.NewShareLinkRepository(database)

	sessionRepository, err := newSessionRepository(ctx, cfg, database)
	if err != nil {
		return nil, err
	}

	// Storage
	artifactStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	authService := service.NewAuthService(userRepository)
	sessionService := service.NewSessionService(sessionRepository, cfg.SessionTTL, cfg.SecureCookies())
	softwareService := service.NewSoftwareService(softwareRepository, artifactStorage)
	shareService := service.NewShareService(shareLinkRepository, softwareRepository)

	var oidcService *service.OIDCService
	if cfg.OpenIDEnabled() {
		oidcService, err = service.NewOIDCService(ctx, userRepository,
			cfg.OpenIDIssuerURL, cfg.OpenIDClientID, cfg.OpenIDClientSecret,
			cfg.OpenIDCallbackURL, cfg.SessionSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openid connect: %w", err)
		}
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		err = authService.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	err = sessionService.PurgeExpired(ctx)
	if err != nil {
		slog.Warn("failed to purge expired sessions", "error", err)
	}

	return &App{
		Cfg:             cfg,
		DB:              database,
		AuthService:     authService,
		SessionService:  sessionService,
		OIDCService:     oidcService,
		ShareService:    shareService,
		SoftwareService: softwareService,
	}, nil
}

func newSessionRepository(ctx context.Context, cfg *config.Config, database *sqlx.DB) (repository.SessionRepository, error) {
	if cfg.SessionStore != "redis" {
		return repository.NewSessionRepository(database), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("session store using redis", "addr", cfg.RedisAddr)
	return repository.NewRedisSessionRepository(client), nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
