package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/internal/backend"
	"github.com/frahmantamala/construction-dashboard/internal/core/events"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/frahmantamala/construction-dashboard/internal/stats"
	"github.com/frahmantamala/construction-dashboard/internal/tokenstore"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
)

var errNotSignedIn = errors.New("not signed in; run `construction-dashboard login` first")

// Dependencies is everything a command needs, wired once per invocation.
type Dependencies struct {
	Config   *internal.Config
	Logger   *slog.Logger
	Bus      *events.EventBus
	Store    tokenstore.Store
	Auth     *backend.AuthClient
	Sessions *session.Manager
	Backend  *backend.Client
	Stats    *stats.Service
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if ephemeral {
		cfg.TokenStore.Driver = "memory"
	}

	lg := logger.LoggerWrapper()

	store, err := tokenstore.Open(ctx, cfg.TokenStore, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	backendCfg := backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		PageLimit: cfg.Backend.PageLimit,
	}
	bus := events.NewEventBus(lg)
	authClient := backend.NewAuthClient(backendCfg, lg)
	sessions := session.NewManager(store, authClient, bus, lg)
	api := backend.NewClient(backendCfg, sessions, sessions, lg)
	statsService := stats.NewService(stats.NewAggregator(api, lg), sessions, lg)

	return &Dependencies{
		Config:   cfg,
		Logger:   lg,
		Bus:      bus,
		Store:    store,
		Auth:     authClient,
		Sessions: sessions,
		Backend:  api,
		Stats:    statsService,
	}, nil
}

func (d *Dependencies) Close() {
	if err := d.Store.Close(); err != nil {
		d.Logger.Warn("token store close error", "error", err)
	}
}

// signedIn restores the persisted session for a one-shot command.
func (d *Dependencies) signedIn(ctx context.Context) (session.Snapshot, error) {
	snap := d.Sessions.Restore(ctx)
	if !snap.Authenticated() {
		return snap, errNotSignedIn
	}
	return snap, nil
}

// withSession runs fn with dependencies and a restored session.
func withSession(ctx context.Context, fn func(ctx context.Context, deps *Dependencies, snap session.Snapshot) error) error {
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	snap, err := deps.signedIn(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, deps, snap)
}
