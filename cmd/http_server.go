package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/frahmantamala/construction-dashboard/api"
	"github.com/frahmantamala/construction-dashboard/internal/auth"
	"github.com/frahmantamala/construction-dashboard/internal/dashboard"
	"github.com/frahmantamala/construction-dashboard/internal/telemetry"
	"github.com/frahmantamala/construction-dashboard/internal/transport"
	"github.com/frahmantamala/construction-dashboard/internal/transport/rest"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard server",
	Long:  `Restore the persisted session and serve the role-gated dashboard over HTTP`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return startHTTPServer(cmd.Context())
	},
}

func startHTTPServer(ctx context.Context) error {
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	shutdownTracing, err := telemetry.NewProvider(ctx, deps.Config.Observability.Tracing, deps.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			deps.Logger.Error("tracer shutdown error", "error", err)
		}
	}()

	if _, err := api.Load(ctx); err != nil {
		deps.Logger.Warn("embedded openapi document is invalid", "error", err)
	}

	unsubscribe := watchSessionEvents(deps.Bus, deps.Logger)
	defer unsubscribe()

	// Until the restore finishes, protected routes answer 503 instead of
	// redirecting to login.
	go deps.Sessions.Restore(context.Background())

	router := setupRoutes(deps)

	addr := net.JoinHostPort(deps.Config.Dashboard.Host, strconv.Itoa(deps.Config.Dashboard.Port))
	slog.Info("Starting HTTP server", "address", addr, "backend", deps.Config.Backend.BaseURL)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: deps.Config.Dashboard.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Dashboard.ReadTimeout,
		WriteTimeout:      deps.Config.Dashboard.WriteTimeout,
		IdleTimeout:       deps.Config.Dashboard.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed to start: %w", err)
		}
	}

	slog.Info("Server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) *chi.Mux {
	router := chi.NewRouter()
	rbac := auth.NewRBACAuthorization(deps.Sessions, nil, deps.Logger)
	handler := dashboard.NewHandler(transport.NewBaseHandler(deps.Logger), deps.Sessions, deps.Stats, deps.Backend, rbac.Checker())
	health := rest.NewHealthHandler(deps.Backend, deps.Sessions)

	rest.RegisterAllRoutes(router, health, handler, rbac, deps.Logger)
	return router
}
