package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/krishimitra/frontend/internal/api"
	"github.com/krishimitra/frontend/internal/backend"
	"github.com/krishimitra/frontend/internal/config"
	"github.com/krishimitra/frontend/internal/session"
	"github.com/krishimitra/frontend/internal/storage"
	"github.com/krishimitra/frontend/internal/ui"
	"github.com/krishimitra/frontend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long: `Starts the KrishiMitra web interface.

The backend base URL, upload limits and session lifetime come from the
config file; PORT, BACKEND_URL, DATA_DIR and LOG_LEVEL override it.`,
		Example: `  # Start with krishimitra.yaml in the working directory
  krishimitra serve

  # Start on a custom port against a remote backend
  BACKEND_URL=http://10.0.0.5:5000 krishimitra serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			setupLogging(cfg.Advanced.LogLevel)

			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, *configPath)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides the config file)")

	return cmd
}

func serve(ctx context.Context, cfg *config.AppConfig, configPath string) error {
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir(), cfg.Storage.MaxImageBytes)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	client := backend.NewClient(backend.Options{
		BaseURL:     cfg.Backend.BaseURL,
		PredictPath: cfg.Backend.PredictPath,
		ChatPath:    cfg.Backend.ChatPath,
		Timeout:     cfg.BackendTimeout(),
	})

	sessionMgr := session.NewManager(ui.Deps{
		Store:     fileStore,
		Diagnoser: client,
		Assistant: client,
		Hub:       ui.NewHub(),
	}, cfg.Session.MaxSessions)

	// Start background session cleanup
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(cfg.SessionTimeout()); n > 0 {
					slog.Info("Cleaned up idle sessions", "count", n, "active", sessionMgr.Count())
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true

	api.SetupMiddleware(e, api.MiddlewareOptions{
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		Gzip:             cfg.Server.EnableGzip,
		BodyLimit:        cfg.Server.BodyLimit,
		ShowErrorDetails: cfg.Advanced.LogLevel == "debug",
	})

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		SessionMgr: sessionMgr,
		CookieName: cfg.Session.CookieName,
		Version:    Version,
	}))

	if err := web.RegisterStaticRoutes(e); err != nil {
		return fmt.Errorf("failed to register static routes: %w", err)
	}

	// analysed images referenced by image_url live on the backend
	if err := api.RegisterUploadsProxy(e, cfg.Backend.BaseURL); err != nil {
		return err
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath)

	serverErr := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "err", err)
			return err
		}
		// drop remaining sessions so their images are removed
		sessionMgr.CleanupOldSessions(0)
		slog.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}

func printBanner(cfg *config.AppConfig, configPath string) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           KrishiMitra Front End                           ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Backend:   %-46s║\n", cfg.Backend.BaseURL)
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
	fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
}
