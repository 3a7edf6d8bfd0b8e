package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-studio/internal/api"
	"github.com/heimdex/heimdex-studio/internal/config"
	"github.com/heimdex/heimdex-studio/internal/db"
	"github.com/heimdex/heimdex-studio/internal/exports"
	"github.com/heimdex/heimdex-studio/internal/logging"
	"github.com/heimdex/heimdex-studio/internal/render"
	"github.com/heimdex/heimdex-studio/internal/studio"
	"github.com/heimdex/heimdex-studio/internal/ui"
)

func newServeCommand() *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local editing API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(headless)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the system tray")
	return cmd
}

func serve(forceHeadless bool) error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel(), cfg.LogFormat())
	logger.Info("starting heimdex studio", "version", config.Version, "data_dir", cfg.DataDir(), "config_file", cfg.File())

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another heimdex studio instance is using this data directory")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release data dir lock", "error", err)
		}
	}()

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := exports.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	printBanner(cfg.Port(), authToken)

	var renderClient render.Client
	if cfg.RenderURL() != "" {
		renderClient = render.NewHTTPClient(cfg.RenderURL(), cfg.RenderToken(), cfg.RenderTimeout(), logger)
		logger.Info("render service configured", "base_url", cfg.RenderURL())
	} else {
		renderClient = render.NewStubClient(logger)
		logger.Info("no render service configured, exports are simulated")
	}

	exportSvc := exports.NewService(repo, renderClient, cfg.RenderTimeout(), logger)

	registry := studio.NewRegistry(studio.Options{
		HistoryLimit: cfg.HistoryLimit(),
		Logger:       logger,
	})
	registry.TrackExports(exportSvc)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Registry:   registry,
		Exports:    exportSvc,
		Repository: repo,
		Logger:     logger,
		StartTime:  startTime,
		Version:    config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	quitCh := make(chan struct{})
	quit := func() {
		select {
		case <-quitCh:
		default:
			close(quitCh)
		}
	}

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	var tray *ui.Tray
	if forceHeadless || cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray = ui.NewTray(ui.TrayConfig{
			Projects: registry,
			Exports:  exportSvc,
			Logger:   logger,
			URL:      fmt.Sprintf("http://%s", apiServer.Addr()),
			OnCopyURL: func(url string) {
				logger.Info("studio API address", "url", url)
			},
			OnQuit: quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	registry.Close()
	exportSvc.Wait()
	if tray != nil {
		tray.Quit()
	}

	logger.Info("shutdown complete")
	return nil
}

func printBanner(port int, token string) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  HEIMDEX STUDIO v%-10s               ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", port)
	fmt.Printf("║  Auth Token: %-45s ║\n", token)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
}

type configStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// ensureAuthToken returns the stored API token, minting one on first run.
func ensureAuthToken(store configStore) (string, error) {
	ctx := context.Background()

	existing, err := store.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := store.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
