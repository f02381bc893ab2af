package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nahidhasan98/autolog/internal/autolog"
	"github.com/nahidhasan98/autolog/internal/config"
	"github.com/nahidhasan98/autolog/internal/digest"
	"github.com/nahidhasan98/autolog/internal/gitlog"
	"github.com/nahidhasan98/autolog/internal/handlers"
	"github.com/nahidhasan98/autolog/internal/logger"
	"github.com/nahidhasan98/autolog/internal/metrics"
	"github.com/nahidhasan98/autolog/internal/notify"
	"github.com/nahidhasan98/autolog/internal/registry"
	"github.com/nahidhasan98/autolog/internal/scanner"
	"github.com/nahidhasan98/autolog/internal/server"
)

// Global variables for configuration and services
var (
	cfg       *config.Config
	log       *logger.Logger
	collector *metrics.Collector
	service   *autolog.Service
	notifier  *notify.WhatsApp
	scheduler *digest.Scheduler
	errChan   = make(chan error, 2)
)

func main() {
	// Create a context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create a wait group for graceful shutdown
	var wg sync.WaitGroup

	// Initialize configuration and services
	if err := initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Initialization error: %v\n", err)
		os.Exit(1)
	}

	// Connect the WhatsApp notifier when enabled
	startNotifier(ctx, &wg)

	// Start the digest scheduler
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start digest scheduler", err)
	}

	// Start the web server
	startWebServer(ctx, &wg)

	// Handle shutdown signals
	waitForShutdown(cancel, &wg)
}

func initialize(ctx context.Context) error {
	var err error

	// Load configuration
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Starting auto-log server")

	reg, err := registry.Load(cfg.Scan.ProjectsFile)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}
	log.Infof("Loaded %d projects from %s", reg.Len(), cfg.Scan.ProjectsFile)

	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{})
	}

	git := gitlog.NewClient(&gitlog.ExecRunner{
		Binary:  cfg.Scan.GitBinary,
		Timeout: cfg.Scan.GitTimeout,
		Observe: collector.ObserveGit,
	})

	service = autolog.New(reg, scanner.New(git, log), autolog.Options{
		Concurrency: cfg.Scan.Concurrency,
		Metrics:     collector,
		Logger:      log,
	})

	// Initialize WhatsApp notifier
	var digestNotifier digest.Notifier
	if cfg.WhatsApp.Enabled {
		notifier, err = notify.New(ctx, notify.Config{
			Driver:     cfg.Database.Driver,
			DSN:        cfg.Database.DSN,
			LogLevel:   cfg.WhatsApp.LogLevel,
			DeviceName: cfg.WhatsApp.DeviceName,
		}, log, collector)
		if err != nil {
			return fmt.Errorf("failed to create WhatsApp notifier: %w", err)
		}
		digestNotifier = notifier
	}

	scheduler = digest.NewScheduler(service, digest.Options{
		Schedule:  cfg.Digest.Schedule,
		Recipient: cfg.WhatsApp.Recipient,
		Notifier:  digestNotifier,
		Logger:    log,
		Metrics:   collector,
	})

	return nil
}

func startNotifier(ctx context.Context, wg *sync.WaitGroup) {
	if notifier == nil {
		return
	}

	wg.Go(func() {
		defer func() {
			notifier.Disconnect()
			log.Info("WhatsApp notifier shutdown complete")
		}()

		log.Info("Starting WhatsApp notifier...")
		if err := notifier.Connect(ctx); err != nil {
			errChan <- fmt.Errorf("failed to connect to WhatsApp: %w", err)
			return
		}

		// Keep the notifier running
		// It will handle reconnections automatically
		<-ctx.Done()
		log.Info("WhatsApp notifier shutting down...")
	})
}

func startWebServer(ctx context.Context, wg *sync.WaitGroup) {
	wg.Go(func() {
		log.Info("Starting HTTP server...")

		opts := handlers.Options{Digest: scheduler}
		if notifier != nil {
			opts.Notifier = notifier
		}
		httpHandler := handlers.New(service, log, opts)

		// Initialize and start HTTP server
		httpServer := server.New(cfg, httpHandler, collector, log)
		if err := httpServer.Start(errChan); err != nil {
			errChan <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
		printBanner()

		// Keep the server running until shutdown
		<-ctx.Done()
		log.Info("HTTP server shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during HTTP server shutdown", err)
		}
	})
}

func printBanner() {
	base := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	log.Infof("Auto-log server ready at %s", base)
	log.Infof("  POST %s/api/auto-generate-log", base)
	log.Infof("  GET  %s/api/project-status", base)
	log.Infof("  GET  %s/api/health", base)
	log.Infof("  POST %s/api/send-digest", base)
	if cfg.Metrics.Enabled {
		log.Infof("  GET  %s%s", base, cfg.Metrics.Path)
	}
	for _, p := range service.Projects() {
		log.Infof("Watching %s (%s)", p.Name, p.Path)
	}
}

func waitForShutdown(cancel context.CancelFunc, wg *sync.WaitGroup) {
	// Wait for either service to fail or for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Error("Service failed", err)
	case <-sigChan:
		log.Info("Received shutdown signal")
	}

	// Cancel context to signal goroutines to shutdown
	cancel()

	// Stop the digest scheduler and wait for a running digest
	scheduler.Stop()

	// Wait for all goroutines to finish
	wg.Wait()

	log.Info("Application stopped")
}
