package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/config"
)

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML/JSON config file declaring disks and endpoints")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	opts := []config.Option{config.WithEnv()}
	if *configFile != "" {
		opts = append(opts, config.WithFile(*configFile))
	}
	serverConfig, err := config.Load(opts...)
	if err != nil {
		slog.Error("Failed to load server configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if serverConfig.Environment == "development" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	slog.SetDefault(logger)

	reg := promclient.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx := context.Background()
	server, cleanup, err := build(ctx, serverConfig, logger, reg)
	if err != nil {
		slog.Error("Failed to build server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Simple Upload Server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"default_disk", serverConfig.DefaultDisk,
			"endpoints", len(serverConfig.Endpoints))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	server.Wait()

	slog.Info("Server exiting")
}

// build wires disks, the audit repository, event sinks and uploaders
func build(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger, reg *promclient.Registry) (*HTTPServer, func(), error) {
	registry, err := cfg.BuildRegistry(ctx)
	if err != nil {
		return nil, nil, err
	}

	repository, closeRepo, err := cfg.BuildRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	sink, err := cfg.BuildEventSink(logger, reg, repository)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	uploaders, err := cfg.BuildUploaders(registry,
		simpleupload.WithEventSink(sink),
		simpleupload.WithLogger(logger),
	)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	return NewHTTPServer(cfg, uploaders, registry, repository, reg, logger), closeRepo, nil
}
