package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MuhammadGagah/native-speech-generation/internal/audio"
	"github.com/MuhammadGagah/native-speech-generation/internal/config"
	"github.com/MuhammadGagah/native-speech-generation/internal/installer"
	"github.com/MuhammadGagah/native-speech-generation/internal/metrics"
	"github.com/MuhammadGagah/native-speech-generation/internal/server"
	"github.com/MuhammadGagah/native-speech-generation/internal/stream"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "native-speech-generation"
	serviceVersion    = "1.0.0"
)

func main() {
	// Optional .env for local overrides; absence is not an error.
	godotenv.Load()

	defaultConfig := defaultConfigPath
	if env := os.Getenv("SPEECHGEN_CONFIG"); env != "" {
		defaultConfig = env
	}

	// Parse command line flags
	configPath := flag.String("config", defaultConfig, "Path to configuration file")
	install := flag.Bool("install", false, "Download and install the dependency bundle if missing")
	reinstall := flag.Bool("reinstall", false, "Force replacement of the installed dependency bundle")
	assembleDir := flag.String("assemble", "", "Assemble an artifact from the audio chunk files in this directory")
	mergeList := flag.String("merge", "", "Comma-separated list of WAV files to merge")
	outPath := flag.String("out", "", "Output path override for -merge")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if env := os.Getenv("SPEECHGEN_BUNDLE_URL"); env != "" {
		cfg.Bundle.URL = env
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.String("output_directory", cfg.Output.Directory),
		slog.String("output_base_name", cfg.Output.BaseName),
		slog.String("bundle_install_dir", cfg.Bundle.InstallDir),
		slog.Int("download_timeout", cfg.Bundle.DownloadTimeout),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Cancellable context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize Prometheus metrics
	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)
	logger.Info("Prometheus metrics initialized")

	client := &http.Client{Timeout: cfg.Bundle.GetDownloadTimeoutDuration()}
	inst := installer.New(client, logger, appMetrics)

	// Collect trash left behind by a previous replacement before anything
	// touches the install directory.
	inst.SweepRetired(cfg.Bundle.InstallDir)

	var stateMu sync.Mutex
	lastArtifact := ""

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		status := func() server.Status {
			stateMu.Lock()
			defer stateMu.Unlock()
			_, err := os.Stat(cfg.Bundle.InstallDir)
			return server.Status{
				BundleInstalled: err == nil,
				InstallDir:      cfg.Bundle.InstallDir,
				LastArtifact:    lastArtifact,
			}
		}
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, registry, appMetrics, status)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	progress := func(percent int, message string) {
		logger.Info("Install progress",
			slog.Int("percent", percent),
			slog.String("message", message),
		)
	}

	exitCode := 0

	switch {
	case *reinstall:
		if !inst.Reinstall(ctx, cfg.Bundle.URL, cfg.Bundle.InstallDir, progress) {
			exitCode = 1
		}

	case *install:
		if !inst.EnsureInstalled(ctx, cfg.Bundle.URL, cfg.Bundle.InstallDir, progress) {
			exitCode = 1
		}

	case *mergeList != "":
		output := *outPath
		if output == "" {
			output = filepath.Join(cfg.Output.Directory, cfg.Output.BaseName+".wav")
		}
		inputs := strings.Split(*mergeList, ",")
		result, err := audio.MergeFiles(inputs, output)
		if err != nil {
			logger.Error("Merge failed", slog.String("error", err.Error()))
			exitCode = 1
			break
		}
		logger.Info("Merge complete", slog.String("output", result))
		stateMu.Lock()
		lastArtifact = result
		stateMu.Unlock()

	case *assembleDir != "":
		src, err := stream.NewDirSource(*assembleDir)
		if err != nil {
			logger.Error("Failed to open chunk directory",
				slog.String("dir", *assembleDir),
				slog.String("error", err.Error()),
			)
			exitCode = 1
			break
		}
		basePath := filepath.Join(cfg.Output.Directory, cfg.Output.BaseName)
		coordinator := stream.NewCoordinator(logger, appMetrics)
		artifact, err := coordinator.Assemble(ctx, src, basePath)
		if err != nil {
			logger.Error("Assembly failed", slog.String("error", err.Error()))
			exitCode = 1
			break
		}
		if artifact == "" {
			logger.Info("Assembly cancelled, no artifact produced")
			break
		}
		logger.Info("Assembly complete", slog.String("artifact", artifact))
		stateMu.Lock()
		lastArtifact = artifact
		stateMu.Unlock()

	case cfg.HTTP.Enabled:
		// No one-shot operation requested: serve the API until a signal.
		logger.Info("Service started successfully, waiting for signals...")
		<-ctx.Done()

	default:
		flag.Usage()
		exitCode = 2
	}

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	logger.Info("Service stopped")
	os.Exit(exitCode)
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
