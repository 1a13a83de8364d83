// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/application/container"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/presentation/http/server"
	"github.com/AtRiskMedia/sitekeep/pkg/config"
	"github.com/gin-gonic/gin"
)

// NewLogger builds the channeled logger from the LOG_* settings.
func NewLogger() (*logging.ChanneledLogger, error) {
	loggerConfig := logging.DefaultLoggerConfig()
	loggerConfig.LogDirectory = config.LogDirectory
	loggerConfig.OutputToFile = config.LogToFile
	loggerConfig.DefaultLevel = ParseLevel(config.LogLevel)

	logger, err := logging.NewChanneledLogger(loggerConfig)
	if err != nil {
		return nil, err
	}
	if err := ApplyChannelLevels(logger, config.LogChannelLevels); err != nil {
		logger.Close()
		return nil, err
	}
	return logger, nil
}

// ApplyChannelLevels applies a comma separated list of channel=level overrides.
func ApplyChannelLevels(logger *logging.ChanneledLogger, spec string) error {
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		channel, level, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid channel log level %q, want channel=level", pair)
		}
		if err := logger.SetChannelLevel(logging.Channel(strings.TrimSpace(channel)), ParseLevel(level)); err != nil {
			return err
		}
	}
	return nil
}

// ParseLevel maps a LOG_LEVEL value onto a slog level; unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Bootstrap creates the logger and the dependency container.
func Bootstrap() (*container.Container, error) {
	logger, err := NewLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	appContainer, err := container.NewContainer(logger)
	if err != nil {
		logger.LogError(logging.ChannelStartup, "container", err, nil)
		logger.Close()
		return nil, err
	}
	return appContainer, nil
}

// Initialize runs the HTTP server until SIGINT or SIGTERM
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("Initializing sitekeep...")
	appContainer, err := Bootstrap()
	if err != nil {
		return err
	}
	defer appContainer.Close()

	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging",
		"databaseDriver", appContainer.DB.Driver, "mediaRoot", appContainer.Store.Root())

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	// Start background cleanup worker
	go appContainer.Cleanup.Start(ctx)

	// Start HTTP server
	startServerTime := time.Now()
	httpServer := server.New(config.Port, appContainer)
	logger.LogStartupPhase("http_server", time.Since(startServerTime), true)

	// Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			return err
		}
	}

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
