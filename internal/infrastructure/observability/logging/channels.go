// Package logging provides structured logging channels for sitekeep operations.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Channel represents a logical logging channel for different system components
type Channel string

const (
	// System channels
	ChannelSystem   Channel = "system"   // General system operations
	ChannelStartup  Channel = "startup"  // Application startup and initialization
	ChannelShutdown Channel = "shutdown" // Application shutdown and cleanup

	// Business logic channels
	ChannelAuth      Channel = "auth"      // Admin authentication
	ChannelContent   Channel = "content"   // Content store mutations and reads
	ChannelCache     Channel = "cache"     // Render cache invalidation
	ChannelIntegrity Channel = "integrity" // Image reference scans and repairs
	ChannelStorage   Channel = "storage"   // Object store operations and folder moves

	// Infrastructure channels
	ChannelDatabase Channel = "database" // Database operations and queries
)

var allChannels = []Channel{
	ChannelSystem, ChannelStartup, ChannelShutdown,
	ChannelAuth, ChannelContent, ChannelCache, ChannelIntegrity, ChannelStorage,
	ChannelDatabase,
}

// ChanneledLogger provides structured logging with multiple channels
type ChanneledLogger struct {
	channels map[Channel]*slog.Logger
	writers  map[Channel]io.Writer
	config   *LoggerConfig
	closers  []io.Closer
	configMu sync.RWMutex
}

// LoggerConfig contains configuration options for the channeled logger
type LoggerConfig struct {
	OutputToFile    bool   `json:"outputToFile"`
	OutputToConsole bool   `json:"outputToConsole"`
	LogDirectory    string `json:"logDirectory"`

	// Rotation settings handed to lumberjack
	MaxSizeMB  int  `json:"maxSizeMb"`
	MaxBackups int  `json:"maxBackups"`
	MaxAgeDays int  `json:"maxAgeDays"`
	Compress   bool `json:"compress"`

	JSONFormat    bool `json:"jsonFormat"`
	IncludeSource bool `json:"includeSource"`

	DefaultLevel  slog.Level             `json:"defaultLevel"`
	ChannelLevels map[Channel]slog.Level `json:"channelLevels"`

	// Writer overrides console and file output when set.
	Writer io.Writer `json:"-"`
}

// DefaultLoggerConfig returns a sensible default configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		OutputToFile:    true,
		OutputToConsole: true,
		LogDirectory:    "logs",
		MaxSizeMB:       50,
		MaxBackups:      5,
		MaxAgeDays:      28,
		Compress:        true,
		JSONFormat:      true,
		IncludeSource:   false,
		DefaultLevel:    slog.LevelInfo,
		ChannelLevels:   make(map[Channel]slog.Level),
	}
}

// NewChanneledLogger creates a new channeled logger with the given configuration
func NewChanneledLogger(config *LoggerConfig) (*ChanneledLogger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if config.ChannelLevels == nil {
		config.ChannelLevels = make(map[Channel]slog.Level)
	}

	logger := &ChanneledLogger{
		channels: make(map[Channel]*slog.Logger),
		writers:  make(map[Channel]io.Writer),
		config:   config,
	}

	if config.OutputToFile && config.Writer == nil {
		if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	logger.configMu.Lock()
	defer logger.configMu.Unlock()
	for _, channel := range allChannels {
		logger.channels[channel] = logger.createChannelLogger(channel)
	}

	return logger, nil
}

// NewNopLogger returns a logger that discards everything. Used by tests and the CLI's quiet mode.
func NewNopLogger() *ChanneledLogger {
	logger, _ := NewChanneledLogger(&LoggerConfig{Writer: io.Discard, DefaultLevel: slog.LevelError})
	return logger
}

// createChannelLogger creates a slog.Logger for a specific channel. The channel's
// output is opened once and reused when the logger is rebuilt. Callers hold configMu.
func (cl *ChanneledLogger) createChannelLogger(channel Channel) *slog.Logger {
	level := cl.config.DefaultLevel
	if channelLevel, exists := cl.config.ChannelLevels[channel]; exists {
		level = channelLevel
	}

	writer, exists := cl.writers[channel]
	if !exists {
		writer = cl.openChannelWriter(channel)
		cl.writers[channel] = writer
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cl.config.IncludeSource,
	}

	var handler slog.Handler
	if cl.config.JSONFormat {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return slog.New(handler).With(slog.String("channel", string(channel)))
}

func (cl *ChanneledLogger) openChannelWriter(channel Channel) io.Writer {
	var writers []io.Writer
	if cl.config.Writer != nil {
		writers = append(writers, cl.config.Writer)
	} else {
		if cl.config.OutputToConsole {
			writers = append(writers, os.Stdout)
		}
		if cl.config.OutputToFile {
			rotating := &lumberjack.Logger{
				Filename:   filepath.Join(cl.config.LogDirectory, string(channel)+".log"),
				MaxSize:    cl.config.MaxSizeMB,
				MaxBackups: cl.config.MaxBackups,
				MaxAge:     cl.config.MaxAgeDays,
				Compress:   cl.config.Compress,
			}
			cl.closers = append(cl.closers, rotating)
			writers = append(writers, rotating)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stdout
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

func (cl *ChanneledLogger) System() *slog.Logger    { return cl.GetChannel(ChannelSystem) }
func (cl *ChanneledLogger) Startup() *slog.Logger   { return cl.GetChannel(ChannelStartup) }
func (cl *ChanneledLogger) Shutdown() *slog.Logger  { return cl.GetChannel(ChannelShutdown) }
func (cl *ChanneledLogger) Auth() *slog.Logger      { return cl.GetChannel(ChannelAuth) }
func (cl *ChanneledLogger) Content() *slog.Logger   { return cl.GetChannel(ChannelContent) }
func (cl *ChanneledLogger) Cache() *slog.Logger     { return cl.GetChannel(ChannelCache) }
func (cl *ChanneledLogger) Integrity() *slog.Logger { return cl.GetChannel(ChannelIntegrity) }
func (cl *ChanneledLogger) Storage() *slog.Logger   { return cl.GetChannel(ChannelStorage) }
func (cl *ChanneledLogger) Database() *slog.Logger  { return cl.GetChannel(ChannelDatabase) }

// GetChannel returns a logger for a specific channel
func (cl *ChanneledLogger) GetChannel(channel Channel) *slog.Logger {
	cl.configMu.RLock()
	defer cl.configMu.RUnlock()
	if logger, exists := cl.channels[channel]; exists {
		return logger
	}
	return cl.channels[ChannelSystem]
}

// LogSlowQuery logs a slow database query
func (cl *ChanneledLogger) LogSlowQuery(query string, duration time.Duration) {
	if len(query) > 500 {
		query = query[:500] + "..."
	}
	cl.Database().Warn("Slow query detected",
		slog.String("query", query),
		slog.Duration("duration", duration),
	)
}

// LogError logs an error with appropriate context and channel
func (cl *ChanneledLogger) LogError(channel Channel, operation string, err error, metadata map[string]any) {
	logger := cl.GetChannel(channel).With(
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
	for key, value := range metadata {
		logger = logger.With(slog.Any(key, value))
	}
	logger.Error("Operation failed")
}

// LogStartupPhase logs application startup phases
func (cl *ChanneledLogger) LogStartupPhase(phase string, duration time.Duration, success bool) {
	logger := cl.Startup().With(
		slog.String("phase", phase),
		slog.Duration("duration", duration),
		slog.Bool("success", success),
	)
	if success {
		logger.Info("Startup phase completed")
	} else {
		logger.Error("Startup phase failed")
	}
}

// SetChannelLevel dynamically sets the log level for a specific channel
func (cl *ChanneledLogger) SetChannelLevel(channel Channel, level slog.Level) error {
	cl.configMu.Lock()
	if _, exists := cl.channels[channel]; !exists {
		cl.configMu.Unlock()
		return fmt.Errorf("channel %s does not exist", channel)
	}
	cl.config.ChannelLevels[channel] = level
	cl.channels[channel] = cl.createChannelLogger(channel)
	cl.configMu.Unlock()

	cl.System().Info("Channel log level updated",
		slog.String("channel", string(channel)),
		slog.String("level", level.String()),
	)
	return nil
}

// Close flushes and closes rotating log files
func (cl *ChanneledLogger) Close() error {
	cl.System().Info("Channeled logger shutting down")
	var firstErr error
	for _, c := range cl.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
