// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "options-trader", "logs", "trader.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// SetDebugLevel raises the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		writers = append(writers, consoleWriter)
	}

	// File writer with rotation
	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	if len(writers) == 0 {
		writer = os.Stdout
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithIndex adds an index symbol to the logger context.
func WithIndex(logger zerolog.Logger, index string) zerolog.Logger {
	return logger.With().Str("index", index).Logger()
}

// WithStrategy adds a strategy name to the logger context.
func WithStrategy(logger zerolog.Logger, strategy string) zerolog.Logger {
	return logger.With().Str("strategy", strategy).Logger()
}

// LogSelection logs a strategy-selection event.
func LogSelection(logger zerolog.Logger, index, strategy, state string, confidence float64, reason string) {
	logger.Info().
		Str("event", "selection").
		Str("index", index).
		Str("strategy", strategy).
		Str("market_state", state).
		Float64("confidence", confidence).
		Str("reason", reason).
		Msg("Strategy selected")
}

// LogLeg logs a single leg submission.
func LogLeg(logger zerolog.Logger, symbol, side string, qty int, price float64, err error) {
	if err != nil {
		logger.Warn().
			Str("event", "leg").
			Str("symbol", symbol).
			Str("side", side).
			Int("quantity", qty).
			Float64("price", price).
			Err(err).
			Msg("Leg failed")
		return
	}
	logger.Info().
		Str("event", "leg").
		Str("symbol", symbol).
		Str("side", side).
		Int("quantity", qty).
		Float64("price", price).
		Msg("Leg filled")
}

// LogExecution logs the outcome of an execution attempt.
func LogExecution(logger zerolog.Logger, index, strategy string, lots int, premium float64, success bool, errorCode string) {
	event := logger.Info().
		Str("event", "execution").
		Str("index", index).
		Str("strategy", strategy).
		Int("lots", lots).
		Float64("premium", premium).
		Bool("success", success)
	if errorCode != "" {
		event = event.Str("error_code", errorCode)
	}
	if success {
		event.Msg("Execution completed")
	} else {
		event.Msg("Execution failed")
	}
}
