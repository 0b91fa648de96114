// Package observability owns the process-wide structured logger. Every
// component receives a *zap.Logger (usually Named per package); this package
// only decides where those entries go and how they are rendered.
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotalabs/rotalabs-graph/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

const ansiReset = "\x1b[0m"

// levelColors maps each level to a fixed ANSI color for console output.
// Unlisted levels render uncolored.
var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel: "\x1b[36m", // cyan
	zapcore.InfoLevel:  "\x1b[32m", // green
	zapcore.WarnLevel:  "\x1b[33m", // yellow
	zapcore.ErrorLevel: "\x1b[31m", // red
	zapcore.FatalLevel: "\x1b[35m", // magenta
}

// InitializeLogger builds the global logger from configuration. The first
// call wins; later calls are no-ops, so the CLI can initialize eagerly in its
// root command without worrying about re-entry.
func InitializeLogger(cfg config.LoggerConfig) {
	once.Do(func() {
		level := parseLevel(cfg.Level)

		cores := []zapcore.Core{
			zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(os.Stdout), level),
		}
		if cfg.LogFile != "" {
			// The rotating file core is always JSON regardless of the console
			// format, so downstream tooling never has to strip color codes.
			fileWriter := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
			cores = append(cores, zapcore.NewCore(newEncoder("json"), fileWriter, level))
		}

		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}

		logger := zap.New(zapcore.NewTee(cores...), options...).Named(cfg.ServiceName)
		globalLogger.Store(logger)

		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// parseLevel interprets the configured level string, falling back to info
// rather than failing startup over a typo.
func parseLevel(text string) zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(text)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}
	return level
}

// colorizedLevelEncoder renders the level name wrapped in its fixed ANSI
// color. It matches the zapcore.LevelEncoder signature.
func colorizedLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	name := strings.ToUpper(level.String())
	color, ok := levelColors[level]
	if !ok {
		enc.AppendString(name)
		return
	}
	enc.AppendString(color + name + ansiReset)
}

// newEncoder returns the console encoder with colorized levels, or a plain
// JSON encoder for any other format.
func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		encoderConfig.EncodeLevel = colorizedLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// GetLogger returns the global logger, or a development logger when called
// before initialization (tests, mostly).
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("fallback")
}

// Sync flushes buffered entries. Called once on shutdown.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil {
		// The logger itself is what failed, so stderr is the only channel left.
		fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
	}
}
