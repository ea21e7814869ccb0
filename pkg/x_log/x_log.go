// file: gate/pkg/x_log/x_log.go

// Package x_log configures the process-wide zerolog logger from the
// environment: console output (styled when attached to a TTY) or JSON,
// with an optional rotated file sink.
package x_log

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

//---------------------
// Environment
//---------------------

const (
	EnvKeyLogLevel      = "GATE_LOG_LEVEL"
	EnvKeyLogFormat     = "GATE_LOG_FORMAT"
	EnvLogConsoleStream = "GATE_LOG_CONSOLE_STREAM"
	EnvLogFilePath      = "GATE_LOG_FILE"
	EnvLogFileMaxMB     = "GATE_LOG_FILE_MAX_MB"
	EnvLogFileMaxAge    = "GATE_LOG_FILE_MAX_AGE"
	EnvLogFileBackups   = "GATE_LOG_FILE_BACKUPS"
	EnvLogFileCompress  = "GATE_LOG_FILE_COMPRESS"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

//---------------------
// Globals
//---------------------

var (
	mu         sync.RWMutex
	rootLogger zerolog.Logger
)

func init() {
	rootLogger = newRootLogger()
}

func newRootLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(envOr(EnvKeyLogLevel, DefaultLogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var sinks []io.Writer

	stream := consoleStream()
	switch strings.ToLower(envOr(EnvKeyLogFormat, DefaultLogFormat)) {
	case "json":
		sinks = append(sinks, stream)
	default:
		sinks = append(sinks, consoleWriter(stream))
	}

	if path := os.Getenv(EnvLogFilePath); path != "" {
		sinks = append(sinks, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    envInt(EnvLogFileMaxMB, 100),
			MaxAge:     envInt(EnvLogFileMaxAge, 7),
			MaxBackups: envInt(EnvLogFileBackups, 3),
			Compress:   envBool(EnvLogFileCompress),
		})
	}

	return zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(level).
		With().Timestamp().
		Logger()
}

func consoleStream() *os.File {
	if strings.ToLower(os.Getenv(EnvLogConsoleStream)) == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

func consoleWriter(stream *os.File) io.Writer {
	w := zerolog.ConsoleWriter{
		Out:        stream,
		TimeFormat: "01-02 15:04:05",
		NoColor:    !isatty.IsTerminal(stream.Fd()),
	}
	ApplyStyles(&w, DefaultStyles())
	return w
}

//---------------------
// Accessors
//---------------------

// Logger returns the root logger for components that keep their own child
// logger (the idiomatic way: x_log.Logger().With().Str("comp", ...).Logger()).
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return rootLogger
}

// SetLogger replaces the root logger; tests use this to capture output.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	rootLogger = l
}

// SetLevel adjusts the root level at runtime.
func SetLevel(level string) error {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	rootLogger = rootLogger.Level(parsed)
	return nil
}

// Chained-event shortcuts on the root logger.

func Trace() *zerolog.Event { l := Logger(); return l.Trace() }
func Debug() *zerolog.Event { l := Logger(); return l.Debug() }
func Info() *zerolog.Event  { l := Logger(); return l.Info() }
func Warn() *zerolog.Event  { l := Logger(); return l.Warn() }
func Error() *zerolog.Event { l := Logger(); return l.Error() }

//---------------------
// Env helpers
//---------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
