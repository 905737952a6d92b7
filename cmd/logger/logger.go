package logger

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"time"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// LogLevel represents the log level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration
type Config struct {
	Level  LogLevel `toml:"level"`
	Format string   `toml:"format"` // "json" or "text"
	Output string   `toml:"output"` // "stdout", "stderr", or file path
}

// NewFromConfigStruct creates a logger from a config struct with string level
func NewFromConfigStruct(level, format, output string) *Logger {
	return New(&Config{
		Level:  LogLevel(level),
		Format: format,
		Output: output,
	})
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "json",
		Output: "stdout",
	}
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	var output io.Writer
	switch config.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		// Fall back to stdout if the file cannot be opened
		if file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640); err == nil {
			output = file
		} else {
			output = os.Stdout
		}
	}

	return NewWithWriter(config, output)
}

// NewWithWriter creates a logger writing to w, ignoring config.Output
func NewWithWriter(config *Config, w io.Writer) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(config.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

func parseLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Global logger instance
var defaultLogger *Logger

// Init initializes the global logger
func Init(config *Config) {
	defaultLogger = New(config)
}

// SetDefault replaces the global logger
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Default returns the default logger, creating one if it doesn't exist
func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = New(DefaultConfig())
	}
	return defaultLogger
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}

// With returns a logger with additional context
func With(args ...any) *Logger {
	return &Logger{Logger: Default().With(args...)}
}

// LogRequest logs an HTTP request with structured data
func (l *Logger) LogRequest(method, path, userAgent string, duration time.Duration, statusCode int) {
	l.Info("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("user_agent", userAgent),
		slog.String("duration", duration.String()),
		slog.Int("status_code", statusCode),
	)
}

// LogStartup logs that the listener is bound and serving
func (l *Logger) LogStartup(port int, configFile string, database string) {
	l.Info("mongo status service listening",
		slog.Int("port", port),
		slog.String("config_file", configFile),
		slog.String("database", database),
		slog.String("version", "dev"),
	)
}

// LogConnect logs a database connection attempt. The URL is redacted.
func (l *Logger) LogConnect(url string) {
	l.Info("connecting to database",
		slog.String("url", RedactURL(url)),
	)
}

// LogError logs errors with context
func (l *Logger) LogError(operation string, err error, context ...any) {
	args := []any{
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	}
	args = append(args, context...)
	l.Error("operation failed", args...)
}

// LogConfig logs configuration loading
func (l *Logger) LogConfig(configPath string, fileFound bool, envOverrides []string) {
	l.Info("configuration loaded",
		slog.String("config_path", configPath),
		slog.Bool("file_found", fileFound),
		slog.Any("env_overrides", envOverrides),
	)
}

var credentialsPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*://[^:@/]*):[^@/]*@`)

// RedactURL masks the password of a connection URL
func RedactURL(url string) string {
	return credentialsPattern.ReplaceAllString(url, "${1}:xxxxx@")
}
