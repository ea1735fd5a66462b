package logger

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

var (
	logger  Logger
	sLogger *slog.Logger
)

// Logger is the printf-style diagnostics surface used across the module.
type Logger interface {
	Debugf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
	Fatalf(msg string, args ...interface{})
}

type ZapLogger struct {
	Logger       *zap.Logger
	loggerConfig zap.Config
}

type optionFunc func(*ZapLogger)

type runIDKey struct{}

// WithRunID stores the run identifier in ctx so context-aware log lines carry it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the run identifier stored by WithRunID, or "".
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// RunIDAttrs is an AttrFromCtx extractor for NewSLoggerFromZap.
func RunIDAttrs(ctx context.Context) []slog.Attr {
	if id := RunID(ctx); id != "" {
		return []slog.Attr{slog.String("run_id", id)}
	}
	return nil
}

// InitLogger installs a production zap logger unless one is already set.
func InitLogger(opts ...optionFunc) error {
	if logger != nil {
		return nil
	}
	_, err := NewZapLogger(opts...)
	return err
}

// NewZapLogger builds the global logger. Once set, later calls return it unchanged.
func NewZapLogger(opts ...optionFunc) (*ZapLogger, error) {
	if zl, ok := logger.(*ZapLogger); ok {
		return zl, nil
	}
	zl := &ZapLogger{loggerConfig: zap.NewProductionConfig()}
	for _, opt := range opts {
		opt(zl)
	}
	built, err := zl.loggerConfig.Build()
	if err != nil {
		return nil, err
	}
	zl.Logger = built
	logger = zl
	return zl, nil
}

// NewZapLoggerForTest routes log output through t.Log.
func NewZapLoggerForTest(t *testing.T) *ZapLogger {
	return &ZapLogger{
		Logger: zaptest.NewLogger(t),
	}
}

// SetLogger replaces the global logger and drops the cached slog bridge.
func SetLogger(l Logger) {
	logger = l
	sLogger = nil
}

func WithLevel(level zapcore.Level) optionFunc {
	return func(zl *ZapLogger) {
		zl.loggerConfig.Level = zap.NewAtomicLevelAt(level)
	}
}

func WithEncodeTime(timeKey string, timeEncoder zapcore.TimeEncoder) optionFunc {
	return func(zl *ZapLogger) {
		zl.loggerConfig.EncoderConfig.TimeKey = timeKey
		zl.loggerConfig.EncoderConfig.EncodeTime = timeEncoder
	}
}

// WithEncoding switches between "json" and "console" output.
func WithEncoding(encoding string) optionFunc {
	return func(zl *ZapLogger) {
		zl.loggerConfig.Encoding = encoding
		if encoding == "console" {
			zl.loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
}

// WithOutputPaths redirects log output, e.g. to keep stdout free for the console UI.
func WithOutputPaths(paths ...string) optionFunc {
	return func(zl *ZapLogger) {
		zl.loggerConfig.OutputPaths = paths
	}
}

type LevelAdapter struct {
	ZapLevel zapcore.Level
}

func (l LevelAdapter) Level() slog.Level {
	switch l.ZapLevel {
	case zapcore.DebugLevel:
		return slog.LevelDebug
	case zapcore.WarnLevel:
		return slog.LevelWarn
	case zapcore.ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type OptSLogger struct {
	AttrFromCtx []func(ctx context.Context) []slog.Attr
	ZapLevel    zapcore.Level
}

func NewSLoggerFromZap(zapLogger *zap.Logger, opts *OptSLogger) *slog.Logger {
	if sLogger != nil {
		return sLogger
	}
	sLogger = slog.New(slogzap.Option{
		Logger:          zapLogger,
		Level:           LevelAdapter{ZapLevel: opts.ZapLevel},
		AttrFromContext: opts.AttrFromCtx,
	}.NewZapHandler())
	return sLogger
}

// contextLogger lazily bridges the global zap logger so context helpers
// work even when main never built the slog handler (tests, tools).
func contextLogger() *slog.Logger {
	if sLogger != nil {
		return sLogger
	}
	zl, ok := logger.(*ZapLogger)
	if !ok || zl == nil || zl.Logger == nil {
		return slog.Default()
	}
	return NewSLoggerFromZap(zl.Logger, &OptSLogger{
		AttrFromCtx: []func(ctx context.Context) []slog.Attr{RunIDAttrs},
		ZapLevel:    zl.Logger.Level(),
	})
}

// Context helpers take slog-style key/value pairs and attach the run ID.

func DebugContext(ctx context.Context, msg string, args ...interface{}) {
	contextLogger().DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...interface{}) {
	contextLogger().InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...interface{}) {
	contextLogger().WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	contextLogger().ErrorContext(ctx, msg, args...)
}

func GetLogger() Logger {
	return logger
}

// Sync flushes buffered entries; errors from syncing a terminal are ignored.
func Sync() {
	if zl, ok := logger.(*ZapLogger); ok && zl != nil && zl.Logger != nil {
		_ = zl.Logger.Sync()
	}
}

func Debugf(msg string, args ...interface{}) {
	logger.Debugf(msg, args...)
}

func Infof(msg string, args ...interface{}) {
	logger.Infof(msg, args...)
}

func Warnf(msg string, args ...interface{}) {
	logger.Warnf(msg, args...)
}

func Errorf(msg string, args ...interface{}) {
	logger.Errorf(msg, args...)
}

func Fatalf(msg string, args ...interface{}) {
	logger.Fatalf(msg, args...)
}

func (l *ZapLogger) Debugf(msg string, args ...interface{}) {
	l.Logger.Sugar().Debugf(msg, args...)
}

func (l *ZapLogger) Infof(msg string, args ...interface{}) {
	l.Logger.Sugar().Infof(msg, args...)
}

func (l *ZapLogger) Warnf(msg string, args ...interface{}) {
	l.Logger.Sugar().Warnf(msg, args...)
}

func (l *ZapLogger) Errorf(msg string, args ...interface{}) {
	l.Logger.Sugar().Errorf(msg, args...)
}

func (l *ZapLogger) Fatalf(msg string, args ...interface{}) {
	l.Logger.Sugar().Fatalf(msg, args...)
}

// NewLogger builds the process logger from the configured level. Diagnostics go to
// stderr in console encoding so they never interleave with the claim report on stdout.
func NewLogger(loggerType string, loggerLevel string) (Logger, error) {
	switch loggerType {
	case "zap":
		zapLevel, err := zapcore.ParseLevel(loggerLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to parse logger level: %v", err)
		}
		return NewZapLogger(
			WithLevel(zapLevel),
			WithEncodeTime("timestamp", zapcore.ISO8601TimeEncoder),
			WithEncoding("console"),
			WithOutputPaths("stderr"),
		)
	default:
		return nil, fmt.Errorf("unsupported logger type: %s", loggerType)
	}
}
