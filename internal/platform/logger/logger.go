package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin wrapper around zap that threads a context through every
// call site so request-scoped fields can be attached later without changing
// signatures.
type Logger struct {
	zl *zap.Logger
}

var (
	mu     sync.RWMutex
	global = &Logger{zl: zap.NewNop()}
)

// Init builds the global logger. level is one of debug|info|warn|error,
// asJSON switches between the production JSON encoder and the console one.
func Init(level string, asJSON bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logger: parse level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if asJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)

	mu.Lock()
	global = &Logger{zl: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
	mu.Unlock()

	return nil
}

// SetNopLogger silences the global logger, used by tests.
func SetNopLogger() {
	mu.Lock()
	global = &Logger{zl: zap.NewNop()}
	mu.Unlock()
}

// L returns the global logger.
func L() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// With returns a logger scoped with the given fields.
func With(fields ...Field) *Logger {
	return &Logger{zl: L().zl.With(fields...)}
}

func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{zl: l.zl.With(fields...)}
}

func (l *Logger) Debug(_ context.Context, msg string, fields ...Field) {
	l.zl.Debug(msg, fields...)
}

func (l *Logger) Info(_ context.Context, msg string, fields ...Field) {
	l.zl.Info(msg, fields...)
}

func (l *Logger) Warn(_ context.Context, msg string, fields ...Field) {
	l.zl.Warn(msg, fields...)
}

func (l *Logger) Error(_ context.Context, msg string, fields ...Field) {
	l.zl.Error(msg, fields...)
}

func (l *Logger) Fatal(_ context.Context, msg string, fields ...Field) {
	l.zl.Fatal(msg, fields...)
}

func Debug(ctx context.Context, msg string, fields ...Field) { L().Debug(ctx, msg, fields...) }
func Info(ctx context.Context, msg string, fields ...Field)  { L().Info(ctx, msg, fields...) }
func Warn(ctx context.Context, msg string, fields ...Field)  { L().Warn(ctx, msg, fields...) }
func Error(ctx context.Context, msg string, fields ...Field) { L().Error(ctx, msg, fields...) }
func Fatal(ctx context.Context, msg string, fields ...Field) { L().Fatal(ctx, msg, fields...) }

// Sync flushes buffered log entries.
func Sync() error { return L().zl.Sync() }
