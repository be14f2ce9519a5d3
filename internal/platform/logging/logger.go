package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// Logger is a thin key/value facade over zap. Args are alternating key, value pairs.
type Logger struct {
	zap    *zap.Logger
	closed *atomic.Bool
}

var defaultLogger atomic.Pointer[Logger]

// MirrorFunc receives every entry that passes the level check, e.g. to forward it to an
// OpenTelemetry log exporter.
type MirrorFunc func(ctx context.Context, level Level, msg string, args ...any)

var mirror atomic.Pointer[MirrorFunc]

// SetMirror installs fn for all loggers. Nil removes it.
func SetMirror(fn MirrorFunc) {
	if fn == nil {
		mirror.Store(nil)
		return
	}
	mirror.Store(&fn)
}

func init() {
	defaultLogger.Store(NewNop())
}

// ParseLevel accepts debug, info, warn/warning and error. Anything else maps to info.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func NewJSON(level Level) *Logger {
	return NewJSONWriter(level, os.Stdout)
}

// NewJSONWriter writes JSON lines to w. Tests use it with a bytes.Buffer.
func NewJSONWriter(level Level, w io.Writer) *Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)

	return FromZap(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2), zap.AddStacktrace(zapcore.ErrorLevel)))
}

func NewNop() *Logger {
	return FromZap(zap.NewNop())
}

func FromZap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{zap: z, closed: &atomic.Bool{}}
}

func Default() *Logger {
	if logger := defaultLogger.Load(); logger != nil {
		return logger
	}
	return NewNop()
}

func SetDefault(logger *Logger) {
	if logger == nil {
		logger = NewNop()
	}
	defaultLogger.Store(logger)
}

func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.zap == nil {
		return zap.NewNop()
	}
	return l.zap
}

func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	if l.closed.CompareAndSwap(false, true) {
		return l.zap.Sync()
	}
	return nil
}

func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return Default().With(args...)
	}
	return &Logger{zap: l.zap.With(zapFields(args)...), closed: l.closed}
}

// Named tags every entry with a component name, e.g. "reconcile" or "espn".
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return Default().Named(component)
	}
	return &Logger{zap: l.zap.Named(component), closed: l.closed}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.logContext(context.Background(), zap.DebugLevel, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.logContext(context.Background(), zap.InfoLevel, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.logContext(context.Background(), zap.WarnLevel, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.logContext(context.Background(), zap.ErrorLevel, msg, args...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logContext(ctx, zap.DebugLevel, msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logContext(ctx, zap.InfoLevel, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logContext(ctx, zap.WarnLevel, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logContext(ctx, zap.ErrorLevel, msg, args...)
}

func (l *Logger) logContext(ctx context.Context, level zapcore.Level, msg string, args ...any) {
	logger := l
	if logger == nil {
		logger = Default()
	}
	ce := logger.zap.Check(level, msg)
	if ce == nil {
		return
	}
	fields := zapFields(args)
	fields = append(fields, traceFields(ctx)...)
	ce.Write(fields...)

	if fn := mirror.Load(); fn != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		(*fn)(ctx, level, msg, args...)
	}
}

func traceFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	}
}

func zapFields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, (len(args)+1)/2+2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg"
		}

		if i+1 >= len(args) {
			out = append(out, zap.Any(key, nil))
			break
		}

		switch value := args[i+1].(type) {
		case error:
			out = append(out, zap.NamedError(key, value))
		case string:
			out = append(out, zap.String(key, value))
		case int:
			out = append(out, zap.Int(key, value))
		default:
			out = append(out, zap.Any(key, value))
		}
	}

	return out
}
