package logger

import (
	"fmt"
	"time"

	"github.com/leandrodaf/synthctl/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of Uber's zap logger.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel // Shared with every child created by Named or With.
}

// NewZapLogger creates a production zap logger writing JSON to stderr at info level.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zl, err := build(level, "stderr")
	if err != nil {
		// The stderr sink cannot fail to open; keep a usable logger regardless.
		zl = zap.NewNop()
	}
	return &ZapLogger{logger: zl, level: level}
}

// New wraps an existing zap logger. Level filtering is left to the logger's
// core until SetLevel is called.
func New(zl *zap.Logger) *ZapLogger {
	return &ZapLogger{
		logger: zl.WithOptions(zap.AddCallerSkip(2)),
		level:  zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
}

// NewNop returns a logger that discards everything.
func NewNop() contracts.Logger {
	return New(zap.NewNop())
}

func build(level zap.AtomicLevel, path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build(zap.AddCallerSkip(2))
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// Named returns a child logger tagged with name.
func (z *ZapLogger) Named(name string) contracts.Logger {
	return &ZapLogger{logger: z.logger.Named(name), level: z.level}
}

// With returns a child logger carrying fields on every entry.
func (z *ZapLogger) With(fields ...contracts.Field) contracts.Logger {
	return &ZapLogger{logger: z.logger.With(toZap(fields)...), level: z.level}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(zapLevel(level))
}

// SetDestination redirects output to the console or to a file. Children created
// before the call keep writing to the previous destination.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) error {
	path := "stderr"
	if dest == contracts.FileLog {
		if len(filePath) == 0 || filePath[0] == "" {
			return fmt.Errorf("file destination requires a path")
		}
		path = filePath[0]
	}

	zl, err := build(z.level, path)
	if err != nil {
		return fmt.Errorf("open log destination %q: %w", path, err)
	}
	_ = z.logger.Sync()
	z.logger = zl
	return nil
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.level.Enabled(level) {
		return
	}
	if ce := z.logger.Check(level, msg); ce != nil {
		ce.Write(toZap(fields)...)
	}
}

func zapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZap(fields []contracts.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(*zapField); ok && f.set {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
	set   bool
}

func wrap(f zap.Field) contracts.Field {
	return &zapField{field: f, set: true}
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return wrap(zap.Bool(key, val))
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return wrap(zap.Int(key, val))
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return wrap(zap.Float64(key, val))
}

func (f *zapField) String(key string, val string) contracts.Field {
	return wrap(zap.String(key, val))
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return wrap(zap.Time(key, val))
}

func (f *zapField) Duration(key string, val time.Duration) contracts.Field {
	return wrap(zap.Duration(key, val))
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return wrap(zap.Int64(key, val))
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return wrap(zap.NamedError(key, val))
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return wrap(zap.Uint64(key, val))
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return wrap(zap.Uint8(key, val))
}
