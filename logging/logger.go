package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Meta is the optional metadata attached to a log record under the "meta" key.
type Meta map[string]any

// Level is the severity of a log record.
type Level = zerolog.Level

// Supported levels.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Record field names.
const (
	EventFieldName     = "event"
	TimestampFieldName = "timestamp"
	MetaFieldName      = "meta"
)

// timestampFormat is ISO-8601 with millisecond precision.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Config configures a Logger.
type Config struct {
	// Level is the minimum emitted level (e.g. "debug", "info", "warn").
	// Default: "info"
	Level string

	// Writer receives one JSON document per line.
	// Default: os.Stdout
	Writer io.Writer

	// Fields are static fields added to every record (e.g. service name).
	// They pass through the same redaction as meta.
	Fields Meta
}

// Logger emits structured JSON records with PHI redaction applied to the
// metadata of every record.
//
// Logging is best-effort: no method returns an error or panics, and a failed
// write is dropped.
//
// Example:
//
//	logger, err := logging.New(logging.Config{Level: os.Getenv("LOG_LEVEL")})
//	if err != nil {
//	    return err
//	}
//	logger.Info("http_request", logging.Meta{"method": "GET", "patient_id": "123"})
//	// {"level":"info","timestamp":"...","event":"http_request","meta":{"method":"GET","patient_id":"[REDACTED]"}}
type Logger struct {
	zl  zerolog.Logger
	now func() time.Time
}

// New creates a Logger from cfg.
//
// Returns an error if cfg.Level is not a recognised level name.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	zctx := zerolog.New(zerolog.SyncWriter(bestEffortWriter{w})).Level(level).With()
	if len(cfg.Fields) > 0 {
		zctx = zctx.Fields(map[string]any(Redact(cfg.Fields)))
	}

	return &Logger{
		zl:  zctx.Logger(),
		now: time.Now,
	}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), now: time.Now}
}

// With returns a child Logger that adds fields to every record.
func (l *Logger) With(fields Meta) *Logger {
	if len(fields) == 0 {
		return l
	}
	return &Logger{
		zl:  l.zl.With().Fields(map[string]any(Redact(fields))).Logger(),
		now: l.now,
	}
}

// Level returns the minimum emitted level.
func (l *Logger) Level() Level {
	return l.zl.GetLevel()
}

// Enabled reports whether a record at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return l.zl.GetLevel() <= level && level != zerolog.Disabled
}

// Log emits one record named event at level. meta may be nil, in which case
// the record carries no "meta" object.
func (l *Logger) Log(level Level, event string, meta Meta) {
	defer func() {
		// Logging never panics into the caller.
		_ = recover()
	}()

	e := l.zl.WithLevel(level)
	if e == nil {
		return
	}

	e.Str(TimestampFieldName, l.now().UTC().Format(timestampFormat)).
		Str(EventFieldName, event)

	if meta != nil {
		e.Dict(MetaFieldName, zerolog.Dict().Fields(map[string]any(Redact(meta))))
	}

	e.Send()
}

// Debug emits a debug record.
func (l *Logger) Debug(event string, meta ...Meta) {
	l.Log(DebugLevel, event, firstMeta(meta))
}

// Info emits an info record.
func (l *Logger) Info(event string, meta ...Meta) {
	l.Log(InfoLevel, event, firstMeta(meta))
}

// Warn emits a warn record.
func (l *Logger) Warn(event string, meta ...Meta) {
	l.Log(WarnLevel, event, firstMeta(meta))
}

// Error emits an error record.
func (l *Logger) Error(event string, meta ...Meta) {
	l.Log(ErrorLevel, event, firstMeta(meta))
}

func firstMeta(meta []Meta) Meta {
	if len(meta) == 0 {
		return nil
	}
	return meta[0]
}

// bestEffortWriter reports every write as successful so a broken sink never
// surfaces to callers.
type bestEffortWriter struct {
	w io.Writer
}

func (b bestEffortWriter) Write(p []byte) (int, error) {
	_, _ = b.w.Write(p)
	return len(p), nil
}
