package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

type Field struct {
	Key   string
	Value any
}

// Logger writes logfmt lines. Implementations are safe for concurrent use.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

type logfmtLogger struct {
	out    io.Writer
	level  Level
	fields []Field
	now    func() time.Time
	mu     *sync.Mutex
}

func New(out io.Writer, level Level) Logger {
	if out == nil {
		out = os.Stderr
	}
	return &logfmtLogger{out: out, level: level, now: time.Now, mu: &sync.Mutex{}}
}

func Nop() Logger {
	return &logfmtLogger{out: io.Discard, level: Error + 1, now: time.Now, mu: &sync.Mutex{}}
}

// OpenFile appends to the log file at path, creating its directory. The
// returned closer must be closed by the caller.
func OpenFile(path string, level Level) (Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return New(file, level), file, nil
}

func (l *logfmtLogger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return level >= l.level
}

func (l *logfmtLogger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	return &logfmtLogger{
		out:    l.out,
		level:  l.level,
		fields: append(append([]Field{}, l.fields...), fields...),
		now:    l.now,
		mu:     l.mu,
	}
}

func (l *logfmtLogger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *logfmtLogger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *logfmtLogger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *logfmtLogger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

func (l *logfmtLogger) log(level Level, msg string, fields ...Field) {
	if !l.Enabled(level) {
		return
	}
	var b strings.Builder
	writePair(&b, "ts", l.now().UTC().Format(time.RFC3339Nano))
	writePair(&b, "level", level.String())
	writePair(&b, "msg", msg)
	for _, field := range l.fields {
		writePair(&b, field.Key, field.Value)
	}
	for _, field := range fields {
		writePair(&b, field.Key, field.Value)
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, b.String())
}

func writePair(b *strings.Builder, key string, value any) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatValue(value))
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quoteIfNeeded(v)
	case error:
		return quoteIfNeeded(v.Error())
	case time.Duration:
		return v.String()
	case fmt.Stringer:
		return quoteIfNeeded(v.String())
	case bool:
		return strconv.FormatBool(v)
	case int, int64, int32, uint, uint64, uint32, float64, float32:
		return fmt.Sprintf("%v", v)
	default:
		return quoteIfNeeded(fmt.Sprintf("%v", v))
	}
}

func quoteIfNeeded(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t\n\r\"=") {
		return strconv.Quote(value)
	}
	return value
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Err(err error) Field {
	return Field{Key: "err", Value: err}
}

// Redact keeps only the last four characters of a secret.
func Redact(secret string) string {
	secret = strings.TrimSpace(secret)
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
