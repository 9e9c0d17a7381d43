package utils

import (
	"encoding"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ErrUnknownLogLevel = errors.New("unknown log level (known: debug, info, warn, error)")

// LogLevel is settable from flags (pflag.Value) and from config files (encoding.TextUnmarshaler).
type LogLevel int

var (
	_ pflag.Value              = (*LogLevel)(nil)
	_ encoding.TextUnmarshaler = (*LogLevel)(nil)
	_ encoding.TextMarshaler   = LogLevel(0)
)

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var logLevels = [...]struct {
	name string
	zap  zapcore.Level
}{
	DEBUG: {"debug", zapcore.DebugLevel},
	INFO:  {"info", zapcore.InfoLevel},
	WARN:  {"warn", zapcore.WarnLevel},
	ERROR: {"error", zapcore.ErrorLevel},
}

func (l LogLevel) Valid() bool {
	return l >= DEBUG && int(l) < len(logLevels)
}

func (l LogLevel) String() string {
	if !l.Valid() {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return logLevels[l].name
}

// Set accepts level names in any case.
func (l *LogLevel) Set(s string) error {
	for level, info := range logLevels {
		if strings.EqualFold(s, info.name) {
			*l = LogLevel(level)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownLogLevel, s)
}

func (l *LogLevel) Type() string {
	return "LogLevel"
}

func (l LogLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, ErrUnknownLogLevel
	}
	return []byte(l.String()), nil
}

func (l *LogLevel) UnmarshalText(text []byte) error {
	return l.Set(string(text))
}

func (l LogLevel) zapLevel() zapcore.Level {
	if !l.Valid() {
		return zapcore.InfoLevel
	}
	return logLevels[l].zap
}

type SimpleLogger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Logger also satisfies pebble.Logger so the same sink receives storage engine messages.
type Logger interface {
	SimpleLogger
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

type ZapLogger struct {
	*zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

func NewNopZapLogger() *ZapLogger {
	return &ZapLogger{zap.NewNop().Sugar()}
}

func NewZapLogger(logLevel LogLevel, colour bool) (*ZapLogger, error) {
	config := zap.NewProductionConfig()
	config.Sampling = nil
	config.Encoding = "console"
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if colour {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Local().Format("15:04:05.000 02/01/2006 -07:00"))
	}
	config.Level.SetLevel(logLevel.zapLevel())
	log, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &ZapLogger{log.Sugar()}, nil
}
