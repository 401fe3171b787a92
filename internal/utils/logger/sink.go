package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of a sink entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Flags switches each severity of the sink on or off.
type Flags struct {
	Debug bool
	Info  bool
	Warn  bool
	Error bool
}

// Sink is the audit log shared by request handlers. Every entry is written
// only when its enabled flag is set.
type Sink struct {
	z     *zap.Logger
	flags Flags
}

// NewSink builds a JSON sink writing to output ("stdout", "stderr" or a path).
func NewSink(output string, flags Flags) (*Sink, error) {
	if output == "" {
		output = "stdout"
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Sink{z: z, flags: flags}, nil
}

// NewSinkWithCore wraps an existing zap core.
func NewSinkWithCore(core zapcore.Core, flags Flags) *Sink {
	return &Sink{z: zap.New(core), flags: flags}
}

// NopSink discards everything.
func NopSink() *Sink {
	return &Sink{z: zap.NewNop()}
}

// Log writes message at level when enabled is true.
func (s *Sink) Log(message string, enabled bool, level Level, fields ...zap.Field) {
	if s == nil || !enabled {
		return
	}
	if ce := s.z.Check(level.zapLevel(), message); ce != nil {
		ce.Write(fields...)
	}
}

func (s *Sink) Debug(message string, fields ...zap.Field) {
	if s == nil {
		return
	}
	s.Log(message, s.flags.Debug, LevelDebug, fields...)
}

func (s *Sink) Info(message string, fields ...zap.Field) {
	if s == nil {
		return
	}
	s.Log(message, s.flags.Info, LevelInfo, fields...)
}

func (s *Sink) Warn(message string, fields ...zap.Field) {
	if s == nil {
		return
	}
	s.Log(message, s.flags.Warn, LevelWarn, fields...)
}

func (s *Sink) Error(message string, err error, fields ...zap.Field) {
	if s == nil {
		return
	}
	s.Log(message, s.flags.Error, LevelError, append(fields, zap.Error(err))...)
}

// Sync flushes buffered entries.
func (s *Sink) Sync() error {
	if s == nil {
		return nil
	}
	return s.z.Sync()
}
