package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedSink(flags Flags) (*Sink, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewSinkWithCore(core, flags), logs
}

func TestSink_Log(t *testing.T) {
	sink, logs := newObservedSink(Flags{})

	sink.Log("written", true, LevelWarn, zap.String("module", "news"))
	sink.Log("dropped", false, LevelError)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "written", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "news", entry.ContextMap()["module"])
}

func TestSink_SeverityFlags(t *testing.T) {
	sink, logs := newObservedSink(Flags{Info: true, Error: true})

	sink.Debug("debug")
	sink.Info("info")
	sink.Warn("warn")
	sink.Error("error", errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "info", logs.All()[0].Message)
	assert.Equal(t, "error", logs.All()[1].Message)
	assert.Equal(t, "boom", logs.All()[1].ContextMap()["error"])
}

func TestSink_NilIsSafe(t *testing.T) {
	var sink *Sink
	assert.NotPanics(t, func() {
		sink.Info("ignored")
		sink.Error("ignored", errors.New("x"))
		_ = sink.Sync()
	})
}
