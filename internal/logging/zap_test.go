package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "inf", entries[1].Message)
	assert.Equal(t, int64(2), entries[1].ContextMap()["b"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapLogger(zap.New(core)).With("module", "auth")

	log.Info(context.Background(), "hello")

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "auth", entries[0].ContextMap()["module"])
}

func TestNew(t *testing.T) {
	l, err := New("zap", "info")
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	l, err = New("slog", "debug")
	require.NoError(t, err)
	assert.IsType(t, &SlogLogger{}, l)

	_, err = New("zap", "loud")
	assert.Error(t, err)

	_, err = New("logrus", "info")
	assert.Error(t, err)
}
