package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_LevelsMapToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLoggerFrom(zap.New(core))

	logger.Verbose("resolved %s", "mem:///dir")
	logger.Info("streamed %d bytes", 7)
	logger.Error("open %s failed", "/x")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, "resolved mem:///dir", entries[0].Message)
	require.Equal(t, zapcore.InfoLevel, entries[1].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	require.Equal(t, "open /x failed", entries[2].Message)
}

func TestZapLogger_VerboseSuppressedAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewZapLoggerFrom(zap.New(core))

	logger.Verbose("hidden")
	logger.Info("shown")

	require.Equal(t, 1, logs.Len())
	require.Equal(t, "shown", logs.All()[0].Message)
}

func TestNewZapLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewZapLogger(ZapConfig{Level: "chatty", OutputPath: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.False(t, logger.logger.Core().Enabled(zapcore.DebugLevel))
	require.True(t, logger.logger.Core().Enabled(zapcore.InfoLevel))
}
