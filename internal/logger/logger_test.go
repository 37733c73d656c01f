package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestPrintfStyleCalls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Debug("loading questions for test %d", 7)
	Warn("alert: %s", "Выберите ответы на все вопросы")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "loading questions for test 7", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "alert: Выберите ответы на все вопросы", entries[1].Message)
}

func TestSetupWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testdesk.log")
	Setup("debug", path)
	t.Cleanup(func() { Set(zap.NewNop()) })

	Info("journal opened at %s", "dir")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "journal opened at dir")
}
