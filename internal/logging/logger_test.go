package logging

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := logger.Load()
	SetLogger(zap.New(core))
	t.Cleanup(func() { logger.Store(prev) })
	return logs
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"chatty":  zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	require.NoError(t, InitializeFromEnv())
	assert.False(t, GetLogger().Core().Enabled(zapcore.ErrorLevel))
}

func TestInitializeToFile(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	path := filepath.Join(t.TempDir(), "rrcmon.log")

	require.NoError(t, InitializeToFile("debug", path))
	Info("hello", zap.String("k", "v"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.NotContains(t, string(data), "\x1b[", "file output has no colour codes")

	require.NoError(t, InitializeToFile("debug", ""))
	assert.False(t, GetLogger().Core().Enabled(zapcore.ErrorLevel))
}

func TestLogReconcile(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogReconcile("vbsp", nil, nil, false)
	assert.Equal(t, 0, logs.Len(), "empty changes are not logged")

	LogReconcile("vbsp", []string{"a"}, []string{"b"}, true)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Options reconciled", entry.Message)
	assert.Equal(t, true, entry.ContextMap()["selection_invalidated"])
}

func TestLogFetchFailure(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogFetchFailure("measurements", "transient-network", errors.New("refused"))
	LogFetch("vbsps", "/api/v1/tenants/x/vbsps", 12*time.Millisecond)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, "transient-network", logs.All()[0].ContextMap()["class"])
	assert.Equal(t, zapcore.DebugLevel, logs.All()[1].Level)
}

func TestLogWebSocketMessage(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogWebSocketMessage("127.0.0.1:5000", "sent", 1, []byte(`{"ok":true}`))
	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "text", ctx["message_type"])
	assert.Equal(t, `{"ok":true}`, ctx["content"])
}

func TestGetLogger_ConcurrentWithSwaps(t *testing.T) {
	prev := logger.Load()
	logger.Store(nil)
	t.Cleanup(func() { logger.Store(prev) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Debug("tick", zap.Int("j", j))
				assert.NotNil(t, GetLogger())
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			SetLogger(zap.NewNop())
		}
	}()
	wg.Wait()
}
