package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{
		"TCPING_COUNT", "TCPING_INTERVAL", "TCPING_TIMEOUT", "TCPING_METRICS_ADDR",
		"TCPING_PUSHGATEWAY", "TCPING_LOG_LEVEL", "TCPING_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}

	cfg := loadConfig()
	assert.Equal(t, 4, cfg.Count)
	assert.Equal(t, 1.0, cfg.Interval)
	assert.Equal(t, 2.0, cfg.Timeout)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.PushGateway)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("TCPING_COUNT", "10")
	t.Setenv("TCPING_INTERVAL", "0.5")
	t.Setenv("TCPING_TIMEOUT", " 3 ")
	t.Setenv("TCPING_METRICS_ADDR", ":9095")
	t.Setenv("TCPING_PUSHGATEWAY", "http://pushgateway:9091")
	t.Setenv("TCPING_LOG_LEVEL", "debug")
	t.Setenv("TCPING_LOG_FORMAT", "JSON")

	cfg := loadConfig()
	assert.Equal(t, 10, cfg.Count)
	assert.Equal(t, 0.5, cfg.Interval)
	assert.Equal(t, 3.0, cfg.Timeout)
	assert.Equal(t, ":9095", cfg.MetricsAddr)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushGateway)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_BadValuesFallBack(t *testing.T) {
	t.Setenv("TCPING_COUNT", "many")
	t.Setenv("TCPING_INTERVAL", "soon")
	t.Setenv("TCPING_TIMEOUT", "2s")
	t.Setenv("TCPING_LOG_LEVEL", "chatty")

	cfg := loadConfig()
	assert.Equal(t, 4, cfg.Count)
	assert.Equal(t, 1.0, cfg.Interval)
	assert.Equal(t, 2.0, cfg.Timeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestNewLogger(t *testing.T) {
	t.Cleanup(func() { slogLevel.Set(slog.LevelInfo) })

	var buf bytes.Buffer
	logger := newLogger(&buf, Config{LogLevel: slog.LevelWarn, LogFormat: "json"})
	logger.Info("hidden")
	logger.Warn("shown", "target", "192.0.2.1:80")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "192.0.2.1:80", entry["target"])

	buf.Reset()
	logger = newLogger(&buf, Config{LogLevel: slog.LevelInfo, LogFormat: "text"})
	logger.Info("probe", "outcome", "timeout")
	assert.Contains(t, buf.String(), "msg=probe outcome=timeout")
}

func TestEnvValue(t *testing.T) {
	t.Setenv("TCPING_TEST_BLANK", "   ")
	_, ok := envValue("TCPING_TEST_BLANK")
	assert.False(t, ok)

	t.Setenv("TCPING_TEST_SET", " 7 ")
	v, ok := envValue("TCPING_TEST_SET")
	assert.True(t, ok)
	assert.Equal(t, "7", v)
	assert.Equal(t, 7, envInt("TCPING_TEST_SET", 1))
	assert.Equal(t, 7.0, envFloat("TCPING_TEST_SET", 1))
	assert.Equal(t, "fallback", envString("TCPING_TEST_BLANK", "fallback"))
}
