package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PHISHGUARD_DATASET", "PHISHGUARD_MODEL", "PORT", "PHISHGUARD_ADDR",
		"PHISHGUARD_SHUTDOWN_TIMEOUT", "PHISHGUARD_HISTORY", "PHISHGUARD_LIVE_FEED", "LOG_LEVEL",
		"LOG_FORMAT", "PHISHGUARD_WORKERS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err, "missing .env should not be an error")

	assert.Equal(t, "dataset/phishing_dataset.csv", cfg.Paths.Dataset)
	assert.Equal(t, "model/phish_model.json", cfg.Paths.Model)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 0, cfg.Server.HistorySize, "history is off unless enabled")
	assert.False(t, cfg.Server.LiveFeed, "live feed is off unless enabled")
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 0, cfg.Training.Workers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PHISHGUARD_DATASET", "/data/urls.csv")
	t.Setenv("PHISHGUARD_MODEL", "/models/m.json")
	t.Setenv("PORT", "8080")
	t.Setenv("PHISHGUARD_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("PHISHGUARD_HISTORY", "5")
	t.Setenv("PHISHGUARD_LIVE_FEED", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PHISHGUARD_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/urls.csv", cfg.Paths.Dataset)
	assert.Equal(t, "/models/m.json", cfg.Paths.Model)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5, cfg.Server.HistorySize)
	assert.True(t, cfg.Server.LiveFeed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Training.Workers)
}

func TestLoad_AddrWinsOverPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("PHISHGUARD_ADDR", "127.0.0.1:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PHISHGUARD_SHUTDOWN_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("PHISHGUARD_WORKERS", "many")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("PHISHGUARD_LIVE_FEED", "maybe")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("LOG_LEVEL", "loud")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Paths:  PathsConfig{Dataset: "d.csv", Model: "m.json"},
		Server: ServerConfig{Addr: ":5000", ShutdownTimeout: time.Second},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
	assert.NoError(t, valid.Validate())

	c := valid
	c.Log.Format = "xml"
	assert.Error(t, c.Validate())

	c = valid
	c.Training.Workers = -1
	assert.Error(t, c.Validate())

	c = valid
	c.Paths.Model = ""
	assert.Error(t, c.Validate())

	c = valid
	c.Server.ShutdownTimeout = 0
	assert.Error(t, c.Validate())
}
