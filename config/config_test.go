package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/clinic.db", cfg.DBPath)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 10*time.Second, cfg.DispatchTimeout)
	assert.True(t, cfg.CallLog.Enabled)
	assert.Equal(t, 1000, cfg.CallLog.QueueSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("MODEL_PROVIDER", "Anthropic")
	t.Setenv("DISPATCH_TIMEOUT", "3s")
	t.Setenv("CALL_LOG_ENABLED", "off")
	t.Setenv("CALL_LOG_QUEUE_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, 3*time.Second, cfg.DispatchTimeout)
	assert.False(t, cfg.CallLog.Enabled)
	assert.Equal(t, 50, cfg.CallLog.QueueSize)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "carrier-pigeon")

	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DISPATCH_TIMEOUT", "not-a-duration")
	t.Setenv("CALL_LOG_QUEUE_SIZE", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, 1000, cfg.CallLog.QueueSize)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		DBPath:          "db",
		Provider:        ProviderOpenAI,
		DispatchTimeout: time.Second,
		CallLog:         CallLogConfig{Enabled: true, Dir: "logs", QueueSize: 10},
	}
	assert.NoError(t, cfg.Validate())

	cfg.DBPath = ""
	assert.Error(t, cfg.Validate())
	cfg.DBPath = "db"

	cfg.CallLog.Dir = ""
	assert.Error(t, cfg.Validate())

	// An empty dir is fine when logging is disabled.
	cfg.CallLog.Enabled = false
	assert.NoError(t, cfg.Validate())
}
