package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("UPSTREAM_API_URL", "https://api.example.com/v1/")
	t.Setenv("CLIENT_STATE_BACKEND", "FILE")

	cfg := LoadConfig()

	assert.Equal(t, "https://api.example.com/v1", cfg.UpstreamAPIURL)
	assert.Equal(t, StateBackendFile, cfg.ClientStateBackend)
	assert.Equal(t, 10, cfg.ReturnWindowDays)
	assert.Equal(t, 30*time.Second, cfg.ReconcileTimeout)
	assert.Equal(t, "", cfg.DBUrl)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_BAD_DUR", "soon")
	t.Setenv("X_INT32", "42")
	t.Setenv("X_FLOAT", "2.5")
	t.Setenv("X_NEG_FLOAT", "-1")

	assert.Equal(t, 90*time.Second, getDurationEnv("X_DUR", time.Second))
	assert.Equal(t, time.Second, getDurationEnv("X_BAD_DUR", time.Second))
	assert.Equal(t, int32(42), getInt32Env("X_INT32", 1))
	assert.Equal(t, 2.5, getFloatEnv("X_FLOAT", 1))
	assert.Equal(t, 1.0, getFloatEnv("X_NEG_FLOAT", 1))
	assert.Equal(t, 7, getIntEnv("X_MISSING", 7))
}
