package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LISTEN_ADDR", "DATABASE_URL", "STORE", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"RISK_EVENT_STREAM", "ARB_ROUTING_FILE", "RISK_STRICT_TRANSITIONS", "RECALC_WORKERS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWithoutDatabase(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "risk:domain-events", cfg.Redis.Stream)
	assert.True(t, cfg.StrictTransitions)
	assert.Equal(t, 4, cfg.RecalcWorkers)
	assert.Equal(t, Log{Level: "info", Format: "json"}, cfg.Log)
}

func TestLoad_Postgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/risks")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RISK_STRICT_TRANSITIONS", "false")
	t.Setenv("RECALC_WORKERS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.False(t, cfg.StrictTransitions)
	assert.Equal(t, 1, cfg.RecalcWorkers)
}

func TestLoad_StoreErrors(t *testing.T) {
	tests := []struct {
		name  string
		store string
		url   string
	}{
		{"postgres without url", "postgres", ""},
		{"unknown store", "sqlite", "postgres://x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STORE", tt.store)
			t.Setenv("DATABASE_URL", tt.url)
			_, err := Load()
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrNoDatabase)
		})
	}
}

func TestLoad_ExplicitMemoryWithDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("STORE", "MEMORY")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
}
