package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizrush/internal/game"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Server.ProviderTimeout)
	assert.Equal(t, game.DefaultTimings(), cfg.Timings)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PROVIDER_URL", "http://localhost:4000/v1")
	t.Setenv("PROVIDER_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "http://localhost:4000/v1", cfg.Server.ProviderURL)
	assert.Equal(t, 5*time.Second, cfg.Server.ProviderTimeout)
}

func TestLoad_GameFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"round_duration_ms: 15000\nnext_round_delay_ms: 500\n",
	), 0o644))
	t.Setenv("GAME_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	// Named values override, everything else keeps the default profile.
	assert.Equal(t, 15*time.Second, cfg.Timings.RoundDuration)
	assert.Equal(t, 500*time.Millisecond, cfg.Timings.NextRoundDelay)
	assert.Equal(t, time.Second, cfg.Timings.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.Timings.GameStartDelay)
}

func TestLoad_MissingGameFile(t *testing.T) {
	t.Setenv("GAME_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_MalformedGameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte("round_duration_ms: [oops"), 0o644))
	t.Setenv("GAME_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}
