package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"quizrush/internal/game"
)

// Server holds environment-driven settings.
type Server struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	GameConfigPath  string        `envconfig:"GAME_CONFIG"`
	ProviderURL     string        `envconfig:"PROVIDER_URL"`
	ProviderAPIKey  string        `envconfig:"PROVIDER_API_KEY"`
	ProviderModel   string        `envconfig:"PROVIDER_MODEL"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`
}

// Config is the full server configuration.
type Config struct {
	Server  Server
	Timings game.Timings
}

// gameFile is the optional yaml file shape for game tunables, all in
// milliseconds so sub-second delays stay expressible.
type gameFile struct {
	RoundDurationMs     int `yaml:"round_duration_ms"`
	TickIntervalMs      int `yaml:"tick_interval_ms"`
	NextRoundDelayMs    int `yaml:"next_round_delay_ms"`
	GameStartDelayMs    int `yaml:"game_start_delay_ms"`
	AllAnsweredDelayMs  int `yaml:"all_answered_delay_ms"`
	DuplicateAckDelayMs int `yaml:"duplicate_ack_delay_ms"`
}

// Load assembles configuration from the environment plus the optional game
// config yaml file. Zero configuration yields a runnable server with the
// default timing profile.
func Load() (*Config, error) {
	var server Server
	if err := envconfig.Process("", &server); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	cfg := &Config{
		Server:  server,
		Timings: game.DefaultTimings(),
	}

	if server.GameConfigPath != "" {
		if err := applyGameFile(server.GameConfigPath, &cfg.Timings); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// applyGameFile overlays non-zero values from the yaml file onto the
// default timings.
func applyGameFile(path string, timings *game.Timings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file gameFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	overlay := func(dst *time.Duration, ms int) {
		if ms > 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
	overlay(&timings.RoundDuration, file.RoundDurationMs)
	overlay(&timings.TickInterval, file.TickIntervalMs)
	overlay(&timings.NextRoundDelay, file.NextRoundDelayMs)
	overlay(&timings.GameStartDelay, file.GameStartDelayMs)
	overlay(&timings.AllAnsweredDelay, file.AllAnsweredDelayMs)
	overlay(&timings.DuplicateAckDelay, file.DuplicateAckDelayMs)
	return nil
}
