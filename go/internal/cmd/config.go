package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/refbox/go/internal/editor"
	"github.com/mcdev12/refbox/go/internal/models"
)

// Config is the refbox.yaml file. Durations use Go syntax, e.g. "15m".
type Config struct {
	Game             models.GameConfig `yaml:"game"`
	PenaltyListLimit int               `yaml:"penalty_list_limit"`

	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Gateway struct {
		PingInterval   time.Duration `yaml:"ping_interval"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		ForwardEvents  bool          `yaml:"forward_events"`
		EventsConsumer string        `yaml:"events_consumer"`
	} `yaml:"gateway"`

	Stats struct {
		Enabled          bool          `yaml:"enabled"`
		NATSURL          string        `yaml:"nats_url"`
		FallbackInterval time.Duration `yaml:"fallback_interval"`
		HealthThreshold  time.Duration `yaml:"health_threshold"`
	} `yaml:"stats"`
}

func defaultConfig() *Config {
	cfg := &Config{
		Game:             models.DefaultGameConfig(),
		PenaltyListLimit: editor.DefaultPenaltyListLimit,
	}
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Gateway.PingInterval = 30 * time.Second
	cfg.Gateway.WriteTimeout = 10 * time.Second
	cfg.Gateway.ReadTimeout = 60 * time.Second
	cfg.Gateway.ForwardEvents = true
	cfg.Gateway.EventsConsumer = "refbox-gateway"
	cfg.Stats.NATSURL = "nats://localhost:4222"
	cfg.Stats.FallbackInterval = 30 * time.Second
	cfg.Stats.HealthThreshold = 5 * time.Minute
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file over the defaults, so a file only needs the
// keys it changes.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// applyEnv lets the environment override the file.
func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Stats.NATSURL = getEnv("NATS_URL", c.Stats.NATSURL)
	c.Stats.Enabled = getEnvAsBool("STATS_ENABLED", c.Stats.Enabled)
	c.PenaltyListLimit = getEnvAsInt("PENALTY_LIST_LIMIT", c.PenaltyListLimit)
}
