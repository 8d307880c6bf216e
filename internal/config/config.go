// Package config loads the orgutrip YAML configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"orgutrip/internal/build"
	"orgutrip/internal/credit"
	"orgutrip/internal/storage"
)

// Feed holds the NATS roster-feed settings.
type Feed struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Queue   string `yaml:"queue"`
}

// Config is the full application configuration.
type Config struct {
	Storage storage.Config           `yaml:"storage"`
	Archive storage.ClickHouseConfig `yaml:"archive"`
	Carrier build.CarrierRule        `yaml:"carrier"`
	Credit  credit.Rules             `yaml:"credit"`
	Feed    Feed                     `yaml:"feed"`
}

// Default returns the local single-user setup: sqlite file storage,
// Aeromexico carrier rules, no guarantees.
func Default() Config {
	return Config{
		Storage: storage.DefaultConfig(),
		Archive: storage.ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "orgutrip",
			User:     "default",
		},
		Carrier: build.DefaultCarrierRule(),
		Credit:  credit.DefaultRules(),
		Feed: Feed{
			URL:     "nats://localhost:4222",
			Subject: "orgutrip.roster",
			Queue:   "orgutrip",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
