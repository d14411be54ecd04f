package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks the environment variables that override configuration.
// DNDICE_SERVER_ADDRESS sets server.address.
const EnvPrefix = "DNDICE_"

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.address":        ":8080",
		"cache.address":         "dragonfly:6379",
		"cache.size":            1000,
		"database.url":          "",
		"simulation.iterations": 10000,
		"simulation.timeout":    "2s",
		"receipt.secret":        "",
		"receipt.ttl":           "0s",
		"session.idle":          "1h",
		"session.cleanup":       "5m",
		"sync.interval":         "15m",
		"log.level":             "info",
		"log.pretty":            false,
		"dice.seed":             0,
	}
}

// Load returns the defaults overlaid with DNDICE_* environment variables.
func Load() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading default configuration: %w", err)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment configuration: %w", err)
	}
	return k, nil
}
