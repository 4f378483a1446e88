package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads the configuration.
// Search order: customPath -> ~/.tetrisbot/config.yaml -> ./configs/tetrisbot.yaml -> embedded default
//
// Files are decoded on top of Default, so a file only needs the keys it
// changes. Only a bad customPath is an error; the other locations are
// skipped if missing or unreadable.
func Load(customPath string) (Config, error) {
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if ok := tryLoad(userCfgPath, &cfg); ok {
			return cfg, nil
		}
	}

	// Try local configs directory
	if ok := tryLoad(filepath.Join("configs", "tetrisbot.yaml"), &cfg); ok {
		return cfg, nil
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// tryLoad decodes path into cfg. cfg is left untouched on failure.
func tryLoad(path string, cfg *Config) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	next := *cfg
	if err := yaml.Unmarshal(data, &next); err != nil {
		return false
	}
	*cfg = next
	return true
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tetrisbot", filename)
}

// Validate reports every setting that cannot drive a run.
func (c Config) Validate() error {
	var errs []error
	check := func(bad bool, format string, args ...any) {
		if bad {
			errs = append(errs, fmt.Errorf("config: "+format, args...))
		}
	}

	check(c.Evolution.Population < 1, "evolution.population must be at least 1, got %d", c.Evolution.Population)
	check(c.Evolution.Generations < 0, "evolution.generations must not be negative, got %d", c.Evolution.Generations)
	check(c.Evolution.Workers < 0, "evolution.workers must not be negative, got %d", c.Evolution.Workers)
	check(c.Fitness.Games < 1, "fitness.games must be at least 1, got %d", c.Fitness.Games)
	check(c.Fitness.KillLines < 1, "fitness.kill_lines must be at least 1, got %d", c.Fitness.KillLines)
	check(c.Fitness.StartLevel < 0, "fitness.start_level must not be negative, got %d", c.Fitness.StartLevel)
	check(c.Server.IdleTimeout < 0, "server.idle_timeout must not be negative, got %s", c.Server.IdleTimeout)
	check(c.Watch.TickMS < 1, "watch.tick_ms must be at least 1, got %d", c.Watch.TickMS)
	check(c.Watch.MinTickMS < 1 || c.Watch.MinTickMS > c.Watch.TickMS,
		"watch.min_tick_ms must be between 1 and tick_ms, got %d", c.Watch.MinTickMS)

	return errors.Join(errs...)
}
