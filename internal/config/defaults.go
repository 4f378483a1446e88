package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/tetrisbot.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Evolution: EvolutionConfig{
			Population:  25,
			Generations: 10,
		},
		Fitness: FitnessConfig{
			Games:     5,
			KillLines: 300,
		},
		Server: ServerConfig{
			SSHAddr:     ":23235",
			WSAddr:      ":8089",
			IdleTimeout: 30 * time.Minute,
		},
		Storage: StorageConfig{
			DB:     "~/.tetrisbot/runs.db",
			Traces: "~/.tetrisbot/traces",
		},
		Watch: WatchConfig{
			TickMS:    120,
			MinTickMS: 30,
			MaxLevel:  10,
		},
	}
}
